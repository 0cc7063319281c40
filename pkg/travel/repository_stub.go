package travel

import (
	"context"
	"time"
)

type StubRepository struct {
	data []Record
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) ReplaceAll(ctx context.Context, records []Record) error {
	s.data = make([]Record, len(records))
	copy(s.data, records)
	return nil
}

func (s *StubRepository) GetAll(ctx context.Context, filter Filter) ([]Record, error) {
	out := make([]Record, 0, len(s.data))
	for _, record := range s.data {
		if filter.InstructorId != "" && record.InstructorId != filter.InstructorId {
			continue
		}
		if filter.From != nil && record.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.Date.After(*filter.To) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *StubRepository) GetByKey(ctx context.Context, instructorId string, date time.Time) (Record, bool, error) {
	for _, record := range s.data {
		if record.InstructorId == instructorId && record.Date.Equal(date) {
			return record, true, nil
		}
	}
	return Record{}, false, nil
}

func (s *StubRepository) Cleanup() {
	s.data = nil
}
