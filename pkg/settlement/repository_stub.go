package settlement

import (
	"context"

	"github.com/google/uuid"
)

type StubRepository struct {
	rows []Row
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) ReplaceAll(ctx context.Context, rows []Row) error {
	s.rows = append([]Row(nil), rows...)
	return nil
}

func (s *StubRepository) GetAll(ctx context.Context, filter Filter) ([]Row, error) {
	var out []Row
	for _, row := range s.rows {
		if filter.InstructorId != "" && row.InstructorId != filter.InstructorId {
			continue
		}
		if filter.EducationId != "" && row.EducationId != filter.EducationId {
			continue
		}
		if filter.EligibleOnly && !row.IsCountingEligible {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *StubRepository) GetById(ctx context.Context, id uuid.UUID) (Row, bool, error) {
	for _, row := range s.rows {
		if row.Id == id {
			return row, true, nil
		}
	}
	return Row{}, false, nil
}

func (s *StubRepository) Cleanup() {
	s.rows = nil
}
