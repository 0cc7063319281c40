package override

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type StubRepository struct {
	rowEntries map[uuid.UUID]map[Field]Entry
	dayEntries map[DayKey]map[Field]Entry
	dayDates   map[DayKey]time.Time
}

func NewStubRepository() *StubRepository {
	return &StubRepository{
		rowEntries: map[uuid.UUID]map[Field]Entry{},
		dayEntries: map[DayKey]map[Field]Entry{},
		dayDates:   map[DayKey]time.Time{},
	}
}

func upsert(entries map[Field]Entry, incoming []Entry) {
	for _, entry := range incoming {
		if existing, ok := entries[entry.Field]; ok && existing.At.After(entry.At) {
			continue
		}
		entries[entry.Field] = entry
	}
}

func (s *StubRepository) UpsertRowEntries(ctx context.Context, rowId uuid.UUID, entries []Entry) error {
	if s.rowEntries[rowId] == nil {
		s.rowEntries[rowId] = map[Field]Entry{}
	}
	upsert(s.rowEntries[rowId], entries)
	return nil
}

func (s *StubRepository) GetRowOverride(ctx context.Context, rowId uuid.UUID) (RowOverride, bool, error) {
	entries, ok := s.rowEntries[rowId]
	if !ok || len(entries) == 0 {
		return RowOverride{}, false, nil
	}
	override := RowOverride{RowId: rowId}
	for _, entry := range entries {
		applyRowEntry(&override, entry)
	}
	return override, true, nil
}

func (s *StubRepository) GetAllRowOverrides(ctx context.Context) (map[uuid.UUID]RowOverride, error) {
	out := make(map[uuid.UUID]RowOverride, len(s.rowEntries))
	for rowId := range s.rowEntries {
		if override, ok, _ := s.GetRowOverride(ctx, rowId); ok {
			out[rowId] = override
		}
	}
	return out, nil
}

func (s *StubRepository) DeleteRowOverride(ctx context.Context, rowId uuid.UUID) error {
	delete(s.rowEntries, rowId)
	return nil
}

func (s *StubRepository) UpsertDayEntries(ctx context.Context, instructorId string, date time.Time, entries []Entry) error {
	key := NewDayKey(instructorId, date)
	if s.dayEntries[key] == nil {
		s.dayEntries[key] = map[Field]Entry{}
	}
	s.dayDates[key] = date
	upsert(s.dayEntries[key], entries)
	return nil
}

func (s *StubRepository) GetDayOverride(ctx context.Context, instructorId string, date time.Time) (DayOverride, bool, error) {
	key := NewDayKey(instructorId, date)
	entries, ok := s.dayEntries[key]
	if !ok || len(entries) == 0 {
		return DayOverride{}, false, nil
	}
	override := DayOverride{InstructorId: instructorId, Date: date}
	for _, entry := range entries {
		applyDayEntry(&override, entry)
	}
	return override, true, nil
}

func (s *StubRepository) GetAllDayOverrides(ctx context.Context) (map[DayKey]DayOverride, error) {
	out := make(map[DayKey]DayOverride, len(s.dayEntries))
	for key := range s.dayEntries {
		if override, ok, _ := s.GetDayOverride(ctx, key.InstructorId, s.dayDates[key]); ok {
			out[key] = override
		}
	}
	return out, nil
}

func (s *StubRepository) DeleteDayOverride(ctx context.Context, instructorId string, date time.Time) error {
	key := NewDayKey(instructorId, date)
	delete(s.dayEntries, key)
	delete(s.dayDates, key)
	return nil
}

func (s *StubRepository) Cleanup() {
	s.rowEntries = map[uuid.UUID]map[Field]Entry{}
	s.dayEntries = map[DayKey]map[Field]Entry{}
	s.dayDates = map[DayKey]time.Time{}
}
