package assignment

import (
	"context"
)

type StubRepository struct {
	data []Assignment
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) ReplaceAll(ctx context.Context, assignments []Assignment) error {
	s.data = make([]Assignment, len(assignments))
	copy(s.data, assignments)
	return nil
}

func (s *StubRepository) GetAll(ctx context.Context) ([]Assignment, error) {
	out := make([]Assignment, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *StubRepository) Cleanup() {
	s.data = nil
}
