package assignment

import (
	"context"
	"fmt"

	"github.com/jeongsan/jeongsan/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Import replaces the assignment snapshot with a fresh feed from the
	// scheduling system and triggers a settlement recomputation.
	Import(ctx context.Context, assignments []Assignment) error
	GetAll(ctx context.Context) ([]Assignment, error)
}

type ServiceImpl struct {
	repo Repository
	bus  *event_bus.EventBus
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus}
}

func (s *ServiceImpl) Import(ctx context.Context, assignments []Assignment) error {
	for _, a := range assignments {
		if err := validate(a); err != nil {
			return err
		}
	}
	if err := s.repo.ReplaceAll(ctx, assignments); err != nil {
		return fmt.Errorf("failed to store assignment snapshot: %w", err)
	}
	log.Infof("imported %d assignments", len(assignments))

	event := event_bus.NewEvent(ctx, event_bus.AssignmentsImportedEvent, event_bus.AssignmentsImported{Count: len(assignments)})
	if err := s.bus.Publish(event); err != nil {
		return fmt.Errorf("recomputation after import failed: %w", err)
	}
	return nil
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]Assignment, error) {
	return s.repo.GetAll(ctx)
}

func validate(a Assignment) error {
	if a.Id == "" {
		return fmt.Errorf("assignment without id")
	}
	if a.EducationId == "" || a.Instructor.Id == "" {
		return fmt.Errorf("assignment %s: education and instructor ids are required", a.Id)
	}
	if a.Role == "" {
		return fmt.Errorf("assignment %s: role is required", a.Id)
	}
	return nil
}
