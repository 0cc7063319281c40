package travel

import (
	"context"
	"time"
)

// Service is the read side of daily travel records; records themselves are
// produced and persisted by the settlement engine's recomputation pass.
type Service interface {
	GetAll(ctx context.Context, filter Filter) ([]Record, error)
	GetByKey(ctx context.Context, instructorId string, date time.Time) (Record, bool, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetAll(ctx context.Context, filter Filter) ([]Record, error) {
	return s.repo.GetAll(ctx, filter)
}

func (s *ServiceImpl) GetByKey(ctx context.Context, instructorId string, date time.Time) (Record, bool, error) {
	return s.repo.GetByKey(ctx, instructorId, date)
}
