package operator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service interface {
	GetCurrent(ctx context.Context) (Operator, error)
	GetByUid(ctx context.Context, uid string) (Operator, error)
	Create(ctx context.Context, op Operator) (Operator, error)
	GetAll(ctx context.Context) ([]Operator, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetCurrent(ctx context.Context) (Operator, error) {
	op, err := Current(ctx)
	if err != nil {
		return Operator{}, fmt.Errorf("failed to get current operator: %w", err)
	}
	return op, nil
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (Operator, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) Create(ctx context.Context, op Operator) (Operator, error) {
	if op.Uid == "" {
		op.Uid = uuid.NewString()
	}
	id, err := s.repo.Create(ctx, op)
	if err != nil {
		return Operator{}, err
	}
	op.Id = id
	return op, nil
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]Operator, error) {
	return s.repo.GetAll(ctx)
}
