package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) GetPlan(ctx context.Context, learnerID uuid.UUID, key string) (Plan, error) {
	args := m.Called(ctx, learnerID, key)

	return args.Get(0).(Plan), args.Error(1)
}

func (m *RepositoryMock) CreatePlan(ctx context.Context, p Plan) error {
	return m.Called(ctx, p).Error(0)
}

func (m *RepositoryMock) UpdatePlan(ctx context.Context, p Plan) error {
	return m.Called(ctx, p).Error(0)
}

func (m *RepositoryMock) ListPlans(ctx context.Context, learnerID uuid.UUID) ([]Plan, error) {
	args := m.Called(ctx, learnerID)

	return args.Get(0).([]Plan), args.Error(1)
}
