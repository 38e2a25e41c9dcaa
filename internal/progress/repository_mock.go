package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) GetUserProgress(ctx context.Context, learnerID uuid.UUID) (UserProgress, error) {
	args := m.Called(ctx, learnerID)

	return args.Get(0).(UserProgress), args.Error(1)
}

func (m *RepositoryMock) GetOrInitUserProgress(ctx context.Context, learnerID uuid.UUID) (UserProgress, error) {
	args := m.Called(ctx, learnerID)

	return args.Get(0).(UserProgress), args.Error(1)
}

func (m *RepositoryMock) InitCourseProgress(ctx context.Context, learnerID uuid.UUID, track string) error {
	return m.Called(ctx, learnerID, track).Error(0)
}

func (m *RepositoryMock) ApplyLessonCompletion(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, xp int64, completedAt time.Time) error {
	return m.Called(ctx, learnerID, track, lessonNumber, xp, completedAt).Error(0)
}

func (m *RepositoryMock) AddXP(ctx context.Context, learnerID uuid.UUID, xp int64) error {
	return m.Called(ctx, learnerID, xp).Error(0)
}

func (m *RepositoryMock) AppendReviewSession(ctx context.Context, learnerID uuid.UUID, session ReviewSession) error {
	return m.Called(ctx, learnerID, session).Error(0)
}

func (m *RepositoryMock) ApplyDailyCompletion(ctx context.Context, learnerID uuid.UUID, date string, streak int, xp int64) error {
	return m.Called(ctx, learnerID, date, streak, xp).Error(0)
}
