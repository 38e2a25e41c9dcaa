package review

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tilinna/clock"
)

func TestCompleter_CompleteReview_AdvancesNextPendingStep(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("9e67068d-1c43-4e03-afd5-2b7a7c1b86dc")
	now := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

	plan := NewPlan(learnerID, "bible", 3, time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))

	mockRepo := new(RepositoryMock)
	mockRepo.On("GetPlan", ctx, learnerID, "bible_lesson_3").Return(plan, nil)
	mockRepo.On("UpdatePlan", ctx, mock.MatchedBy(func(p Plan) bool {
		first := p.Steps[0]

		return first.Completed &&
			first.CompletedAt != nil && first.CompletedAt.Equal(now) &&
			first.Score != nil && *first.Score == 80 &&
			!p.Steps[1].Completed && !p.Steps[2].Completed && !p.Steps[3].Completed &&
			p.MasteryLevel == 1
	})).Return(nil)

	c := NewCompleter(mockRepo, clock.NewMock(now))

	res, err := c.CompleteReview(ctx, learnerID, "bible", 3, 80)
	assert.NoError(t, err)
	assert.Equal(t, ReviewAdvanced, res.Outcome)
	assert.Equal(t, 1, res.MasteryLevel)
	assert.Equal(t, 1, res.ReviewNumber)
	mockRepo.AssertExpectations(t)
}

func TestCompleter_CompleteReview_MissingPlanIsTolerated(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("9e67068d-1c43-4e03-afd5-2b7a7c1b86dc")

	mockRepo := new(RepositoryMock)
	mockRepo.On("GetPlan", ctx, learnerID, "bible_lesson_3").Return(Plan{}, ErrPlanNotFound)

	c := NewCompleter(mockRepo, clock.NewMock(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)))

	res, err := c.CompleteReview(ctx, learnerID, "bible", 3, 80)
	assert.NoError(t, err)
	assert.Equal(t, ReviewPlanMissing, res.Outcome)
	assert.Equal(t, 0, res.MasteryLevel)
	mockRepo.AssertNotCalled(t, "UpdatePlan")
}

func TestCompleter_CompleteReview_AlreadyMasteredIsNoOp(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("9e67068d-1c43-4e03-afd5-2b7a7c1b86dc")

	plan := NewPlan(learnerID, "bible", 3, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	for i := range plan.Steps {
		plan.Steps[i].Completed = true
	}
	plan.MasteryLevel = 4

	mockRepo := new(RepositoryMock)
	mockRepo.On("GetPlan", ctx, learnerID, "bible_lesson_3").Return(plan, nil)

	c := NewCompleter(mockRepo, clock.NewMock(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))

	res, err := c.CompleteReview(ctx, learnerID, "bible", 3, 95)
	assert.NoError(t, err)
	assert.Equal(t, ReviewAlreadyMastered, res.Outcome)
	assert.Equal(t, 4, res.MasteryLevel)
	mockRepo.AssertNotCalled(t, "UpdatePlan")
}

func TestCompleter_CompleteReview_StoreFailure(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("9e67068d-1c43-4e03-afd5-2b7a7c1b86dc")

	mockRepo := new(RepositoryMock)
	mockRepo.On("GetPlan", ctx, learnerID, "bible_lesson_3").Return(Plan{}, errors.Wrap(errors.New("connection refused"), ErrStoreUnavailable))

	c := NewCompleter(mockRepo, clock.NewMock(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)))

	_, err := c.CompleteReview(ctx, learnerID, "bible", 3, 80)
	assert.Equal(t, ErrStoreUnavailable, errors.Cause(err))
}

func TestCompleter_CompleteReview_SequentialMastery(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("9e67068d-1c43-4e03-afd5-2b7a7c1b86dc")

	repo := NewStoreRepository(newMemoryBackedStore(t, learnerID))
	c := NewCompleter(repo, clock.NewMock(time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)))

	for expected := 1; expected <= 4; expected++ {
		res, err := c.CompleteReview(ctx, learnerID, "bible", 3, 100)
		assert.NoError(t, err)
		assert.Equal(t, ReviewAdvanced, res.Outcome)
		assert.Equal(t, expected, res.MasteryLevel)
		assert.Equal(t, expected, res.ReviewNumber)

		plan, err := repo.GetPlan(ctx, learnerID, "bible_lesson_3")
		assert.NoError(t, err)
		assert.Equal(t, expected, plan.MasteryLevel)

		// No later step may complete before an earlier one.
		seenPending := false
		for _, step := range plan.Steps {
			if !step.Completed {
				seenPending = true
			} else {
				assert.False(t, seenPending)
			}
		}
	}

	res, err := c.CompleteReview(ctx, learnerID, "bible", 3, 100)
	assert.NoError(t, err)
	assert.Equal(t, ReviewAlreadyMastered, res.Outcome)
	assert.Equal(t, 4, res.MasteryLevel)
}
