package review

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"
)

type CompleteReviewOutcome string

const (
	ReviewAdvanced        CompleteReviewOutcome = "advanced"
	ReviewPlanMissing     CompleteReviewOutcome = "plan_missing"
	ReviewAlreadyMastered CompleteReviewOutcome = "already_mastered"
)

type CompleteReviewResult struct {
	Outcome      CompleteReviewOutcome
	MasteryLevel int
	// ReviewNumber of the step that was completed; zero when no step
	// advanced.
	ReviewNumber int
}

// Completer advances a review plan when a learner finishes a review session.
type Completer interface {
	// CompleteReview marks the plan's next pending step completed with
	// the given score and recomputes the mastery level. A missing plan
	// (lesson completion and plan creation can race) and a fully
	// mastered plan are tolerated no-ops, not errors.
	CompleteReview(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, score float64) (CompleteReviewResult, error)
}

type completer struct {
	repo  Repository
	clock clock.Clock
}

func NewCompleter(repo Repository, clock clock.Clock) Completer {
	return &completer{repo: repo, clock: clock}
}

func (c *completer) CompleteReview(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, score float64) (CompleteReviewResult, error) {
	plan, err := c.repo.GetPlan(ctx, learnerID, PlanKey(track, lessonNumber))
	if err != nil {
		if errors.Cause(err) == ErrPlanNotFound {
			slog.Warn("review completed for a plan that was never created",
				"learner_id", learnerID.String(),
				"track", track,
				"lesson_number", lessonNumber,
			)

			return CompleteReviewResult{Outcome: ReviewPlanMissing}, nil
		}

		return CompleteReviewResult{}, errors.Trace(err)
	}

	idx, ok := plan.NextPendingStep()
	if !ok {
		return CompleteReviewResult{
			Outcome:      ReviewAlreadyMastered,
			MasteryLevel: plan.MasteryLevel,
		}, nil
	}

	now := c.clock.Now().UTC()
	plan.Steps[idx].Completed = true
	plan.Steps[idx].CompletedAt = &now
	plan.Steps[idx].Score = &score
	plan.MasteryLevel = plan.completedSteps()

	if err := c.repo.UpdatePlan(ctx, plan); err != nil {
		return CompleteReviewResult{}, errors.Trace(err)
	}

	return CompleteReviewResult{
		Outcome:      ReviewAdvanced,
		MasteryLevel: plan.MasteryLevel,
		ReviewNumber: plan.Steps[idx].ReviewNumber,
	}, nil
}
