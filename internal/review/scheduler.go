package review

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

type CreatePlanOutcome string

const (
	PlanCreated       CreatePlanOutcome = "created"
	PlanAlreadyExists CreatePlanOutcome = "already_exists"
)

// Scheduler creates the fixed four-step review plan for a completed lesson.
type Scheduler interface {
	// CreatePlan is idempotent per (learner, track, lesson): duplicate
	// completion events (retried calls, multiple devices) report
	// PlanAlreadyExists without touching the stored plan. Safe to retry
	// on ErrStoreUnavailable.
	CreatePlan(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, completedAt time.Time) (CreatePlanOutcome, error)
}

type scheduler struct {
	repo Repository
}

func NewScheduler(repo Repository) Scheduler {
	return &scheduler{repo: repo}
}

func (s *scheduler) CreatePlan(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, completedAt time.Time) (CreatePlanOutcome, error) {
	// Dots are reserved as field path separators by the progress ledger,
	// so a track carrying one can never have a course entry to pair with.
	if track == "" || strings.Contains(track, ".") || lessonNumber < 1 {
		return "", errors.Trace(ErrInvalidPlan)
	}

	err := s.repo.CreatePlan(ctx, NewPlan(learnerID, track, lessonNumber, completedAt))
	if err != nil {
		// A concurrent or earlier completion already created the plan.
		if errors.Cause(err) == ErrPlanAlreadyExists {
			return PlanAlreadyExists, nil
		}

		return "", errors.Trace(err)
	}

	return PlanCreated, nil
}
