package review

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// DueReview is a review step whose due date has arrived or passed.
type DueReview struct {
	PlanKey      string    `json:"plan_key"`
	Track        string    `json:"track"`
	LessonNumber int       `json:"lesson_number"`
	ReviewNumber int       `json:"review_number"`
	DueAt        time.Time `json:"due_at"`
	MasteryLevel int       `json:"mastery_level"`
	Overdue      bool      `json:"overdue"`
}

// Finder surfaces the reviews a learner is due for.
type Finder interface {
	// ListDue returns every plan whose next pending step is due on or
	// before asOf, compared as UTC calendar dates. Read-only; a failed
	// scan means "unknown", not "nothing due". Results are ordered by
	// due date, ties broken by plan key.
	ListDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) ([]DueReview, error)
}

type finder struct {
	repo Repository
}

func NewFinder(repo Repository) Finder {
	return &finder{repo: repo}
}

func (f *finder) ListDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) ([]DueReview, error) {
	plans, err := f.repo.ListPlans(ctx, learnerID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	asOfDate := dateOnlyUTC(asOf)

	due := make([]DueReview, 0, len(plans))
	for _, p := range plans {
		idx, ok := p.NextPendingStep()
		if !ok {
			continue
		}

		step := p.Steps[idx]
		dueDate := dateOnlyUTC(step.DueAt)
		if dueDate.After(asOfDate) {
			continue
		}

		due = append(due, DueReview{
			PlanKey:      p.Key,
			Track:        p.Track,
			LessonNumber: p.LessonNumber,
			ReviewNumber: step.ReviewNumber,
			DueAt:        step.DueAt,
			MasteryLevel: p.MasteryLevel,
			Overdue:      dueDate.Before(asOfDate),
		})
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].PlanKey < due[j].PlanKey
		}

		return due[i].DueAt.Before(due[j].DueAt)
	})

	return due, nil
}
