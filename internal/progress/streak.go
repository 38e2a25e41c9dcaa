package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

type DailyCompletionOutcome string

const (
	DailyRecorded        DailyCompletionOutcome = "recorded"
	DailyAlreadyRecorded DailyCompletionOutcome = "already_recorded"
)

type DailyCompletionResult struct {
	Outcome DailyCompletionOutcome
	Streak  int
}

// StreakTracker computes consecutive-day completion streaks for the daily
// challenge.
type StreakTracker interface {
	// RecordDailyCompletion counts today towards the streak: a second
	// completion on the same UTC calendar date is a no-op, a completion
	// on the day after the last one extends the streak, anything else
	// restarts it at 1.
	RecordDailyCompletion(ctx context.Context, learnerID uuid.UUID, today time.Time, xp int64) (DailyCompletionResult, error)
}

type streakTracker struct {
	repo Repository
}

func NewStreakTracker(repo Repository) StreakTracker {
	return &streakTracker{repo: repo}
}

func (t *streakTracker) RecordDailyCompletion(ctx context.Context, learnerID uuid.UUID, today time.Time, xp int64) (DailyCompletionResult, error) {
	if xp < 0 {
		return DailyCompletionResult{}, errors.Trace(ErrInvalidXP)
	}

	date := FormatDate(today)

	p, err := t.repo.GetOrInitUserProgress(ctx, learnerID)
	if err != nil {
		return DailyCompletionResult{}, errors.Trace(err)
	}

	daily := p.DailyChallenge
	if daily.HasDate(date) {
		return DailyCompletionResult{Outcome: DailyAlreadyRecorded, Streak: daily.Streak}, nil
	}

	streak := 1
	if isDayAfter(daily.LastCompletedDate, date) {
		streak = daily.Streak + 1
	}

	if err := t.repo.ApplyDailyCompletion(ctx, learnerID, date, streak, xp); err != nil {
		return DailyCompletionResult{}, errors.Trace(err)
	}

	return DailyCompletionResult{Outcome: DailyRecorded, Streak: streak}, nil
}

func isDayAfter(last, current string) bool {
	if last == "" {
		return false
	}

	lastDate, err := time.Parse(dateLayout, last)
	if err != nil {
		return false
	}

	return FormatDate(lastDate.AddDate(0, 0, 1)) == current
}
