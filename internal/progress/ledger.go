package progress

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

type CompleteLessonOutcome string

const (
	LessonCompleted        CompleteLessonOutcome = "completed"
	LessonAlreadyCompleted CompleteLessonOutcome = "already_completed"
)

type CompleteLessonResult struct {
	Outcome   CompleteLessonOutcome
	XPAwarded int64
}

type ReviewSessionResult struct {
	XPAwarded int64
	Accuracy  int
}

// Ledger records lesson completions and XP awards.
type Ledger interface {
	// CompleteLesson awards xp exactly once per (track, lesson): a
	// lesson already present in the course's completed set reports
	// LessonAlreadyCompleted with zero XP. The award itself (lesson set
	// membership, course XP, total XP, completion timestamp) is applied
	// as one atomic document update. Creating the review plan is the
	// caller's follow-up, retried independently.
	CompleteLesson(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, xp int64, completedAt time.Time) (CompleteLessonResult, error)

	// AddUntrackedXP adds xp for externally-authored content with no
	// stable lesson identity. Deliberately weaker than CompleteLesson:
	// there is no duplicate prevention on this path.
	AddUntrackedXP(ctx context.Context, learnerID uuid.UUID, xp int64) error

	// CompleteReviewSession awards correct×xpPerCorrect and appends a
	// session record. The counts are client-reported and trusted;
	// retried calls append twice (no idempotency key on this path).
	CompleteReviewSession(ctx context.Context, learnerID uuid.UUID, correct, total int, xpPerCorrect int64, at time.Time) (ReviewSessionResult, error)
}

type ledger struct {
	repo Repository
}

func NewLedger(repo Repository) Ledger {
	return &ledger{repo: repo}
}

func (l *ledger) CompleteLesson(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, xp int64, completedAt time.Time) (CompleteLessonResult, error) {
	// Track names become document field segments, so a "." would split
	// the course entry across nested objects.
	if track == "" || strings.Contains(track, ".") || lessonNumber < 1 {
		return CompleteLessonResult{}, errors.Trace(ErrInvalidCompletion)
	}
	if xp < 0 {
		return CompleteLessonResult{}, errors.Trace(ErrInvalidXP)
	}

	p, err := l.repo.GetOrInitUserProgress(ctx, learnerID)
	if err != nil {
		return CompleteLessonResult{}, errors.Trace(err)
	}

	course, tracked := p.Courses[track]
	if tracked && course.HasLesson(lessonNumber) {
		return CompleteLessonResult{Outcome: LessonAlreadyCompleted}, nil
	}

	if !tracked {
		if err := l.repo.InitCourseProgress(ctx, learnerID, track); err != nil {
			return CompleteLessonResult{}, errors.Trace(err)
		}
	}

	if err := l.repo.ApplyLessonCompletion(ctx, learnerID, track, lessonNumber, xp, completedAt); err != nil {
		return CompleteLessonResult{}, errors.Trace(err)
	}

	return CompleteLessonResult{Outcome: LessonCompleted, XPAwarded: xp}, nil
}

func (l *ledger) AddUntrackedXP(ctx context.Context, learnerID uuid.UUID, xp int64) error {
	if xp < 0 {
		return errors.Trace(ErrInvalidXP)
	}

	if _, err := l.repo.GetOrInitUserProgress(ctx, learnerID); err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(l.repo.AddXP(ctx, learnerID, xp))
}

func (l *ledger) CompleteReviewSession(ctx context.Context, learnerID uuid.UUID, correct, total int, xpPerCorrect int64, at time.Time) (ReviewSessionResult, error) {
	if correct < 0 || total < correct {
		return ReviewSessionResult{}, errors.Trace(ErrInvalidSession)
	}
	if xpPerCorrect < 0 {
		return ReviewSessionResult{}, errors.Trace(ErrInvalidXP)
	}

	if _, err := l.repo.GetOrInitUserProgress(ctx, learnerID); err != nil {
		return ReviewSessionResult{}, errors.Trace(err)
	}

	session := ReviewSession{
		Timestamp: at,
		XPEarned:  int64(correct) * xpPerCorrect,
		Correct:   correct,
		Total:     total,
		Accuracy:  accuracy(correct, total),
	}

	if err := l.repo.AppendReviewSession(ctx, learnerID, session); err != nil {
		return ReviewSessionResult{}, errors.Trace(err)
	}

	return ReviewSessionResult{XPAwarded: session.XPEarned, Accuracy: session.Accuracy}, nil
}

func accuracy(correct, total int) int {
	if total == 0 {
		return 0
	}

	return int(math.Round(100 * float64(correct) / float64(total)))
}
