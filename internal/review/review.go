package review

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

var (
	ErrPlanNotFound      = errors.New("review: plan not found")
	ErrPlanAlreadyExists = errors.New("review: plan already exists")
	ErrInvalidPlan       = errors.New("review: track and a positive lesson number are required")
	ErrStoreUnavailable  = errors.New("review: store unavailable")
)

// stepIntervalDays are the fixed spacing intervals of a review plan,
// counted in days from the lesson's first completion.
var stepIntervalDays = [4]int{1, 3, 7, 14}

// Plan is the spaced-repetition schedule attached to one completed lesson
// for one learner. Steps complete strictly in order and MasteryLevel always
// equals the number of completed steps.
type Plan struct {
	Key          string    `json:"key"`
	LearnerID    uuid.UUID `json:"learner_id"`
	Track        string    `json:"track"`
	LessonNumber int       `json:"lesson_number"`
	CompletedAt  time.Time `json:"completed_at"`
	Steps        []Step    `json:"steps"`
	MasteryLevel int       `json:"mastery_level"`
}

type Step struct {
	DueAt        time.Time  `json:"due_at"`
	IntervalDays int        `json:"interval_days"`
	ReviewNumber int        `json:"review_number"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Score        *float64   `json:"score,omitempty"`
}

// PlanKey derives the deterministic plan key for a lesson within a track.
// Unique per learner; plans are stored under the learner's own keyspace.
func PlanKey(track string, lessonNumber int) string {
	return fmt.Sprintf("%s_lesson_%d", track, lessonNumber)
}

func NewPlan(learnerID uuid.UUID, track string, lessonNumber int, completedAt time.Time) Plan {
	steps := make([]Step, 0, len(stepIntervalDays))
	for i, days := range stepIntervalDays {
		steps = append(steps, Step{
			DueAt:        completedAt.AddDate(0, 0, days),
			IntervalDays: days,
			ReviewNumber: i + 1,
		})
	}

	return Plan{
		Key:          PlanKey(track, lessonNumber),
		LearnerID:    learnerID,
		Track:        track,
		LessonNumber: lessonNumber,
		CompletedAt:  completedAt,
		Steps:        steps,
	}
}

// NextPendingStep returns the index of the lowest incomplete step, or false
// if the plan is fully mastered.
func (p Plan) NextPendingStep() (int, bool) {
	for i, step := range p.Steps {
		if !step.Completed {
			return i, true
		}
	}

	return 0, false
}

func (p Plan) completedSteps() int {
	count := 0
	for _, step := range p.Steps {
		if step.Completed {
			count++
		}
	}

	return count
}

// MasteryLabel names a mastery level for presentation.
func MasteryLabel(level int) string {
	switch level {
	case 0:
		return "Learning"
	case 1:
		return "Practicing"
	case 2:
		return "Growing"
	case 3:
		return "Proficient"
	default:
		return "Mastered"
	}
}

// dateOnlyUTC truncates a timestamp to its UTC calendar date. All due-date
// comparisons use UTC dates; mixing local and UTC comparisons is what this
// helper exists to prevent.
func dateOnlyUTC(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
