package progress

import (
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

var (
	ErrProgressNotFound  = errors.New("progress: user progress not found")
	ErrInvalidCompletion = errors.New("progress: track and a positive lesson number are required")
	ErrInvalidXP         = errors.New("progress: xp must be non-negative")
	ErrInvalidSession    = errors.New("progress: session counts are invalid")
	ErrStoreUnavailable  = errors.New("progress: store unavailable")
)

// dateLayout is the wire format for calendar dates. All dates are UTC
// calendar dates; streak and daily-challenge comparisons never use local
// time.
const dateLayout = "2006-01-02"

// UserProgress is the aggregate progress document of one learner.
type UserProgress struct {
	LearnerID      uuid.UUID                 `json:"learner_id"`
	TotalXP        int64                     `json:"total_xp"`
	Courses        map[string]CourseProgress `json:"courses"`
	DailyChallenge DailyChallengeProgress    `json:"daily_challenge"`
	ReviewStats    ReviewStats               `json:"review_stats"`
}

type CourseProgress struct {
	CompletedLessons []int      `json:"completed_lessons"`
	TotalXP          int64      `json:"total_xp"`
	LastCompletedAt  *time.Time `json:"last_completed_at,omitempty"`
}

type DailyChallengeProgress struct {
	Streak            int      `json:"streak"`
	LastCompletedDate string   `json:"last_completed_date,omitempty"`
	CompletedDates    []string `json:"completed_dates"`
	TotalCompleted    int      `json:"total_completed"`
	TotalXP           int64    `json:"total_xp"`
}

type ReviewStats struct {
	TotalSessions int64           `json:"total_sessions"`
	TotalXP       int64           `json:"total_xp"`
	Sessions      []ReviewSession `json:"sessions"`
}

// ReviewSession is one recorded review session. The counts are reported by
// the client and trusted as-is.
type ReviewSession struct {
	Timestamp time.Time `json:"timestamp"`
	XPEarned  int64     `json:"xp_earned"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	Accuracy  int       `json:"accuracy"`
}

// NewUserProgress returns an empty progress document with all nested
// containers materialized, so later partial field updates always find
// their parent objects.
func NewUserProgress(learnerID uuid.UUID) UserProgress {
	return UserProgress{
		LearnerID: learnerID,
		Courses:   map[string]CourseProgress{},
		DailyChallenge: DailyChallengeProgress{
			CompletedDates: []string{},
		},
		ReviewStats: ReviewStats{
			Sessions: []ReviewSession{},
		},
	}
}

func NewCourseProgress() CourseProgress {
	return CourseProgress{CompletedLessons: []int{}}
}

func (c CourseProgress) HasLesson(lessonNumber int) bool {
	for _, n := range c.CompletedLessons {
		if n == lessonNumber {
			return true
		}
	}

	return false
}

func (d DailyChallengeProgress) HasDate(date string) bool {
	for _, existing := range d.CompletedDates {
		if existing == date {
			return true
		}
	}

	return false
}

// FormatDate renders a timestamp as its UTC calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
