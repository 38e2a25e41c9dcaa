package gate

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"

	"github.com/spmcmurray/churchexplorer-sub001/internal/progress"
	"github.com/spmcmurray/churchexplorer-sub001/internal/review"
)

// learnerHeader carries the authenticated learner's ID. Authentication
// itself happens upstream of this service.
const learnerHeader = "X-Learner-ID"

type LearningAPI struct {
	Scheduler review.Scheduler
	Finder    review.Finder
	Completer review.Completer
	Ledger    progress.Ledger
	Streaks   progress.StreakTracker
	Progress  progress.Repository
	Clock     clock.Clock
}

func RegisterLearningRoutes(r *gin.RouterGroup, api *LearningAPI) {
	r.POST("/tracks/:track/lessons/:lesson/complete", api.CompleteLesson)
	r.POST("/tracks/:track/lessons/:lesson/review", api.CompleteReview)
	r.GET("/reviews/due", api.ListDueReviews)
	r.POST("/reviews/sessions", api.CompleteReviewSession)
	r.POST("/xp", api.AddUntrackedXP)
	r.POST("/daily/complete", api.CompleteDailyChallenge)
	r.GET("/progress", api.GetProgress)
}

// CompleteLesson awards lesson XP and schedules the review plan. The two
// writes are not transactional: when scheduling fails the response carries
// review_scheduled=false and the client retries the (idempotent) call.
func (api *LearningAPI) CompleteLesson(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	track, lesson, ok := trackLesson(ctx)
	if !ok {
		return
	}

	var body struct {
		XP int64 `json:"xp"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	now := api.Clock.Now().UTC()

	res, err := api.Ledger.CompleteLesson(ctx, learnerID, track, lesson, body.XP, now)
	if err != nil {
		respondError(ctx, err)
		return
	}

	reviewScheduled := false
	if _, err := api.Scheduler.CreatePlan(ctx, learnerID, track, lesson, now); err != nil {
		slog.Warn("review plan scheduling failed after lesson completion",
			"learner_id", learnerID.String(),
			"track", track,
			"lesson_number", lesson,
			"error", err.Error(),
		)
	} else {
		reviewScheduled = true
	}

	ctx.JSON(http.StatusOK, gin.H{
		"outcome":          res.Outcome,
		"xp_awarded":       res.XPAwarded,
		"review_scheduled": reviewScheduled,
	})
}

func (api *LearningAPI) CompleteReview(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	track, lesson, ok := trackLesson(ctx)
	if !ok {
		return
	}

	var body struct {
		Score float64 `json:"score"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := api.Completer.CompleteReview(ctx, learnerID, track, lesson, body.Score)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"outcome":       res.Outcome,
		"mastery_level": res.MasteryLevel,
		"mastery_label": review.MasteryLabel(res.MasteryLevel),
		"review_number": res.ReviewNumber,
	})
}

func (api *LearningAPI) ListDueReviews(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	asOf := api.Clock.Now().UTC()
	if raw := ctx.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be a YYYY-MM-DD date"})
			return
		}

		asOf = parsed
	}

	due, err := api.Finder.ListDue(ctx, learnerID, asOf)
	if err != nil {
		respondError(ctx, err)
		return
	}

	out := make([]gin.H, 0, len(due))
	for _, d := range due {
		out = append(out, gin.H{
			"plan_key":      d.PlanKey,
			"track":         d.Track,
			"lesson_number": d.LessonNumber,
			"review_number": d.ReviewNumber,
			"due_at":        d.DueAt,
			"mastery_level": d.MasteryLevel,
			"mastery_label": review.MasteryLabel(d.MasteryLevel),
			"overdue":       d.Overdue,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"reviews": out})
}

func (api *LearningAPI) CompleteReviewSession(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	var body struct {
		Correct      int   `json:"correct"`
		Total        int   `json:"total"`
		XPPerCorrect int64 `json:"xp_per_correct"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := api.Ledger.CompleteReviewSession(ctx, learnerID, body.Correct, body.Total, body.XPPerCorrect, api.Clock.Now().UTC())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"xp_awarded": res.XPAwarded,
		"accuracy":   res.Accuracy,
	})
}

func (api *LearningAPI) AddUntrackedXP(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	var body struct {
		XP int64 `json:"xp"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := api.Ledger.AddUntrackedXP(ctx, learnerID, body.XP); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"xp_awarded": body.XP})
}

func (api *LearningAPI) CompleteDailyChallenge(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	var body struct {
		XP int64 `json:"xp"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := api.Streaks.RecordDailyCompletion(ctx, learnerID, api.Clock.Now().UTC(), body.XP)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"outcome": res.Outcome,
		"streak":  res.Streak,
	})
}

func (api *LearningAPI) GetProgress(ctx *gin.Context) {
	learnerID, ok := parseLearnerID(ctx)
	if !ok {
		return
	}

	p, err := api.Progress.GetUserProgress(ctx, learnerID)
	if err != nil {
		// A learner with no activity yet has an empty ledger, not an
		// error.
		if errors.Cause(err) == progress.ErrProgressNotFound {
			ctx.JSON(http.StatusOK, progress.NewUserProgress(learnerID))
			return
		}

		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func parseLearnerID(ctx *gin.Context) (uuid.UUID, bool) {
	raw := ctx.GetHeader(learnerHeader)
	if raw == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing learner id"})
		return uuid.UUID{}, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid learner id"})
		return uuid.UUID{}, false
	}

	return id, true
}

func trackLesson(ctx *gin.Context) (string, int, bool) {
	track := ctx.Param("track")
	if track == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing track"})
		return "", 0, false
	}
	if strings.Contains(track, ".") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "track must not contain '.'"})
		return "", 0, false
	}

	lesson, err := strconv.Atoi(ctx.Param("lesson"))
	if err != nil || lesson < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lesson must be a positive integer"})
		return "", 0, false
	}

	return track, lesson, true
}

func respondError(ctx *gin.Context, err error) {
	switch errors.Cause(err) {
	case review.ErrStoreUnavailable, progress.ErrStoreUnavailable:
		// The mutation did not happen; the client must retry rather
		// than show optimistic state.
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	case review.ErrInvalidPlan, progress.ErrInvalidCompletion, progress.ErrInvalidXP, progress.ErrInvalidSession:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
