package gate

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilinna/clock"

	"github.com/spmcmurray/churchexplorer-sub001/common/docstore"
	"github.com/spmcmurray/churchexplorer-sub001/internal/progress"
)

// Walks a learner through the full lifecycle of one lesson: completion,
// the four spaced reviews on days 1, 3, 7 and 14, review-session XP and
// the daily challenge streak, checking the ledger at the end.
func TestLearnerLifecycle(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewMock(start)
	router := newTestRouter(docstore.NewMemoryStore(), clk)

	w := doJSON(router, http.MethodPost, "/tracks/bible/lessons/3/complete", map[string]any{"xp": 50})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"review_scheduled":true`)

	// A client retry of the same completion changes nothing.
	w = doJSON(router, http.MethodPost, "/tracks/bible/lessons/3/complete", map[string]any{"xp": 50})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"already_completed"`)

	days := 0
	labels := []string{"Practicing", "Growing", "Proficient", "Mastered"}
	for i, offset := range []int{1, 3, 7, 14} {
		clk.Add(time.Duration(offset-days) * 24 * time.Hour)
		days = offset

		w = doJSON(router, http.MethodGet, "/reviews/due", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var due struct {
			Reviews []struct {
				PlanKey      string `json:"plan_key"`
				ReviewNumber int    `json:"review_number"`
			} `json:"reviews"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &due))
		require.Len(t, due.Reviews, 1)
		assert.Equal(t, "bible_lesson_3", due.Reviews[0].PlanKey)
		assert.Equal(t, i+1, due.Reviews[0].ReviewNumber)

		w = doJSON(router, http.MethodPost, "/tracks/bible/lessons/3/review", map[string]any{"score": 0.9})
		require.Equal(t, http.StatusOK, w.Code)

		var advanced struct {
			Outcome      string `json:"outcome"`
			MasteryLevel int    `json:"mastery_level"`
			MasteryLabel string `json:"mastery_label"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &advanced))
		assert.Equal(t, "advanced", advanced.Outcome)
		assert.Equal(t, i+1, advanced.MasteryLevel)
		assert.Equal(t, labels[i], advanced.MasteryLabel)

		w = doJSON(router, http.MethodPost, "/reviews/sessions", map[string]any{
			"correct": 9, "total": 10, "xp_per_correct": 2,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Mastered plans never come due again.
	clk.Add(30 * 24 * time.Hour)
	w = doJSON(router, http.MethodGet, "/reviews/due", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reviews": []}`, w.Body.String())

	// Completing a mastered lesson's review is a no-op, not an error.
	w = doJSON(router, http.MethodPost, "/tracks/bible/lessons/3/review", map[string]any{"score": 1.0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"already_mastered"`)

	w = doJSON(router, http.MethodPost, "/daily/complete", map[string]any{"xp": 15})
	require.Equal(t, http.StatusOK, w.Code)
	clk.Add(24 * time.Hour)
	w = doJSON(router, http.MethodPost, "/daily/complete", map[string]any{"xp": 15})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outcome": "recorded", "streak": 2}`, w.Body.String())

	w = doJSON(router, http.MethodGet, "/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var p progress.UserProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))

	// 50 lesson + 4×18 review sessions + 2×15 daily.
	assert.Equal(t, int64(152), p.TotalXP)
	assert.Equal(t, []int{3}, p.Courses["bible"].CompletedLessons)
	assert.Equal(t, int64(50), p.Courses["bible"].TotalXP)
	assert.Equal(t, int64(4), p.ReviewStats.TotalSessions)
	assert.Equal(t, int64(72), p.ReviewStats.TotalXP)
	assert.Len(t, p.ReviewStats.Sessions, 4)
	assert.Equal(t, 2, p.DailyChallenge.Streak)
	assert.Equal(t, int64(30), p.DailyChallenge.TotalXP)
	assert.Equal(t, 2, p.DailyChallenge.TotalCompleted)
}
