package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The memory store stands in for postgres throughout the service tests, so
// both implementations must agree on Update semantics. Each case below runs
// against both; the postgres leg skips unless the integration database is
// configured.
func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})

	t.Run("postgres", func(t *testing.T) {
		h := newTestHarness(t)
		fn(t, NewPGStore(h.db))
	})
}

func TestStoreContract_UpdateCreatesMissingIntermediates(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "user_progress", "learner-1", "learner-1", map[string]any{"total_xp": 0}))

		err := store.Update(ctx, "user_progress", "learner-1", []FieldUpdate{
			SetField("courses.bible.total_xp", 50),
			ArrayUnion("courses.bible.completed_lessons", 3),
			Increment("daily_challenge.total_completed", 1),
			Increment("total_xp", 50),
		})
		assert.NoError(t, err)

		doc, err := store.Get(ctx, "user_progress", "learner-1")
		assert.NoError(t, err)
		assert.JSONEq(t, `{
			"total_xp": 50,
			"courses": {"bible": {"total_xp": 50, "completed_lessons": [3]}},
			"daily_challenge": {"total_completed": 1}
		}`, string(doc.Data))
	})
}

func TestStoreContract_ArrayUnionDeduplicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "user_progress", "learner-1", "learner-1", map[string]any{}))

		for i := 0; i < 2; i++ {
			assert.NoError(t, store.Update(ctx, "user_progress", "learner-1", []FieldUpdate{
				ArrayUnion("completed_lessons", 3),
			}))
		}

		doc, err := store.Get(ctx, "user_progress", "learner-1")
		assert.NoError(t, err)
		assert.JSONEq(t, `{"completed_lessons": [3]}`, string(doc.Data))
	})
}

func TestStoreContract_ArrayAppendKeepsDuplicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "user_progress", "learner-1", "learner-1", map[string]any{}))

		session := map[string]any{"completed_at": "2024-03-01T10:00:00Z", "xp_earned": 10}
		for i := 0; i < 2; i++ {
			assert.NoError(t, store.Update(ctx, "user_progress", "learner-1", []FieldUpdate{
				ArrayAppend("review_stats.sessions", session),
				Increment("review_stats.total_sessions", 1),
			}))
		}

		doc, err := store.Get(ctx, "user_progress", "learner-1")
		assert.NoError(t, err)
		assert.JSONEq(t, `{
			"review_stats": {
				"sessions": [
					{"completed_at": "2024-03-01T10:00:00Z", "xp_earned": 10},
					{"completed_at": "2024-03-01T10:00:00Z", "xp_earned": 10}
				],
				"total_sessions": 2
			}
		}`, string(doc.Data))
	})
}
