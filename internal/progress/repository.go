package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/spmcmurray/churchexplorer-sub001/common/docstore"
)

const progressCollection = "user_progress"

// Repository persists UserProgress documents. The Apply* methods compile to
// a single atomic document update each: readers see all of an award's
// mutations or none of them.
type Repository interface {
	GetUserProgress(ctx context.Context, learnerID uuid.UUID) (UserProgress, error)

	// GetOrInitUserProgress lazily creates the learner's progress
	// document on first interaction.
	GetOrInitUserProgress(ctx context.Context, learnerID uuid.UUID) (UserProgress, error)

	// InitCourseProgress materializes an empty course entry for the
	// track if one is not present yet.
	InitCourseProgress(ctx context.Context, learnerID uuid.UUID, track string) error

	ApplyLessonCompletion(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, xp int64, completedAt time.Time) error
	AddXP(ctx context.Context, learnerID uuid.UUID, xp int64) error
	AppendReviewSession(ctx context.Context, learnerID uuid.UUID, session ReviewSession) error
	ApplyDailyCompletion(ctx context.Context, learnerID uuid.UUID, date string, streak int, xp int64) error
}

type storeRepository struct {
	store docstore.Store
}

func NewStoreRepository(store docstore.Store) Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) GetUserProgress(ctx context.Context, learnerID uuid.UUID) (UserProgress, error) {
	doc, err := r.store.Get(ctx, progressCollection, learnerID.String())
	if err != nil {
		if errors.Cause(err) == docstore.ErrNotFound {
			return UserProgress{}, errors.Trace(ErrProgressNotFound)
		}

		return UserProgress{}, errors.Wrap(err, ErrStoreUnavailable)
	}

	var p UserProgress
	if err := json.Unmarshal(doc.Data, &p); err != nil {
		return UserProgress{}, errors.Trace(err)
	}

	return p, nil
}

func (r *storeRepository) GetOrInitUserProgress(ctx context.Context, learnerID uuid.UUID) (UserProgress, error) {
	p, err := r.GetUserProgress(ctx, learnerID)
	if err == nil {
		return p, nil
	}

	if errors.Cause(err) != ErrProgressNotFound {
		return UserProgress{}, errors.Trace(err)
	}

	fresh := NewUserProgress(learnerID)

	err = r.store.Create(ctx, progressCollection, learnerID.String(), learnerID.String(), fresh)
	if err == nil {
		return fresh, nil
	}

	// Lost a creation race to another device; the stored document wins.
	if errors.Cause(err) == docstore.ErrAlreadyExists {
		return r.GetUserProgress(ctx, learnerID)
	}

	return UserProgress{}, errors.Wrap(err, ErrStoreUnavailable)
}

func (r *storeRepository) InitCourseProgress(ctx context.Context, learnerID uuid.UUID, track string) error {
	return r.update(ctx, learnerID, []docstore.FieldUpdate{
		docstore.SetField(coursePath(track), NewCourseProgress()),
	})
}

func (r *storeRepository) ApplyLessonCompletion(ctx context.Context, learnerID uuid.UUID, track string, lessonNumber int, xp int64, completedAt time.Time) error {
	return r.update(ctx, learnerID, []docstore.FieldUpdate{
		docstore.ArrayUnion(coursePath(track)+".completed_lessons", lessonNumber),
		docstore.Increment(coursePath(track)+".total_xp", xp),
		docstore.Increment("total_xp", xp),
		docstore.SetField(coursePath(track)+".last_completed_at", completedAt),
	})
}

func (r *storeRepository) AddXP(ctx context.Context, learnerID uuid.UUID, xp int64) error {
	return r.update(ctx, learnerID, []docstore.FieldUpdate{
		docstore.Increment("total_xp", xp),
	})
}

func (r *storeRepository) AppendReviewSession(ctx context.Context, learnerID uuid.UUID, session ReviewSession) error {
	// Two sessions may legitimately carry the same timestamp and counts,
	// so the list append must not deduplicate. Keeps the session list
	// consistent with the incremented counters.
	return r.update(ctx, learnerID, []docstore.FieldUpdate{
		docstore.ArrayAppend("review_stats.sessions", session),
		docstore.Increment("review_stats.total_sessions", 1),
		docstore.Increment("review_stats.total_xp", session.XPEarned),
		docstore.Increment("total_xp", session.XPEarned),
	})
}

func (r *storeRepository) ApplyDailyCompletion(ctx context.Context, learnerID uuid.UUID, date string, streak int, xp int64) error {
	return r.update(ctx, learnerID, []docstore.FieldUpdate{
		docstore.SetField("daily_challenge.streak", streak),
		docstore.SetField("daily_challenge.last_completed_date", date),
		docstore.ArrayUnion("daily_challenge.completed_dates", date),
		docstore.Increment("daily_challenge.total_completed", 1),
		docstore.Increment("daily_challenge.total_xp", xp),
		docstore.Increment("total_xp", xp),
	})
}

func (r *storeRepository) update(ctx context.Context, learnerID uuid.UUID, updates []docstore.FieldUpdate) error {
	err := r.store.Update(ctx, progressCollection, learnerID.String(), updates)
	if err != nil {
		if errors.Cause(err) == docstore.ErrNotFound {
			return errors.Trace(ErrProgressNotFound)
		}

		return errors.Wrap(err, ErrStoreUnavailable)
	}

	return nil
}

func coursePath(track string) string {
	return fmt.Sprintf("courses.%s", track)
}
