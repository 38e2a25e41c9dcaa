package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/spmcmurray/churchexplorer-sub001/common/cache"
	"github.com/spmcmurray/churchexplorer-sub001/common/docstore"
)

const (
	planCollection      = "review_plans"
	planCacheTTL   uint = 3600
)

type Repository interface {
	GetPlan(ctx context.Context, learnerID uuid.UUID, key string) (Plan, error)
	CreatePlan(ctx context.Context, p Plan) error
	UpdatePlan(ctx context.Context, p Plan) error
	ListPlans(ctx context.Context, learnerID uuid.UUID) ([]Plan, error)
}

type storeRepository struct {
	store docstore.Store
}

func NewStoreRepository(store docstore.Store) Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) GetPlan(ctx context.Context, learnerID uuid.UUID, key string) (Plan, error) {
	doc, err := r.store.Get(ctx, planCollection, planDocKey(learnerID, key))
	if err != nil {
		if errors.Cause(err) == docstore.ErrNotFound {
			return Plan{}, errors.Trace(ErrPlanNotFound)
		}

		return Plan{}, errors.Wrap(err, ErrStoreUnavailable)
	}

	var p Plan
	if err := json.Unmarshal(doc.Data, &p); err != nil {
		return Plan{}, errors.Trace(err)
	}

	return p, nil
}

func (r *storeRepository) CreatePlan(ctx context.Context, p Plan) error {
	err := r.store.Create(ctx, planCollection, planDocKey(p.LearnerID, p.Key), p.LearnerID.String(), p)
	if err != nil {
		if errors.Cause(err) == docstore.ErrAlreadyExists {
			return errors.Trace(ErrPlanAlreadyExists)
		}

		return errors.Wrap(err, ErrStoreUnavailable)
	}

	return nil
}

// UpdatePlan overwrites the whole plan document. The plan is the unit of
// consistency: steps and mastery level are never persisted separately.
func (r *storeRepository) UpdatePlan(ctx context.Context, p Plan) error {
	err := r.store.Set(ctx, planCollection, planDocKey(p.LearnerID, p.Key), p.LearnerID.String(), p)
	if err != nil {
		return errors.Wrap(err, ErrStoreUnavailable)
	}

	return nil
}

func (r *storeRepository) ListPlans(ctx context.Context, learnerID uuid.UUID) ([]Plan, error) {
	docs, err := r.store.ScanByOwner(ctx, planCollection, learnerID.String())
	if err != nil {
		return nil, errors.Wrap(err, ErrStoreUnavailable)
	}

	plans := make([]Plan, 0, len(docs))
	for _, doc := range docs {
		var p Plan
		if err := json.Unmarshal(doc.Data, &p); err != nil {
			return nil, errors.Trace(err)
		}

		plans = append(plans, p)
	}

	return plans, nil
}

func planDocKey(learnerID uuid.UUID, key string) string {
	return fmt.Sprintf("%s/%s", learnerID, key)
}

type cachedRepository struct {
	cache cache.Cache
	repo  Repository
}

// NewCachedRepository wraps a Repository with a cache on single-plan reads.
// Writes go through to the backing repository and refresh the cached entry.
func NewCachedRepository(c cache.Cache, repo Repository) Repository {
	return &cachedRepository{cache: c, repo: repo}
}

func (r *cachedRepository) GetPlan(ctx context.Context, learnerID uuid.UUID, key string) (Plan, error) {
	serialized, err := r.cache.Get(ctx, planCacheKey(learnerID, key))
	if err == nil {
		var p Plan
		if err := json.Unmarshal([]byte(serialized), &p); err == nil {
			return p, nil
		}
	} else if errors.Cause(err) != cache.ErrNoValueForKey {
		return Plan{}, errors.Trace(err)
	}

	p, err := r.repo.GetPlan(ctx, learnerID, key)
	if err != nil {
		return Plan{}, errors.Trace(err)
	}

	return r.doCache(ctx, p)
}

func (r *cachedRepository) CreatePlan(ctx context.Context, p Plan) error {
	if err := r.repo.CreatePlan(ctx, p); err != nil {
		return errors.Trace(err)
	}

	if _, err := r.doCache(ctx, p); err != nil {
		return errors.Trace(err)
	}

	return nil
}

func (r *cachedRepository) UpdatePlan(ctx context.Context, p Plan) error {
	if err := r.repo.UpdatePlan(ctx, p); err != nil {
		return errors.Trace(err)
	}

	if _, err := r.doCache(ctx, p); err != nil {
		return errors.Trace(err)
	}

	return nil
}

func (r *cachedRepository) ListPlans(ctx context.Context, learnerID uuid.UUID) ([]Plan, error) {
	return r.repo.ListPlans(ctx, learnerID)
}

func (r *cachedRepository) doCache(ctx context.Context, p Plan) (Plan, error) {
	serialized, err := json.Marshal(p)
	if err != nil {
		return p, errors.Trace(err)
	}

	if err := r.cache.SetEx(ctx, planCacheKey(p.LearnerID, p.Key), string(serialized), planCacheTTL); err != nil {
		return p, errors.Trace(err)
	}

	return p, nil
}

func planCacheKey(learnerID uuid.UUID, key string) string {
	return fmt.Sprintf("review_plan:%s:%s", learnerID, key)
}
