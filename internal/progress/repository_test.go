package progress

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spmcmurray/churchexplorer-sub001/common/docstore"
)

func TestStoreRepository_GetUserProgressNotFound(t *testing.T) {
	repo := NewStoreRepository(docstore.NewMemoryStore())

	_, err := repo.GetUserProgress(context.Background(), uuid.New())
	assert.Equal(t, ErrProgressNotFound, errors.Cause(err))
}

func TestStoreRepository_GetOrInitCreatesLazily(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("4e37a600-c29e-4d0f-af44-66f2cd8cc1c9")

	repo := NewStoreRepository(docstore.NewMemoryStore())

	p, err := repo.GetOrInitUserProgress(ctx, learnerID)
	assert.NoError(t, err)
	assert.Equal(t, learnerID, p.LearnerID)
	assert.EqualValues(t, 0, p.TotalXP)

	// The document now exists for plain reads.
	stored, err := repo.GetUserProgress(ctx, learnerID)
	assert.NoError(t, err)
	assert.Equal(t, learnerID, stored.LearnerID)
}

func TestStoreRepository_GetOrInitLosesCreationRace(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("4e37a600-c29e-4d0f-af44-66f2cd8cc1c9")

	existing := NewUserProgress(learnerID)
	existing.TotalXP = 120
	payload, err := json.Marshal(existing)
	require.NoError(t, err)

	// Another device creates the document between our read and create;
	// the stored document must win.
	mockStore := new(docstore.StoreMock)
	mockStore.On("Get", ctx, "user_progress", learnerID.String()).Return(docstore.Document{}, docstore.ErrNotFound).Once()
	mockStore.On("Create", ctx, "user_progress", learnerID.String(), learnerID.String(), NewUserProgress(learnerID)).Return(docstore.ErrAlreadyExists)
	mockStore.On("Get", ctx, "user_progress", learnerID.String()).Return(docstore.Document{
		Key:     learnerID.String(),
		OwnerID: learnerID.String(),
		Data:    payload,
	}, nil)

	p, err := NewStoreRepository(mockStore).GetOrInitUserProgress(ctx, learnerID)
	assert.NoError(t, err)
	assert.EqualValues(t, 120, p.TotalXP)
	mockStore.AssertExpectations(t)
}

func TestStoreRepository_UpdateOnMissingDocument(t *testing.T) {
	repo := NewStoreRepository(docstore.NewMemoryStore())

	err := repo.AddXP(context.Background(), uuid.New(), 10)
	assert.Equal(t, ErrProgressNotFound, errors.Cause(err))
}

func TestStoreRepository_StoreFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	learnerID := uuid.MustParse("4e37a600-c29e-4d0f-af44-66f2cd8cc1c9")

	mockStore := new(docstore.StoreMock)
	mockStore.On("Get", ctx, "user_progress", learnerID.String()).Return(docstore.Document{}, errors.New("connection refused"))

	_, err := NewStoreRepository(mockStore).GetUserProgress(ctx, learnerID)
	assert.Equal(t, ErrStoreUnavailable, errors.Cause(err))
}
