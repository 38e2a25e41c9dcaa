package docstore

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Get(ctx context.Context, collection, key string) (Document, error) {
	args := m.Called(ctx, collection, key)

	return args.Get(0).(Document), args.Error(1)
}

func (m *StoreMock) Create(ctx context.Context, collection, key, ownerID string, doc any) error {
	return m.Called(ctx, collection, key, ownerID, doc).Error(0)
}

func (m *StoreMock) Set(ctx context.Context, collection, key, ownerID string, doc any) error {
	return m.Called(ctx, collection, key, ownerID, doc).Error(0)
}

func (m *StoreMock) Update(ctx context.Context, collection, key string, updates []FieldUpdate) error {
	return m.Called(ctx, collection, key, updates).Error(0)
}

func (m *StoreMock) ScanByOwner(ctx context.Context, collection, ownerID string) ([]Document, error) {
	args := m.Called(ctx, collection, ownerID)

	return args.Get(0).([]Document), args.Error(1)
}
