package docstore

import (
	"context"

	"github.com/juju/errors"
)

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Document is a stored JSON document together with its key and owner.
type Document struct {
	Key     string
	OwnerID string
	Data    []byte
}

type Op string

const (
	// OpSet overwrites a single field.
	OpSet Op = "set"
	// OpIncrement adds a signed delta to a numeric field, treating a
	// missing field as zero.
	OpIncrement Op = "increment"
	// OpArrayUnion appends a value to an array field unless the array
	// already contains it. A missing field is treated as an empty array.
	OpArrayUnion Op = "array_union"
	// OpArrayAppend appends a value to an array field unconditionally,
	// keeping duplicates. A missing field is treated as an empty array.
	OpArrayAppend Op = "array_append"
)

// FieldUpdate describes one mutation of a document field. Path is
// dot-separated ("courses.bible.total_xp").
type FieldUpdate struct {
	Path  string
	Op    Op
	Value any
}

func SetField(path string, value any) FieldUpdate {
	return FieldUpdate{Path: path, Op: OpSet, Value: value}
}

func Increment(path string, delta int64) FieldUpdate {
	return FieldUpdate{Path: path, Op: OpIncrement, Value: delta}
}

func ArrayUnion(path string, value any) FieldUpdate {
	return FieldUpdate{Path: path, Op: OpArrayUnion, Value: value}
}

func ArrayAppend(path string, value any) FieldUpdate {
	return FieldUpdate{Path: path, Op: OpArrayAppend, Value: value}
}

// Store is a keyed JSON document store partitioned into collections.
// All FieldUpdates passed to a single Update call are applied atomically:
// readers observe either none or all of them.
type Store interface {
	// Get returns the document stored under (collection, key), or
	// ErrNotFound.
	Get(ctx context.Context, collection, key string) (Document, error)

	// Create stores a new document, or fails with ErrAlreadyExists if the
	// key is taken.
	Create(ctx context.Context, collection, key, ownerID string, doc any) error

	// Set stores a document, overwriting any previous content.
	Set(ctx context.Context, collection, key, ownerID string, doc any) error

	// Update applies the given field mutations to an existing document.
	// Missing intermediate objects along a path are created. Returns
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, key string, updates []FieldUpdate) error

	// ScanByOwner returns all documents in the collection owned by
	// ownerID, ordered by key.
	ScanByOwner(ctx context.Context, collection, ownerID string) ([]Document, error)
}
