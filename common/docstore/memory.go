package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/juju/errors"
)

type memoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
}

// NewMemoryStore returns an in-memory Store with the same semantics as the
// postgres one. Used by tests and local development.
func NewMemoryStore() Store {
	return &memoryStore{collections: make(map[string]map[string]Document)}
}

func (s *memoryStore) Get(ctx context.Context, collection, key string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return Document{}, errors.Trace(ErrNotFound)
	}

	return doc, nil
}

func (s *memoryStore) Create(ctx context.Context, collection, key, ownerID string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Trace(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][key]; ok {
		return errors.Trace(ErrAlreadyExists)
	}

	s.put(collection, key, Document{Key: key, OwnerID: ownerID, Data: payload})

	return nil
}

func (s *memoryStore) Set(ctx context.Context, collection, key, ownerID string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Trace(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(collection, key, Document{Key: key, OwnerID: ownerID, Data: payload})

	return nil
}

func (s *memoryStore) Update(ctx context.Context, collection, key string, updates []FieldUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return errors.Trace(ErrNotFound)
	}

	var fields map[string]any
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return errors.Trace(err)
	}

	for _, u := range updates {
		if err := applyFieldUpdate(fields, u); err != nil {
			return errors.Trace(err)
		}
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return errors.Trace(err)
	}

	doc.Data = payload
	s.put(collection, key, doc)

	return nil
}

func (s *memoryStore) ScanByOwner(ctx context.Context, collection, ownerID string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Document
	for _, doc := range s.collections[collection] {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out, nil
}

func (s *memoryStore) put(collection, key string, doc Document) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}

	s.collections[collection][key] = doc
}

func applyFieldUpdate(fields map[string]any, u FieldUpdate) error {
	parent, leaf, err := parentOf(fields, u.Path)
	if err != nil {
		return errors.Trace(err)
	}

	switch u.Op {
	case OpSet:
		value, err := normalize(u.Value)
		if err != nil {
			return errors.Trace(err)
		}

		parent[leaf] = value

		return nil

	case OpIncrement:
		delta, ok := u.Value.(int64)
		if !ok {
			return errors.Errorf("docstore: increment value must be int64, got %T", u.Value)
		}

		current, _ := parent[leaf].(float64)
		parent[leaf] = current + float64(delta)

		return nil

	case OpArrayUnion:
		element, err := normalize(u.Value)
		if err != nil {
			return errors.Trace(err)
		}

		current, _ := parent[leaf].([]any)
		for _, existing := range current {
			if jsonEqual(existing, element) {
				return nil
			}
		}

		parent[leaf] = append(current, element)

		return nil

	case OpArrayAppend:
		element, err := normalize(u.Value)
		if err != nil {
			return errors.Trace(err)
		}

		current, _ := parent[leaf].([]any)
		parent[leaf] = append(current, element)

		return nil
	}

	return errors.Errorf("docstore: unknown field op %q", u.Op)
}

// parentOf walks the dot-separated path, creating intermediate objects as
// needed, and returns the map holding the final path element.
func parentOf(fields map[string]any, path string) (map[string]any, string, error) {
	segments := strings.Split(path, ".")
	current := fields

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			if _, exists := current[segment]; exists {
				return nil, "", errors.Errorf("docstore: field %q is not an object", segment)
			}

			next = make(map[string]any)
			current[segment] = next
		}

		current = next
	}

	return current, segments[len(segments)-1], nil
}

// normalize round-trips a value through JSON so stored documents only ever
// contain plain JSON types, matching what Get would return.
func normalize(value any) (any, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, errors.Trace(err)
	}

	return out, nil
}

func jsonEqual(a, b any) bool {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return false
	}

	bJSON, err := json.Marshal(b)
	if err != nil {
		return false
	}

	return bytes.Equal(aJSON, bJSON)
}
