// Package memstore implements an in-memory resource store. It backs tests, examples and
// small deployments that don't need durable storage.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/advdv/restone"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Store holds resources in memory, keyed by the configured key fields. All operations
// are safe for concurrent use. Resources are copied on the way in and out so callers
// can never mutate the store's state through a shared map.
type Store struct {
	mu        sync.RWMutex
	keyFields []string
	items     []restone.Resource
	nextID    int
}

// New inits an empty store addressing resources by the given key fields, "id" when none
// are given.
func New(keyFields ...string) *Store {
	if len(keyFields) == 0 {
		keyFields = []string{"id"}
	}

	return &Store{keyFields: keyFields, nextID: 1}
}

// Seed inserts resources without conflict checking, for test and example setup.
func (s *Store) Seed(items ...restone.Resource) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.items = append(s.items, clone(item))
		s.nextID++
	}

	return s
}

// FetchOne implements [restone.Store].
func (s *Store) FetchOne(_ context.Context, key map[string]any) (restone.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.find(key)
	if err != nil {
		return nil, err
	}

	return clone(s.items[idx]), nil
}

// FetchMany implements [restone.Store].
func (s *Store) FetchMany(context.Context) (restone.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]restone.Resource, len(s.items))
	for i, item := range s.items {
		out[i] = clone(item)
	}

	return restone.Items(out), nil
}

// Create implements [restone.Store]. A resource without its first key field gets an
// auto-incremented integer assigned; one that collides with an existing key conflicts.
func (s *Store) Create(_ context.Context, res restone.Resource) (restone.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res = clone(res)
	if _, ok := res[s.keyFields[0]]; !ok {
		res[s.keyFields[0]] = s.nextID
	}

	if _, err := s.find(keyOf(res, s.keyFields)); err == nil {
		return nil, errors.Wrapf(restone.ErrConflict, "key %v already exists", keyOf(res, s.keyFields))
	}

	s.items = append(s.items, res)
	s.nextID++

	return clone(res), nil
}

// Update implements [restone.Store], replacing the resource addressed by the resource's
// own key fields.
func (s *Store) Update(_ context.Context, res restone.Resource) (restone.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.find(keyOf(res, s.keyFields))
	if err != nil {
		return nil, err
	}

	s.items[idx] = clone(res)

	return clone(res), nil
}

// Delete implements [restone.Store].
func (s *Store) Delete(_ context.Context, key map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.find(key)
	if err != nil {
		return err
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)

	return nil
}

// find returns the index of the resource matching every key field. Key values compare
// by their string form since path parameters always arrive as strings.
func (s *Store) find(key map[string]any) (int, error) {
	if len(key) == 0 {
		return 0, errors.Wrap(restone.ErrBadKey, "empty key")
	}

	for field := range key {
		if !lo.Contains(s.keyFields, field) {
			return 0, errors.Wrapf(restone.ErrBadKey, "%q is not a key field", field)
		}
	}

	for idx, item := range s.items {
		if matches(item, key) {
			return idx, nil
		}
	}

	return 0, errors.Wrapf(restone.ErrNotFound, "no resource for key %v", key)
}

func matches(item restone.Resource, key map[string]any) bool {
	for field, val := range key {
		stored, ok := item[field]
		if !ok || fmt.Sprint(stored) != fmt.Sprint(val) {
			return false
		}
	}

	return true
}

func keyOf(res restone.Resource, keyFields []string) map[string]any {
	key := make(map[string]any, len(keyFields))
	for _, field := range keyFields {
		if val, ok := res[field]; ok {
			key[field] = val
		}
	}

	return key
}

func clone(res restone.Resource) restone.Resource {
	out := make(restone.Resource, len(res))
	for k, v := range res {
		out[k] = v
	}

	return out
}
