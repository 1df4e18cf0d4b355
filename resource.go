package restone

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// Resource is one domain entity as the pipeline sees it: a bag of named fields.
type Resource = map[string]any

// Set is an ordered collection of resources that can be narrowed, ordered and sliced.
// Implementations may evaluate lazily; the pipeline only materializes via Items at the
// projection stage.
type Set interface {
	// Filter returns the subset for which 'keep' holds, preserving order.
	Filter(keep func(Resource) bool) Set

	// OrderBy returns the set ordered by 'less'. It applies once, after filtering.
	OrderBy(less func(a, b Resource) bool) Set

	// Slice returns the window [offset, offset+limit).
	Slice(offset, limit int) Set

	// Count returns the number of resources in the set.
	Count() int

	// Items materializes the set.
	Items() []Resource
}

// Store is the resource store adapter the pipeline operates through. Implementations
// report missing resources and malformed or type-mismatched keys with the sentinel
// errors below so the pipeline can translate them into its error taxonomy; they must
// never be surfaced raw to a client.
type Store interface {
	// FetchOne returns the single resource matching the key fields.
	FetchOne(ctx context.Context, key map[string]any) (Resource, error)

	// FetchMany returns the store's full working set.
	FetchMany(ctx context.Context) (Set, error)

	// Create persists a new resource and returns it as stored.
	Create(ctx context.Context, res Resource) (Resource, error)

	// Update persists the given resource and returns it as stored.
	Update(ctx context.Context, res Resource) (Resource, error)

	// Delete removes the resource matching the key fields.
	Delete(ctx context.Context, key map[string]any) error
}

// Sentinel conditions a [Store] reports.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
	ErrBadKey   = errors.New("malformed or mistyped key")
)

// Items wraps a materialized slice of resources as a [Set].
func Items(rs []Resource) Set {
	return itemSet(rs)
}

type itemSet []Resource

func (s itemSet) Filter(keep func(Resource) bool) Set {
	out := make(itemSet, 0, len(s))
	for _, r := range s {
		if keep(r) {
			out = append(out, r)
		}
	}

	return out
}

func (s itemSet) OrderBy(less func(a, b Resource) bool) Set {
	out := make(itemSet, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out
}

func (s itemSet) Slice(offset, limit int) Set {
	if offset < 0 || offset >= len(s) {
		return itemSet{}
	}

	end := offset + limit
	if limit < 0 || end > len(s) {
		end = len(s)
	}

	return s[offset:end]
}

func (s itemSet) Count() int { return len(s) }

func (s itemSet) Items() []Resource { return s }

// meteredStore wraps a store and counts calls and time spent in it. The pipeline wraps
// its store with one per request when debug mode is on, and reports the totals in the
// response envelope's debug section.
type meteredStore struct {
	inner Store
	calls int
	spent time.Duration
}

func (m *meteredStore) observe(start time.Time) {
	m.calls++
	m.spent += time.Since(start)
}

func (m *meteredStore) FetchOne(ctx context.Context, key map[string]any) (Resource, error) {
	defer m.observe(time.Now())
	return m.inner.FetchOne(ctx, key)
}

func (m *meteredStore) FetchMany(ctx context.Context) (Set, error) {
	defer m.observe(time.Now())
	return m.inner.FetchMany(ctx)
}

func (m *meteredStore) Create(ctx context.Context, res Resource) (Resource, error) {
	defer m.observe(time.Now())
	return m.inner.Create(ctx, res)
}

func (m *meteredStore) Update(ctx context.Context, res Resource) (Resource, error) {
	defer m.observe(time.Now())
	return m.inner.Update(ctx, res)
}

func (m *meteredStore) Delete(ctx context.Context, key map[string]any) error {
	defer m.observe(time.Now())
	return m.inner.Delete(ctx, key)
}
