package restone_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/advdv/restone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenItems() []restone.Resource {
	items := make([]restone.Resource, 0, 10)
	for i := 1; i <= 10; i++ {
		items = append(items, restone.Resource{"id": i})
	}

	return items
}

func TestSetOperations(t *testing.T) {
	set := restone.Items(tenItems())

	t.Run("filter", func(t *testing.T) {
		even := set.Filter(func(r restone.Resource) bool { return r["id"].(int)%2 == 0 })
		assert.Equal(t, 5, even.Count())
	})

	t.Run("order", func(t *testing.T) {
		desc := set.OrderBy(func(a, b restone.Resource) bool { return a["id"].(int) > b["id"].(int) })
		assert.Equal(t, 10, desc.Items()[0]["id"])
		assert.Equal(t, 1, set.Items()[0]["id"], "ordering must not mutate the source")
	})

	t.Run("slice", func(t *testing.T) {
		assert.Equal(t, 3, restone.Items(tenItems()).Slice(2, 3).Count())
		assert.Equal(t, 0, restone.Items(tenItems()).Slice(50, 3).Count())
		assert.Equal(t, 2, restone.Items(tenItems()).Slice(8, 5).Count())
	})
}

func TestParamFilter(t *testing.T) {
	filter := restone.ParamFilter("min_id", "min_id", func(val string, r restone.Resource) bool {
		return r["id"].(int) >= 5
	})

	t.Run("absent parameter is a no-op", func(t *testing.T) {
		out := filter.Apply(url.Values{}, restone.Items(tenItems()))
		assert.Equal(t, 10, out.Count())
	})

	t.Run("present parameter narrows", func(t *testing.T) {
		out := filter.Apply(url.Values{"min_id": {"5"}}, restone.Items(tenItems()))
		assert.Equal(t, 6, out.Count())
	})
}

func TestEndpointOrdering(t *testing.T) {
	ep, err := restone.New(restone.Config{
		Methods: []string{"GET"},
		Store:   newFakeStore(tenItems()),
		Orders: map[string]restone.LessFunc{
			"newest": func(a, b restone.Resource) bool { return a["id"].(int) > b["id"].(int) },
		},
	})
	require.NoError(t, err)

	t.Run("selected order applies", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?order=newest", "")
		items := env.Data.([]any)
		assert.EqualValues(t, 10, items[0].(map[string]any)["id"])
	})

	t.Run("unknown order is a no-op", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?order=bogus", "")
		items := env.Data.([]any)
		assert.EqualValues(t, 1, items[0].(map[string]any)["id"])
	})
}

func TestEndpointPagination(t *testing.T) {
	store := newFakeStore(tenItems())
	ep, err := restone.New(restone.Config{
		Methods:         []string{"GET"},
		Store:           store,
		DefaultPageSize: 4,
		CountTotals:     true,
	})
	require.NoError(t, err)

	t.Run("no page parameter means no pagination", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items", "")
		require.Nil(t, env.Pagination)
		assert.Equal(t, 10, env.Count)
	})

	t.Run("page slices with default ipp", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?page=2", "")
		require.NotNil(t, env.Pagination)
		assert.Equal(t, 2, env.Pagination.Page)
		assert.Equal(t, 4, env.Pagination.ItemsPerPage)
		assert.Equal(t, 4, env.Count)
		require.NotNil(t, env.Pagination.TotalItems)
		assert.Equal(t, 10, *env.Pagination.TotalItems)
		require.NotNil(t, env.Pagination.TotalPages)
		assert.Equal(t, 3, *env.Pagination.TotalPages)
	})

	t.Run("explicit ipp", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?page=1&ipp=3", "")
		assert.Equal(t, 3, env.Count)
	})

	t.Run("malformed page degrades to unpaginated", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?page=banana", "")
		assert.Nil(t, env.Pagination)
		assert.Equal(t, 10, env.Count)
	})

	t.Run("out of range page degrades to unpaginated", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?page=99", "")
		assert.Nil(t, env.Pagination)
		assert.Equal(t, 10, env.Count)
	})

	t.Run("malformed ipp falls back to the default", func(t *testing.T) {
		env := serveEnvelope(t, ep, http.MethodGet, "/items?page=1&ipp=banana", "")
		require.NotNil(t, env.Pagination)
		assert.Equal(t, 4, env.Pagination.ItemsPerPage)
		assert.Equal(t, 4, env.Count)
	})
}

// countingSet records how often the full collection gets counted.
type countingSet struct {
	restone.Set
	counts *int
}

func (c countingSet) Count() int {
	*c.counts++
	return c.Set.Count()
}

func TestPaginationCountsOnlyForTotals(t *testing.T) {
	newEndpoint := func(counts *int, countTotals bool) *restone.Endpoint {
		return restone.MustNew(restone.Config{
			Methods:         []string{"GET"},
			DefaultPageSize: 4,
			CountTotals:     countTotals,
			Get: func(context.Context, *http.Request) (any, error) {
				return countingSet{restone.Items(tenItems()), counts}, nil
			},
		})
	}

	t.Run("no totals means no counting", func(t *testing.T) {
		var counts int
		env := serveEnvelope(t, newEndpoint(&counts, false), http.MethodGet, "/items?page=1&ipp=1", "")
		require.NotNil(t, env.Pagination)
		assert.Equal(t, 1, env.Count)
		assert.Nil(t, env.Pagination.TotalItems)
		assert.Equal(t, 0, counts)
	})

	t.Run("out of range detection counts the window, not the set", func(t *testing.T) {
		var counts int
		env := serveEnvelope(t, newEndpoint(&counts, false), http.MethodGet, "/items?page=99", "")
		assert.Nil(t, env.Pagination)
		assert.Equal(t, 10, env.Count)
		assert.Equal(t, 0, counts)
	})

	t.Run("totals count exactly once", func(t *testing.T) {
		var counts int
		env := serveEnvelope(t, newEndpoint(&counts, true), http.MethodGet, "/items?page=2", "")
		require.NotNil(t, env.Pagination)
		require.NotNil(t, env.Pagination.TotalItems)
		assert.Equal(t, 10, *env.Pagination.TotalItems)
		assert.Equal(t, 1, counts)
	})
}
