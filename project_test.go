package restone_test

import (
	"testing"

	"github.com/advdv/restone"
	"github.com/stretchr/testify/assert"
)

func TestProject(t *testing.T) {
	tmpl := &restone.Template{
		Fields: []string{"id", "name", "owner"},
		Related: map[string]*restone.Template{
			"owner": {Fields: []string{"id"}},
		},
	}

	res := restone.Resource{
		"id":     1,
		"name":   "foo",
		"secret": "hidden",
		"owner":  map[string]any{"id": 7, "email": "x@y"},
	}

	t.Run("nil template passes through", func(t *testing.T) {
		var nilTmpl *restone.Template
		assert.Equal(t, res, nilTmpl.Project(res, nil))
	})

	t.Run("declared fields only", func(t *testing.T) {
		out := tmpl.Project(res, nil).(restone.Resource)
		assert.NotContains(t, out, "secret")
		assert.Contains(t, out, "name")
	})

	t.Run("related templates recurse", func(t *testing.T) {
		out := tmpl.Project(res, nil).(restone.Resource)
		owner := out["owner"].(restone.Resource)
		assert.Equal(t, restone.Resource{"id": 7}, owner)
	})

	t.Run("request narrows to the intersection", func(t *testing.T) {
		out := tmpl.Project(res, []string{"name", "secret"}).(restone.Resource)
		assert.Equal(t, restone.Resource{"name": "foo"}, out)
	})

	t.Run("empty intersection yields an empty resource", func(t *testing.T) {
		out := tmpl.Project(res, []string{"secret"}).(restone.Resource)
		assert.Empty(t, out)
	})

	t.Run("lists project per element", func(t *testing.T) {
		out := tmpl.Project([]restone.Resource{res, res}, []string{"id"}).([]restone.Resource)
		assert.Len(t, out, 2)
		assert.Equal(t, restone.Resource{"id": 1}, out[0])
	})

	t.Run("projection is idempotent", func(t *testing.T) {
		once := tmpl.Project(res, []string{"name"})
		twice := tmpl.Project(once, []string{"name"})
		assert.Equal(t, once, twice)
	})

	t.Run("missing fields are skipped", func(t *testing.T) {
		out := tmpl.Project(restone.Resource{"id": 1}, nil).(restone.Resource)
		assert.Equal(t, restone.Resource{"id": 1}, out)
	})

	t.Run("scalar payloads pass through", func(t *testing.T) {
		assert.Equal(t, "plain", tmpl.Project("plain", nil))
	})
}
