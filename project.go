package restone

import (
	"github.com/samber/lo"
)

// Template is the allow-list describing an endpoint's output representation: the field
// names that may appear, plus sub-templates for related objects nested under a field.
// Templates are built once at registration time and never mutated afterwards; request
// level field selection always operates on a request-scoped copy of the field list.
type Template struct {
	Fields  []string
	Related map[string]*Template
}

// Project applies the template to a payload, optionally narrowed by the request's
// repeated "field" parameters. The projected fields are the intersection of the request
// selection and the declared fields, so requesting an undeclared field silently yields
// fewer fields rather than an error. Projection recurses into related templates and is
// idempotent. A nil template passes the payload through unchanged.
func (t *Template) Project(v any, requested []string) any {
	if t == nil {
		return v
	}

	fields := t.Fields
	explicit := len(fields) > 0
	if len(requested) > 0 {
		fields = lo.Filter(fields, func(f string, _ int) bool {
			return lo.Contains(requested, f)
		})
		explicit = true
	}

	return t.project(v, fields, explicit)
}

func (t *Template) project(v any, fields []string, explicit bool) any {
	switch val := v.(type) {
	case Resource:
		return t.projectOne(val, fields, explicit)
	case []Resource:
		out := make([]Resource, len(val))
		for i, r := range val {
			out[i] = t.projectOne(r, fields, explicit)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = t.project(el, fields, explicit)
		}

		return out
	default:
		return v
	}
}

// projectOne filters one resource. A template that declares no fields of its own (e.g.
// one that only carries related templates) admits every field.
func (t *Template) projectOne(r Resource, fields []string, explicit bool) Resource {
	if !explicit {
		fields = lo.Keys(r)
	}

	out := make(Resource, len(fields))
	for _, f := range fields {
		val, ok := r[f]
		if !ok {
			continue
		}

		if sub, ok := t.Related[f]; ok {
			val = sub.Project(val, nil)
		}

		out[f] = val
	}

	return out
}
