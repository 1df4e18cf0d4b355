package restone

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Binding pairs one authentication strategy with the handler that serves requests the
// strategy accepts.
type Binding struct {
	Strategy Strategy
	Handler  BareHandler
}

// Bind is a convenience constructor for a [Binding].
func Bind(s Strategy, h BareHandler) Binding {
	return Binding{Strategy: s, Handler: h}
}

// Selector dispatches a request to the first binding whose strategy authenticates it.
// Order is caller-controlled and matters: an [Anonymous] fallback binding, for example,
// accepts everything and therefore belongs last. When no strategy accepts the request
// the selector responds 403 Forbidden without invoking any handler logic.
type Selector struct {
	bindings []Binding
}

// NewSelector inits a selector over the given bindings, tried in order.
func NewSelector(bindings ...Binding) *Selector {
	return &Selector{bindings: bindings}
}

// ServeBareRestone implements [BareHandler] so selectors can be mounted on a [ServeMux]
// directly.
func (s *Selector) ServeBareRestone(w ResponseWriter, r *http.Request) error {
	for _, b := range s.bindings {
		if r2, ok := b.Strategy.Authenticate(r); ok {
			return b.Handler.ServeBareRestone(w, r2)
		}
	}

	return NewError(CodeForbidden, errors.New("no handler authenticated the request"))
}
