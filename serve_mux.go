package restone

import (
	"context"
	"net/http"
)

// ServeMux is an HTTP multiplexer with buffered responses, error handling, and named
// routes. It is the transport boundary the handler selector and endpoints mount on.
type ServeMux struct {
	logs        Logger
	bufLimit    int
	debug       bool
	reverser    *Reverser
	mux         *http.ServeMux
	middlewares struct {
		captured bool
		buffered []Middleware
	}
}

// NewServeMux creates a new ServeMux with default settings.
func NewServeMux() *ServeMux {
	return NewServeMuxWith(-1, NewStdLogger(nil), http.NewServeMux(), NewReverser(), false)
}

// NewServeMuxWith creates a ServeMux with custom settings. With 'debug' enabled
// unexpected failures render their message in the 500 response body.
func NewServeMuxWith(bufLimit int, logger Logger, baseMux *http.ServeMux, reverser *Reverser, debug bool) *ServeMux {
	return &ServeMux{
		bufLimit: bufLimit,
		debug:    debug,
		logs:     logger,
		reverser: reverser,
		mux:      baseMux,
	}
}

// Reverse returns the url based on the name and parameter values.
func (m *ServeMux) Reverse(name string, vals ...string) (string, error) {
	return m.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware.
func (m *ServeMux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.middlewares.buffered = append(m.middlewares.buffered, mw...)
}

// HandleFunc handles the request given the pattern using a function.
func (m *ServeMux) HandleFunc(pattern string, handler HandlerFunc, name ...string) {
	m.Handle(pattern, handler, name...)
}

// HandleStd registers a standard library [http.Handler] for the given pattern.
// Middleware registered via [ServeMux.Use] is applied. The standard handler owns its
// error rendering; no error translation takes place.
func (m *ServeMux) HandleStd(pattern string, handler http.Handler, name ...string) {
	m.Handle(pattern, HandlerFunc(func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}), name...)
}

// Handle handles the request given a handler.
func (m *ServeMux) Handle(pattern string, handler Handler, name ...string) {
	m.HandleBare(pattern, ToBare(handler), name...)
}

// HandleBare registers a bare handler, such as a [Selector], for the given pattern.
func (m *ServeMux) HandleBare(pattern string, handler BareHandler, name ...string) {
	m.handle(pattern, ToStd(
		wrapBare(handler, m.middlewares.buffered...),
		m.bufLimit,
		m.logs,
		m.debug,
	), name...)
}

// ServeHTTP makes the serve mux implement the http.Handler interface.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

func (m *ServeMux) handle(pattern string, handler http.Handler, name ...string) {
	m.middlewares.captured = true

	if len(name) > 0 {
		pattern = m.reverser.Named(name[0], pattern)
	}

	m.mux.Handle(pattern, handler)
}

func (m *ServeMux) ensureNoUseAfterHandle() {
	if m.middlewares.captured {
		panic("restone: cannot call Use() after calling Handle")
	}
}
