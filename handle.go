package restone

import (
	"context"
	"net/http"
)

// ResponseWriter implements the http.ResponseWriter but the underlying bytes are buffered.
// This allows middleware and the error responder to reset the writer and formulate a
// completely new response.
type ResponseWriter interface {
	http.ResponseWriter
	Reset()
	Free()
	FlushBuffer() error
}

// Handler mirrors http.Handler but writes to a buffered response and returns an error.
type Handler interface {
	ServeRestone(ctx context.Context, w ResponseWriter, r *http.Request) error
}

// HandlerFunc allows casting a function to an implementation of [Handler].
type HandlerFunc func(context.Context, ResponseWriter, *http.Request) error

// ServeRestone implements the [Handler] interface.
func (f HandlerFunc) ServeRestone(ctx context.Context, w ResponseWriter, r *http.Request) error {
	return f(ctx, w, r)
}

// BareHandler describes how middleware serves HTTP requests. Middleware and the handler
// selector operate on this signature, before any request context is derived.
type BareHandler interface {
	ServeBareRestone(w ResponseWriter, r *http.Request) error
}

// BareHandlerFunc allows casting a function to an implementation of [BareHandler].
type BareHandlerFunc func(ResponseWriter, *http.Request) error

// ServeBareRestone implements the [BareHandler] interface.
func (f BareHandlerFunc) ServeBareRestone(w ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ToBare converts a handler 'h' into a bare buffered handler, taking the context from
// the request.
func ToBare(h Handler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		return h.ServeRestone(r.Context(), w, r)
	})
}

// ToStd converts a bare handler into a standard library http.Handler. The implementation
// creates a buffered response writer and flushes it implicitly after serving the request.
//
// Errors returned by the handler reset the buffer and are translated by [RespondError]:
// structured pipeline errors become their taxonomy response, anything else is logged and
// becomes a 500 whose body is suppressed unless 'debug' is set.
func ToStd(h BareHandler, bufLimit int, logs Logger, debug bool) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		bresp := NewResponseWriter(resp, bufLimit)
		defer bresp.Free()

		if err := h.ServeBareRestone(bresp, req); err != nil {
			if CodeOf(err) == CodeUnknown {
				logs.LogUnhandledServeError(err)
			}

			if rerr := RespondError(bresp, err, debug); rerr != nil {
				logs.LogUnhandledServeError(rerr)
				bresp.Reset()

				// if all fails we don't want the client to end up with a white screen so
				// we render a 500 error with the standard text.
				http.Error(bresp,
					http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
			}
		}

		if err := bresp.FlushBuffer(); err != nil {
			logs.LogImplicitFlushError(err)
		}
	})
}
