// Package restone turns declarative endpoint configuration into HTTP handlers that
// expose resources over a uniform request pipeline.
//
// # Overview
//
// Every request to an [Endpoint] moves through the same fixed sequence of stages:
//
//	auth hook → method check → decode → cleanse → validate → action →
//	paginate → project → finalize side effect → package → encode
//
// The first stage to produce a structured error short-circuits the rest, and a single
// responder renders that error. Handlers are built on buffered response writers, so a
// half-written success body can always be discarded and replaced by the error
// rendering.
//
// A minimal endpoint:
//
//	ep := restone.MustNew(restone.Config{
//	    Methods:   []string{"GET", "POST"},
//	    KeyFields: []string{"id"},
//	    Store:     store,
//	})
//
//	mux := restone.NewServeMux()
//	mux.HandleBare("GET /items/{id}", ep, "get-item")
//	mux.HandleBare("GET /items", ep, "list-items")
//	mux.HandleBare("POST /items", ep, "create-item")
//
// # Handler Signature
//
// Handlers differ from standard http.Handlers in two ways: they write to a
// [ResponseWriter] that buffers output, and they return an error that triggers
// automatic response handling:
//
//	func(ctx context.Context, w restone.ResponseWriter, r *http.Request) error
//
// When a handler returns an error the buffer is reset and [RespondError] renders the
// error instead. [*Error] values carry one of the closed set of [Code] constants plus
// an optional per-field payload; anything else becomes a 500 whose detail is only
// rendered in debug mode.
//
// # Authentication
//
// A [Strategy] decides whether a request may proceed and can enrich it with an
// [Identity]. [Selector] pairs strategies with handlers and serves the first pair whose
// strategy accepts the request, falling back to 403. Built-in strategies cover
// anonymous access, session identities established upstream, HMAC [SignedURL] links
// minted by [URLSigner], and [Bearer] tokens.
//
// # Collections
//
// Collection results implement [Set] and flow through declared [Filter] values, the
// ordering selected by the "order" parameter, and pagination driven by "page"/"ipp".
// Pagination degrades gracefully: malformed paging parameters return the collection
// unpaginated rather than failing the request.
//
// # Representation
//
// A [Template] declares which fields (and nested related objects) responses expose;
// repeated "field" parameters narrow the output further. Encoded bodies are negotiated
// through a codec [Registry] keyed by media type, JSON by default.
//
// # Middleware, Routing and Reversing
//
// [ServeMux] registers handlers under method-qualified patterns, applies [Middleware]
// registered with Use, and reverses named routes back into URLs:
//
//	mux.Use(traceMiddleware)
//	url, err := mux.Reverse("get-item", "123") // "/items/123"
//
// Reversed URLs can be handed to a [URLSigner] to produce expiring signed links.
package restone
