package restone

import (
	"context"
	"net/http"
)

// Identity is the principal an authentication strategy resolved for a request. Absence
// of an identity on the request context means the request is anonymous.
type Identity struct {
	// Subject uniquely identifies the principal, e.g. a user id or token issuer.
	Subject string

	// Anonymous is set when the identity was attached without any credential check.
	Anonymous bool
}

// ctxKey type scopes context values owned by this package.
type ctxKey int

const ctxKeyIdentity ctxKey = iota

// WithIdentity returns a context carrying the resolved identity. Transport middleware
// that authenticates upstream (sessions, gateways) attaches identities this way for the
// [Session] strategy to find.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFrom returns the identity attached to the context, nil when the request is
// anonymous.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKeyIdentity).(*Identity)
	return id
}

// Strategy decides whether a request is authenticated. Implementations return the
// request, possibly re-derived to carry a resolved [Identity] in its context, and true
// when the request authenticated. They never error: any failure mode is simply false,
// the selector then tries the next binding.
type Strategy interface {
	Authenticate(r *http.Request) (*http.Request, bool)
}

// Anonymous authenticates every request and attaches an anonymous identity.
type Anonymous struct{}

func (Anonymous) Authenticate(r *http.Request) (*http.Request, bool) {
	ctx := WithIdentity(r.Context(), &Identity{Subject: "anonymous", Anonymous: true})
	return r.WithContext(ctx), true
}

// Session trusts an identity already attached to the request context by upstream
// middleware. It performs no cryptography itself.
type Session struct{}

func (Session) Authenticate(r *http.Request) (*http.Request, bool) {
	id := IdentityFrom(r.Context())
	if id == nil || id.Anonymous {
		return r, false
	}

	return r, true
}
