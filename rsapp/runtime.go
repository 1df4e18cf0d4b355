package rsapp

import (
	"context"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt    *rsapp.Runtime[Env]
//	    store *dynamostore.Store
//	}
//
//	func NewHandlers(rt *rsapp.Runtime[Env], store *dynamostore.Store) *Handlers {
//	    return &Handlers{rt: rt, store: store}
//	}
//
//	func (h *Handlers) GetReport(ctx context.Context, w restone.ResponseWriter, r *http.Request) error {
//	    env := h.rt.Env()
//	    url, _ := h.rt.Reverse("get-report", id)
//	    // ...
//	}
type Runtime[E Environment] struct {
	env          E
	mux          *Mux
	secretReader SecretReader
	transport    http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	SecretReader SecretReader
	Transport    http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, mux *Mux, params RuntimeParams) *Runtime[E] {
	return &Runtime[E]{
		env:          env,
		mux:          mux,
		secretReader: params.SecretReader,
		transport:    params.Transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the URL for a named route with the given parameters.
// The route must have been registered with a name using Handle/HandleFunc.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.mux.Reverse(name, params...)
}

// Secret retrieves a secret value from AWS Secrets Manager.
//
// The secretID is the secret name or ARN to read from (required).
// If jsonPath is provided, the secret is parsed as JSON and the path is extracted
// using gjson syntax (e.g., "database.password", "api.keys.0").
// If jsonPath is omitted, the raw secret string is returned.
//
// Secrets are cached but fetched per-request to support rotation without redeployment.
//
// Example:
//
//	// Raw string secret, e.g. the shared key for a bearer or signed-URL strategy
//	signingKey, err := h.rt.Secret(ctx, "url-signing-key")
//
//	// JSON secret with path extraction
//	password, err := h.rt.Secret(ctx, "my-db-credentials", "password")
func (r *Runtime[E]) Secret(ctx context.Context, secretID string, jsonPath ...string) (string, error) {
	if r.secretReader == nil {
		return "", errors.New("rsapp: secret reader not configured")
	}
	return secretFromReader(ctx, r.secretReader, secretID, jsonPath...)
}

// NewRequest returns a fresh [requests.Builder] with the instrumented transport
// pre-wired, for fluent outbound HTTP calls.
func (r *Runtime[E]) NewRequest() *requests.Builder {
	return newRequestBuilder(r.transport)
}
