package restone

import (
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// DefaultBearerScheme is the Authorization scheme the bearer strategy expects.
const DefaultBearerScheme = "Bearer"

// PrincipalLookup resolves a token's issuer claim to a principal. Returning false means
// no principal exists for that identifier; the strategy then declines the request
// without erroring.
type PrincipalLookup func(issuer string) (*Identity, bool)

// Bearer authenticates requests carrying an Authorization header of the exact form
// "<scheme> <token>", where the token is an HMAC-signed claims payload with issuer and
// expiry. Missing or malformed headers, a wrong scheme, an invalid signature, an
// expired token, a missing issuer claim and an unknown issuer all decline the request;
// none of them raise.
type Bearer struct {
	secret []byte
	scheme string
	lookup PrincipalLookup
	clock  func() time.Time
}

// BearerOption configures a [Bearer].
type BearerOption func(*Bearer)

// WithScheme overrides the Authorization scheme name.
func WithScheme(scheme string) BearerOption {
	return func(b *Bearer) { b.scheme = scheme }
}

// withBearerClock fixes the validation clock, tests use it to travel past expiry.
func withBearerClock(now func() time.Time) BearerOption {
	return func(b *Bearer) { b.clock = now }
}

// NewBearer inits the strategy with the token signing secret and the principal lookup.
func NewBearer(secret []byte, lookup PrincipalLookup, opts ...BearerOption) *Bearer {
	b := &Bearer{
		secret: secret,
		scheme: DefaultBearerScheme,
		lookup: lookup,
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Mint signs a token for the given issuer, valid for 'ttl'. It is the outbound
// counterpart of [Bearer.Authenticate].
func (b *Bearer) Mint(issuer string, ttl time.Duration) (string, error) {
	now := b.clock()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(b.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

func (b *Bearer) Authenticate(r *http.Request) (*http.Request, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return r, false
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != b.scheme || parts[1] == "" {
		return r, false
	}

	var claims jwtlib.RegisteredClaims
	token, err := jwtlib.ParseWithClaims(parts[1], &claims,
		func(*jwtlib.Token) (any, error) { return b.secret, nil },
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(b.clock),
	)
	if err != nil || !token.Valid {
		return r, false
	}

	if claims.Issuer == "" {
		return r, false
	}

	principal, ok := b.lookup(claims.Issuer)
	if !ok {
		return r, false
	}

	return r.WithContext(WithIdentity(r.Context(), principal)), true
}
