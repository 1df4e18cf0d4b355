package restone

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Default query parameter names for the signed-URL strategy. Deployments that need
// different names configure them on the [URLSigner].
const (
	DefaultSignatureParam = "s"
	DefaultMaxAgeParam    = "m"
)

// URLSigner signs outbound URLs and verifies inbound ones. The signature is an
// HMAC-SHA256 over the canonical string
//
//	"<METHOD>-<path>?<other-params-sorted-by-key>"
//
// prefixed with the signing timestamp, so any tampering with the method, the path, any
// non-signature parameter (the max-age parameter included) or the timestamp itself
// invalidates it.
type URLSigner struct {
	secret    []byte
	sigParam  string
	maxAgeKey string
	now       func() time.Time
}

// SignerOption configures a [URLSigner].
type SignerOption func(*URLSigner)

// WithSignatureParam overrides the query parameter carrying the signature.
func WithSignatureParam(name string) SignerOption {
	return func(s *URLSigner) { s.sigParam = name }
}

// WithMaxAgeParam overrides the query parameter carrying the max age in seconds.
func WithMaxAgeParam(name string) SignerOption {
	return func(s *URLSigner) { s.maxAgeKey = name }
}

// withClock fixes the signer's clock, tests use it to travel past expiry.
func withClock(now func() time.Time) SignerOption {
	return func(s *URLSigner) { s.now = now }
}

// NewURLSigner inits a signer with the given shared secret.
func NewURLSigner(secret []byte, opts ...SignerOption) *URLSigner {
	s := &URLSigner{
		secret:    secret,
		sigParam:  DefaultSignatureParam,
		maxAgeKey: DefaultMaxAgeParam,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Sign returns a copy of 'params' with the max-age and signature parameters injected,
// valid for requests of 'method' against 'path' for 'maxAge' from now. Given the same
// inputs and clock the result is deterministic.
func (s *URLSigner) Sign(method, path string, params url.Values, maxAge time.Duration) url.Values {
	signed := url.Values{}
	for key, vals := range params {
		signed[key] = append([]string(nil), vals...)
	}

	signed.Set(s.maxAgeKey, strconv.Itoa(int(maxAge/time.Second)))

	ts := s.now().Unix()
	signed.Set(s.sigParam, s.signature(canonicalString(method, path, signed, s.sigParam), ts))

	return signed
}

// SignURL signs a complete URL in place and returns it, a convenience over [URLSigner.Sign]
// for URLs produced by [Reverser.Reverse].
func (s *URLSigner) SignURL(method, rawurl string, maxAge time.Duration) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("failed to parse url to sign: %w", err)
	}

	u.RawQuery = s.Sign(method, u.Path, u.Query(), maxAge).Encode()
	return u.String(), nil
}

// Verify reports whether the request carries a valid, unexpired signature. Missing or
// tampered signatures, tampered parameters, a tampered or non-numeric max age and plain
// expiry all verify false; none of them are errors.
func (s *URLSigner) Verify(r *http.Request) bool {
	params := r.URL.Query()

	sig := params.Get(s.sigParam)
	if sig == "" {
		return false
	}

	maxAge, err := strconv.Atoi(params.Get(s.maxAgeKey))
	if err != nil || maxAge < 0 {
		return false
	}

	dot := strings.IndexByte(sig, '.')
	if dot <= 0 {
		return false
	}

	ts, err := strconv.ParseInt(sig[:dot], 10, 64)
	if err != nil {
		return false
	}

	expect := s.signature(canonicalString(r.Method, r.URL.Path, params, s.sigParam), ts)
	if !hmac.Equal([]byte(sig), []byte(expect)) {
		return false
	}

	return s.now().Sub(time.Unix(ts, 0)) <= time.Duration(maxAge)*time.Second
}

// signature produces "<ts>.<hex hmac>" over the canonical string bound to 'ts'.
func (s *URLSigner) signature(canonical string, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s.%d", canonical, ts)

	return fmt.Sprintf("%d.%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// canonicalString serializes method, path and all parameters except the signature one,
// sorted by key, into the deterministic signing input.
func canonicalString(method, path string, params url.Values, sigParam string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == sigParam {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s-%s?", strings.ToUpper(method), path)

	for i, key := range keys {
		for j, val := range params[key] {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}

			fmt.Fprintf(&b, "%s=%s", url.QueryEscape(key), url.QueryEscape(val))
		}
	}

	return b.String()
}

// SignedURL is the strategy verifying HMAC signed URLs, see [URLSigner].
type SignedURL struct {
	Signer *URLSigner
}

func (s SignedURL) Authenticate(r *http.Request) (*http.Request, bool) {
	if s.Signer == nil || !s.Signer.Verify(r) {
		return r, false
	}

	ctx := WithIdentity(r.Context(), &Identity{Subject: "signed-url", Anonymous: true})
	return r.WithContext(ctx), true
}
