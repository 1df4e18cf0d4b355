package restone

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedReq(method, path string, params url.Values) *http.Request {
	return httptest.NewRequest(method, path+"?"+params.Encode(), nil)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewURLSigner([]byte("secret1"))

	params := signer.Sign(http.MethodGet, "/reports/1", url.Values{"field": {"name"}}, time.Hour)
	require.NotEmpty(t, params.Get(DefaultSignatureParam))
	require.Equal(t, "3600", params.Get(DefaultMaxAgeParam))

	assert.True(t, signer.Verify(signedReq(http.MethodGet, "/reports/1", params)))
}

func TestSignURLRoundTrip(t *testing.T) {
	signer := NewURLSigner([]byte("secret1"))

	loc, err := signer.SignURL(http.MethodGet, "/reports/1?field=name", time.Hour)
	require.NoError(t, err)

	assert.True(t, signer.Verify(httptest.NewRequest(http.MethodGet, loc, nil)))
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := NewURLSigner([]byte("secret1"))
	params := signer.Sign(http.MethodGet, "/reports/1", url.Values{"field": {"name"}}, time.Hour)

	t.Run("no signature", func(t *testing.T) {
		assert.False(t, signer.Verify(signedReq(http.MethodGet, "/reports/1", url.Values{})))
	})

	t.Run("tampered parameter", func(t *testing.T) {
		tampered := url.Values{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered.Set("field", "secret_field")

		assert.False(t, signer.Verify(signedReq(http.MethodGet, "/reports/1", tampered)))
	})

	t.Run("tampered max age", func(t *testing.T) {
		tampered := url.Values{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered.Set(DefaultMaxAgeParam, "999999")

		assert.False(t, signer.Verify(signedReq(http.MethodGet, "/reports/1", tampered)))
	})

	t.Run("different method", func(t *testing.T) {
		assert.False(t, signer.Verify(signedReq(http.MethodDelete, "/reports/1", params)))
	})

	t.Run("different path", func(t *testing.T) {
		assert.False(t, signer.Verify(signedReq(http.MethodGet, "/reports/2", params)))
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewURLSigner([]byte("secret2"))
		assert.False(t, other.Verify(signedReq(http.MethodGet, "/reports/1", params)))
	})
}

func TestVerifyExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := NewURLSigner([]byte("secret1"), withClock(func() time.Time { return now }))

	params := signer.Sign(http.MethodGet, "/reports/1", nil, time.Minute)
	require.True(t, signer.Verify(signedReq(http.MethodGet, "/reports/1", params)))

	now = now.Add(time.Minute + time.Second)
	assert.False(t, signer.Verify(signedReq(http.MethodGet, "/reports/1", params)),
		"a replayed link past its max age must verify false")
}

func TestSignedURLStrategy(t *testing.T) {
	signer := NewURLSigner([]byte("secret1"))
	strategy := SignedURL{Signer: signer}

	params := signer.Sign(http.MethodGet, "/reports/1", nil, time.Hour)
	r2, ok := strategy.Authenticate(signedReq(http.MethodGet, "/reports/1", params))
	require.True(t, ok)

	id := IdentityFrom(r2.Context())
	require.NotNil(t, id)
	assert.True(t, id.Anonymous)

	_, ok = strategy.Authenticate(signedReq(http.MethodGet, "/reports/1", url.Values{}))
	assert.False(t, ok)
}
