package restone_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/restone"
	"github.com/stretchr/testify/require"
)

func handleGreet(_ context.Context, w restone.ResponseWriter, r *http.Request) error {
	w.Header().Set("Is-Bar", "rab")
	w.WriteHeader(http.StatusCreated)

	fmt.Fprintf(w, `hello at %s`, r.URL.Path)

	if r.URL.Path == "/trigger-error" {
		return errors.New("triggered error")
	}

	if r.URL.Path == "/trigger-bad-request" {
		return restone.NewMessageError(restone.CodeBadRequest, "nope")
	}

	return nil
}

func TestHandleBasic(t *testing.T) {
	logs := restone.NewTestLogger(t)
	shdlr := restone.ToStd(restone.ToBare(restone.HandlerFunc(handleGreet)), -1, logs, false)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bar", nil)
	shdlr.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, `rab`, rec.Header().Get("Is-Bar"))
	require.Equal(t, `hello at /bar`, rec.Body.String())
}

func TestHandleUnexpectedError(t *testing.T) {
	logs := restone.NewTestLogger(t)
	shdlr := restone.ToStd(restone.ToBare(restone.HandlerFunc(handleGreet)), -1, logs, false)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trigger-error", nil)
	shdlr.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, ``, rec.Header().Get("Is-Bar"))
	require.Equal(t, ``, rec.Body.String())
	require.Equal(t, int64(1), logs.NumLogUnhandledServeError)
}

func TestHandleUnexpectedErrorDebug(t *testing.T) {
	logs := restone.NewTestLogger(t)
	shdlr := restone.ToStd(restone.ToBare(restone.HandlerFunc(handleGreet)), -1, logs, true)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trigger-error", nil)
	shdlr.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "triggered error")
}

func TestHandleStructuredError(t *testing.T) {
	logs := restone.NewTestLogger(t)
	shdlr := restone.ToStd(restone.ToBare(restone.HandlerFunc(handleGreet)), -1, logs, false)

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trigger-bad-request", nil)
	shdlr.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"__all__":["nope"]}`, rec.Body.String())
	require.Equal(t, int64(0), logs.NumLogUnhandledServeError)
}
