package restone

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes the pipeline responds with. The
// taxonomy is closed: every failure a pipeline stage raises maps onto exactly one of these
// codes, and any other error is treated as an unexpected failure (500).
type Code int

const (
	CodeUnknown              Code = 0
	CodeBadRequest           Code = http.StatusBadRequest           // RFC 9110, 15.5.1
	CodeForbidden            Code = http.StatusForbidden            // RFC 9110, 15.5.4
	CodeMethodNotAllowed     Code = http.StatusMethodNotAllowed     // RFC 9110, 15.5.6
	CodeNotAcceptable        Code = http.StatusNotAcceptable        // RFC 9110, 15.5.7
	CodeGone                 Code = http.StatusGone                 // RFC 9110, 15.5.11
	CodeUnsupportedMediaType Code = http.StatusUnsupportedMediaType // RFC 9110, 15.5.16
	CodeUnprocessableEntity  Code = http.StatusUnprocessableEntity  // RFC 9110, 15.5.21

	CodeInternalServerError Code = http.StatusInternalServerError // RFC 9110, 15.6.1
	CodeNotImplemented      Code = http.StatusNotImplemented      // RFC 9110, 15.6.2
)

// NonFieldKey is the catch-all key under which messages that don't belong to a single
// field are collected in a [FieldErrors] payload.
const NonFieldKey = "__all__"

// FieldErrors maps a field name to the messages describing what is wrong with it. It is
// the uniform payload shape for validation failures (400) and unprocessable states (422).
type FieldErrors map[string][]string

// Error describes an http error raised by a pipeline stage.
type Error struct {
	code    Code
	fields  FieldErrors
	allowed []string
	err     error
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{code: c, err: underlying}
}

// NewFieldError inits an error carrying a field-to-messages payload. Use it for
// validation failures (CodeBadRequest) and domain-level unprocessable states
// (CodeUnprocessableEntity).
func NewFieldError(c Code, fields FieldErrors) *Error {
	return &Error{code: c, fields: fields, err: errors.Newf("%d field(s) failed", len(fields))}
}

// NewMessageError inits an error from a bare message. The message is normalized into a
// field payload under [NonFieldKey] so that every 400/422 response has the same shape.
func NewMessageError(c Code, msg string) *Error {
	return &Error{code: c, fields: FieldErrors{NonFieldKey: {msg}}, err: errors.New(msg)}
}

// NewMethodNotAllowed inits a 405 error advertising the allowed methods.
func NewMethodNotAllowed(allowed []string) *Error {
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)

	return &Error{
		code:    CodeMethodNotAllowed,
		allowed: sorted,
		err:     errors.Newf("allowed methods: %s", strings.Join(sorted, ", ")),
	}
}

func (e *Error) Code() Code          { return e.code }
func (e *Error) Fields() FieldErrors { return e.fields }

// Allowed returns the methods advertised by a 405 error, nil for any other code.
func (e *Error) Allowed() []string { return e.allowed }

func (e *Error) Error() string {
	status := http.StatusText(int(e.Code()))
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.err.Error())
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.err }

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if perr, ok := asError(err); ok {
		return perr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for a pipeline *Error.
func asError(err error) (*Error, bool) {
	var perr *Error
	ok := errors.As(err, &perr)
	return perr, ok
}
