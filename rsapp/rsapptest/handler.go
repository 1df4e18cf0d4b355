package rsapptest

import (
	"net/http"
	"net/http/httptest"

	"github.com/advdv/restone"
)

// CallHandler invokes a [restone.HandlerFunc] with a buffered response writer and
// returns the recorded response. It handles the boilerplate of wrapping
// [httptest.ResponseRecorder] in a [restone.ResponseWriter] and flushing the
// buffer afterward.
func CallHandler(handler restone.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	w := restone.NewResponseWriter(rec, -1)

	if err := handler(req.Context(), w, req); err != nil {
		panic("rsapptest: handler returned error: " + err.Error())
	}

	if err := w.FlushBuffer(); err != nil {
		panic("rsapptest: FlushBuffer failed: " + err.Error())
	}

	return rec
}
