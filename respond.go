package restone

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RespondError is the single translation point from an error value to an http response.
// Structured [*Error] values render their fixed status and, where the taxonomy defines
// one, a JSON field payload. Everything else is an unexpected failure: a 500 whose body
// stays empty unless debug mode is enabled, so internals never leak in production.
//
// The writer is reset first, discarding anything a stage wrote before failing.
func RespondError(w ResponseWriter, err error, debug bool) error {
	w.Reset()

	perr, ok := asError(err)
	if !ok {
		if debug {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return nil
		}

		w.WriteHeader(http.StatusInternalServerError)
		return nil
	}

	if allowed := perr.Allowed(); len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}

	if fields := perr.Fields(); len(fields) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(perr.Code()))
		return json.NewEncoder(w).Encode(fields)
	}

	w.WriteHeader(int(perr.Code()))
	return nil
}
