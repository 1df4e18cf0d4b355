package rsapp

import (
	"net/http"

	"github.com/advdv/restone"
	"go.uber.org/zap"
)

// DefaultMaxResponseBytes caps the buffered response at 4 MiB. Handlers that need to
// produce larger responses should stream via a standard handler instead.
const DefaultMaxResponseBytes = 4 * 1024 * 1024

// Mux is an alias for restone.ServeMux.
type Mux = restone.ServeMux

// NewMux creates a new Mux wired to the app's logger and debug setting.
func NewMux(env Environment, logger *zap.Logger) *Mux {
	return restone.NewServeMuxWith(
		DefaultMaxResponseBytes,
		newZapRestoneLogger(logger),
		http.NewServeMux(),
		restone.NewReverser(),
		env.debug(),
	)
}
