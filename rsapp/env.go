package rsapp

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	healthPath() string
	logLevel() zapcore.Level
	otelExporter() string
	debug() bool
}

// BaseEnvironment contains the environment variables every service needs.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port         int           `env:"RS_PORT,required"`
	ServiceName  string        `env:"RS_SERVICE_NAME,required"`
	HealthPath   string        `env:"RS_HEALTH_PATH" envDefault:"/healthz"`
	LogLevel     zapcore.Level `env:"RS_LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"RS_OTEL_EXPORTER" envDefault:"stdout"`
	// Debug renders unexpected failures in 500 response bodies and adds per-request
	// store instrumentation to endpoint envelopes. Never enable in production.
	Debug bool `env:"RS_DEBUG" envDefault:"false"`
	// SigningSecretID and TokenSecretID name the Secrets Manager entries holding the
	// shared keys for the signed-URL and bearer strategies. Optional; services that
	// source their keys differently can leave them empty.
	SigningSecretID string `env:"RS_SIGNING_SECRET_ID"`
	TokenSecretID   string `env:"RS_TOKEN_SECRET_ID"`
	// DefaultPageSize seeds endpoint configs that don't set their own.
	DefaultPageSize int `env:"RS_DEFAULT_PAGE_SIZE" envDefault:"25"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) healthPath() string {
	return e.HealthPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) debug() bool {
	return e.Debug
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
