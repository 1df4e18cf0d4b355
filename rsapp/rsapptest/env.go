package rsapptest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [rsapp.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [rsapp.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - RS_SERVICE_NAME: "test"
//   - RS_HEALTH_PATH: "/healthz"
//   - RS_LOG_LEVEL: "error"
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//
// Use the returned [Env] to override individual values:
//
//	rsapptest.SetBaseEnv(t, 18085).ServiceName("reports").Debug(true)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("RS_PORT", strconv.Itoa(port))
	t.Setenv("RS_SERVICE_NAME", "test")
	t.Setenv("RS_HEALTH_PATH", "/healthz")
	t.Setenv("RS_LOG_LEVEL", "error")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return &Env{t: t}
}

// ServiceName overrides RS_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("RS_SERVICE_NAME", name)
	return e
}

// HealthPath overrides RS_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("RS_HEALTH_PATH", path)
	return e
}

// LogLevel overrides RS_LOG_LEVEL.
func (e *Env) LogLevel(level string) *Env {
	e.t.Helper()
	e.t.Setenv("RS_LOG_LEVEL", level)
	return e
}

// Debug overrides RS_DEBUG.
func (e *Env) Debug(debug bool) *Env {
	e.t.Helper()
	e.t.Setenv("RS_DEBUG", strconv.FormatBool(debug))
	return e
}
