package rsapp_test

import (
	"os"
	"testing"

	"github.com/advdv/restone/rsapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RS_PORT", "8080")
	t.Setenv("RS_SERVICE_NAME", "reports")
}

func TestParseEnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	parse := rsapp.ParseEnv[rsapp.BaseEnvironment]()
	env, err := parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, env.Port)
	assert.Equal(t, "reports", env.ServiceName)
	assert.Equal(t, "/healthz", env.HealthPath)
	assert.Equal(t, zapcore.InfoLevel, env.LogLevel)
	assert.Equal(t, "stdout", env.OtelExporter)
	assert.False(t, env.Debug)
	assert.Equal(t, 25, env.DefaultPageSize)
	assert.Empty(t, env.SigningSecretID)
}

func TestParseEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RS_HEALTH_PATH", "/ready")
	t.Setenv("RS_LOG_LEVEL", "debug")
	t.Setenv("RS_DEBUG", "true")

	parse := rsapp.ParseEnv[rsapp.BaseEnvironment]()
	env, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "/ready", env.HealthPath)
	assert.Equal(t, zapcore.DebugLevel, env.LogLevel)
	assert.True(t, env.Debug)
}

func TestParseEnvMissingRequired(t *testing.T) {
	t.Setenv("RS_PORT", "8080")
	t.Setenv("RS_SERVICE_NAME", "x") // registers cleanup that restores the old value
	os.Unsetenv("RS_SERVICE_NAME")

	parse := rsapp.ParseEnv[rsapp.BaseEnvironment]()
	_, err := parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RS_SERVICE_NAME")
}

func TestParseEnvCustomStruct(t *testing.T) {
	type customEnv struct {
		rsapp.BaseEnvironment
		TableName string `env:"REPORTS_TABLE_NAME,required"`
	}

	setRequiredEnv(t)
	t.Setenv("REPORTS_TABLE_NAME", "reports-main")

	parse := rsapp.ParseEnv[customEnv]()
	env, err := parse()
	require.NoError(t, err)
	assert.Equal(t, "reports-main", env.TableName)
}
