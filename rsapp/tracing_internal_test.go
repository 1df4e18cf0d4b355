package rsapp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewExporter(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		exp, err := newExporter("stdout")
		require.NoError(t, err)
		assert.NotNil(t, exp)
	})

	t.Run("empty defaults to stdout", func(t *testing.T) {
		exp, err := newExporter("")
		require.NoError(t, err)
		assert.NotNil(t, exp)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := newExporter("jaeger")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported RS_OTEL_EXPORTER")
	})
}

func TestNewPropagator(t *testing.T) {
	prop := NewPropagator()
	assert.Contains(t, prop.Fields(), "traceparent")
	assert.Contains(t, prop.Fields(), "baggage")
}

func TestWithTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prop := propagation.TraceContext{}

	var served []string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = append(served, r.URL.Path)
	})

	handler := withTracing(tp, prop, "test", "/healthz")(inner)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reports/1", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, []string{"/reports/1", "/healthz"}, served, "both requests must reach the handler")

	spans := recorder.Ended()
	require.Len(t, spans, 1, "health probes must not be traced")
	assert.Equal(t, "GET /reports/1", spans[0].Name())
}

func TestNewTracerProviderRejectsUnknownExporter(t *testing.T) {
	_, err := NewTracerProvider(nil, testEnv{otelExp: "jaeger"})
	require.Error(t, err)
}
