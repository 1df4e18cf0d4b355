// Package rsapp provides a batteries-included application layer for HTTP services built
// on restone endpoints.
//
// # Overview
//
// rsapp handles the boilerplate of standing up a service: environment parsing,
// structured logging, OpenTelemetry tracing, AWS SDK clients, secret retrieval, and
// graceful shutdown. A complete application can be created in a single call:
//
//	rsapp.NewApp[Env](func(m *rsapp.Mux, h *Handlers) {
//	    m.HandleBare("GET /reports", h.Reports, "list-reports")
//	    m.HandleBare("GET /reports/{id}", h.Reports, "get-report")
//	},
//	    rsapp.WithAWSClient(dynamodb.NewFromConfig),
//	    rsapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    rsapp.BaseEnvironment
//	    ReportsTableName string `env:"REPORTS_TABLE_NAME,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable         | Required | Default  | Description                                  |
//	|------------------|----------|----------|----------------------------------------------|
//	| RS_PORT          | Yes      | -        | Port the HTTP server listens on              |
//	| RS_SERVICE_NAME  | Yes      | -        | Service name for logging and tracing         |
//	| RS_HEALTH_PATH   | No       | /healthz | Health check endpoint path                   |
//	| RS_LOG_LEVEL     | No       | info     | Log level (debug, info, warn, error)         |
//	| RS_OTEL_EXPORTER | No       | stdout   | Trace exporter: "stdout"                     |
//	| RS_DEBUG         | No       | false    | Render failure details and debug envelopes   |
//	| RS_SIGNING_SECRET_ID  | No  | -        | Secrets Manager id of the signed-URL key     |
//	| RS_TOKEN_SECRET_ID    | No  | -        | Secrets Manager id of the bearer token key   |
//	| RS_DEFAULT_PAGE_SIZE  | No  | 25       | Page size for endpoints that don't set one   |
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into
// handler constructors via fx:
//
//   - [Runtime.Env] returns the typed environment configuration
//   - [Runtime.Reverse] generates URLs for named routes
//   - [Runtime.Secret] retrieves secrets from AWS Secrets Manager
//   - [Runtime.NewRequest] builds traced outbound HTTP requests
//
// # Context
//
// Handlers receive a standard context.Context. Use the package-level functions to access
// request-scoped values:
//
//	func (h *Handlers) GetReport(ctx context.Context, w restone.ResponseWriter, r *http.Request) error {
//	    rsapp.Log(ctx).Info("fetching report")
//	    rsapp.Span(ctx).AddEvent("fetching report")
//	    // ...
//	}
//
// # Secrets
//
// [Runtime.Secret] retrieves secrets from AWS Secrets Manager with caching. Secrets are
// fetched per-request to support rotation without redeployment. A JSON path (gjson
// syntax) can extract nested values:
//
//	signingKey, err := h.rt.Secret(ctx, "url-signing-key")
//	password, err := h.rt.Secret(ctx, "my-db-credentials", "database.password")
//
// # Tracing
//
// OpenTelemetry tracing wraps the whole mux with otelhttp; the health path is excluded.
// The tracer provider and propagator are injected explicitly (no globals), and outbound
// requests made via [Runtime.NewRequest] or the injected *http.Client become child spans
// of the active trace.
//
// # Testing
//
// The companion [rsapptest] package constructs the identical dependency graph with
// fxtest so integration tests fail fast on wiring errors, and provides helpers for
// calling handlers without a server:
//
//	rsapptest.SetBaseEnv(t, 18081)
//	app := rsapptest.New[Env](t, routing)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package rsapp
