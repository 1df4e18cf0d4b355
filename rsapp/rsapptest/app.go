// Package rsapptest provides test helpers for rsapp applications.
//
// It constructs the identical DI graph as [rsapp.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	rsapptest.SetBaseEnv(t, 18081)
//	app := rsapptest.New[TestEnv](t, routing, rsapp.WithAWSClient(...))
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package rsapptest

import (
	"testing"

	"github.com/advdv/restone/rsapp"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing rsapp applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [rsapp.NewApp].
func New[E rsapp.Environment](t testing.TB, routing any, opts ...rsapp.Option) *App {
	return &App{App: fxtest.New(t, rsapp.FxOptions[E](routing, opts...)...)}
}
