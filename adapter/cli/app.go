package cli

import (
	"errors"
	"strings"

	billingApp "github.com/hirelane/hirelane/internal/billing/application"
	"github.com/hirelane/hirelane/internal/billing/infrastructure/paymentapi"
	"github.com/hirelane/hirelane/internal/gateway"
	jobsApp "github.com/hirelane/hirelane/internal/jobs/application"
	jobsAPI "github.com/hirelane/hirelane/internal/jobs/infrastructure/api"
	"github.com/hirelane/hirelane/pkg/observability"
)

// ErrNoUser is returned by commands that need a user id when none is configured.
var ErrNoUser = errors.New("no user configured: set HIRELANE_USER_ID or pass --user")

// App holds the CLI application dependencies.
type App struct {
	// Local entitlement ledger
	Ledger    *billingApp.Ledger
	Downloads *jobsApp.Downloads

	// Remote services
	Tokens   gateway.TokenStore
	Payments *paymentapi.Client
	Checkout *billingApp.Checkout
	Jobs     *jobsAPI.Client

	// Diagnostics
	Metrics *observability.Metrics
	Health  *observability.HealthRegistry

	// Current user (configured per environment)
	CurrentUserID string

	closer func() error
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id string) {
	a.CurrentUserID = strings.TrimSpace(id)
}

// SetCloser registers the function that releases the App's resources.
func (a *App) SetCloser(fn func() error) {
	a.closer = fn
}

// Close releases the App's resources.
func (a *App) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	fn := a.closer
	a.closer = nil
	return fn()
}

// UserID returns override when set, otherwise the configured user.
func (a *App) UserID(override string) (string, error) {
	if id := strings.TrimSpace(override); id != "" {
		return id, nil
	}
	if a == nil || a.CurrentUserID == "" {
		return "", ErrNoUser
	}
	return a.CurrentUserID, nil
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
