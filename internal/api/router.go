package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/api/handler"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/api/middleware"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/infrastructure/config"
)

// Dependencies carries everything the router wires together. The session
// container and credential store are passed in explicitly; there is no
// ambient singleton for guards or handlers to reach for.
type Dependencies struct {
	Session  ports.SessionContainer
	Store    ports.CredentialStore
	Upstream handler.Pinger
	Config   *config.Config
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with the console areas
// wired behind their guards.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rentals_console"))

	// The bootstrap guard settles the stored credential once, before the
	// first request of any kind is served.
	e.Use(middleware.Guard(deps.Session, deps.Store, middleware.Policy{
		Mode:    middleware.ModeBootstrap,
		Timeout: deps.Config.Session.BootstrapTimeout,
	}, deps.Logger))

	// --- Dependencies ---
	sessionHandler := handler.NewSessionHandler(deps.Session)
	consoleHandler := handler.NewConsoleHandler(deps.Session)
	proxy, err := handler.NewProxy(deps.Config.Upstream.BaseURL, deps.Store, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("build proxy: %w", err)
	}

	// --- Session routes ---
	e.POST("/session", sessionHandler.Login)
	e.GET("/session", sessionHandler.Show)
	e.DELETE("/session", sessionHandler.Logout)

	// --- Console areas: login pages outside the guards, dashboards and
	// proxied CRUD behind them ---
	area := func(role domain.Role) {
		e.GET(role.LoginRoute(), consoleHandler.LoginPage(role))

		g := e.Group(role.DashboardRoute(),
			middleware.Guard(deps.Session, deps.Store, middleware.Policy{
				Mode:    middleware.ModeAuthenticatedArea,
				Timeout: deps.Config.Session.GuardTimeout,
			}, deps.Logger),
			middleware.Guard(deps.Session, deps.Store, middleware.Policy{
				Mode:         middleware.ModeRoleScoped,
				RequiredRole: role,
			}, deps.Logger),
		)
		g.GET("", consoleHandler.Dashboard(role))
		g.Any("/api/*", proxy.Handle)
	}
	area(domain.RoleOwner)
	area(domain.RoleAdmin)
	area(domain.RoleAgent)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Store, deps.Upstream)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
