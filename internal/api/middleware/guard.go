package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/api/metrics"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

// Mode selects which gate policy a Guard enforces. Every variant resolves a
// request to either "next" or a redirect; they differ only in what they
// consult and where they send rejected navigations.
type Mode int

const (
	// ModeBootstrap settles the stored credential once per process, under a
	// hard timeout, before any request proceeds. It never redirects.
	ModeBootstrap Mode = iota
	// ModeAuthenticatedArea requires a settled authenticated session and
	// redirects unauthenticated requests to the login surface matching the
	// request path prefix.
	ModeAuthenticatedArea
	// ModeRoleScoped compares the stored role against a required role using
	// durable storage only. It never calls the network: it is a fast local
	// gate run on every navigation, and the backend independently enforces
	// role rules on every request.
	ModeRoleScoped
)

func (m Mode) String() string {
	switch m {
	case ModeBootstrap:
		return "bootstrap"
	case ModeAuthenticatedArea:
		return "authenticated_area"
	case ModeRoleScoped:
		return "role_scoped"
	}
	return "unknown"
}

const defaultGuardTimeout = 5 * time.Second

// Policy parameterizes a Guard. RequiredRole only applies to ModeRoleScoped;
// Timeout bounds how long ModeBootstrap and ModeAuthenticatedArea wait for
// the session to settle before forcing progress.
type Policy struct {
	Mode         Mode
	RequiredRole domain.Role
	Timeout      time.Duration
}

// Guard returns the gate middleware for the given policy. Even with an
// unreachable upstream the request resolves within the policy timeout; a
// hung navigation is a defect, not an outcome.
func Guard(sess ports.SessionContainer, store ports.CredentialStore, policy Policy, log zerolog.Logger) echo.MiddlewareFunc {
	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = defaultGuardTimeout
	}
	var bootstrapOnce sync.Once

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch policy.Mode {
			case ModeBootstrap:
				bootstrapOnce.Do(func() {
					ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
					defer cancel()

					start := time.Now()
					snap := sess.Ensure(ctx)
					if snap.IsLoading {
						log.Warn().Dur("waited", time.Since(start)).
							Msg("bootstrap session check timed out, continuing")
					} else {
						log.Info().Bool("authenticated", snap.IsAuthenticated).
							Msg("session bootstrapped")
					}
				})
				metrics.GuardDecisionsTotal.WithLabelValues(policy.Mode.String(), "allow").Inc()
				return next(c)

			case ModeAuthenticatedArea:
				ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
				snap := sess.Ensure(ctx)
				cancel()

				if !snap.IsAuthenticated || snap.User == nil {
					target := loginRouteFor(c.Request().URL.Path)
					metrics.GuardDecisionsTotal.WithLabelValues(policy.Mode.String(), "redirect").Inc()
					return c.Redirect(http.StatusFound, target)
				}
				metrics.GuardDecisionsTotal.WithLabelValues(policy.Mode.String(), "allow").Inc()
				return next(c)

			case ModeRoleScoped:
				return roleScoped(c, next, store, policy.RequiredRole)
			}
			return next(c)
		}
	}
}

// roleScoped gates on durable storage alone. Missing or malformed
// credentials go to the required role's login page. A credential with the
// wrong role goes to the dashboard of the role it actually holds: an
// authenticated admin hitting an agent route belongs on the admin
// dashboard, not a login form.
func roleScoped(c echo.Context, next echo.HandlerFunc, store ports.CredentialStore, required domain.Role) error {
	redirect := func(target string) error {
		metrics.GuardDecisionsTotal.WithLabelValues(ModeRoleScoped.String(), "redirect").Inc()
		return c.Redirect(http.StatusFound, target)
	}

	cred, err := store.Read(c.Request().Context())
	if err != nil || !cred.HasAccessToken() || cred.User == nil {
		return redirect(required.LoginRoute())
	}

	actual, err := domain.ParseRole(string(cred.User.Role))
	if err != nil {
		return redirect(required.LoginRoute())
	}
	if actual != required {
		return redirect(actual.DashboardRoute())
	}

	metrics.GuardDecisionsTotal.WithLabelValues(ModeRoleScoped.String(), "allow").Inc()
	return next(c)
}

// loginRouteFor picks the login surface from the navigation prefix. Owner
// is the catch-all: the public site and the owner dashboard share a login
// page.
func loginRouteFor(path string) string {
	switch {
	case strings.HasPrefix(path, "/agent"):
		return domain.RoleAgent.LoginRoute()
	case strings.HasPrefix(path, "/admin"):
		return domain.RoleAdmin.LoginRoute()
	default:
		return domain.RoleOwner.LoginRoute()
	}
}
