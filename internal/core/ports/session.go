package ports

import (
	"context"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

// SessionSnapshot is a point-in-time view of the observable session state.
// IsAuthenticated is true exactly when Token is non-empty.
type SessionSnapshot struct {
	User            *domain.User
	Token           string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// SessionContainer is the read/dispatch surface guards and handlers work
// against. They never mutate session state directly; every change goes
// through one of these operations.
type SessionContainer interface {
	// Snapshot returns the current state without blocking.
	Snapshot() SessionSnapshot

	// Changed returns a channel closed on the next state change. Callers
	// re-arm by calling Changed again after it fires.
	Changed() <-chan struct{}

	// Login runs the full login flow: token exchange followed by a profile
	// fetch, so callers only see an authenticated state once the role is
	// known.
	Login(ctx context.Context, email, password string) error

	// Logout tears the session down unconditionally. Idempotent.
	Logout(ctx context.Context)

	// Ensure drives the stored credential toward a settled state (profile
	// fetch, refresh, or logged out) and returns the resulting snapshot.
	// When ctx expires first, Ensure stops waiting and returns the current
	// snapshot; the underlying work keeps running.
	Ensure(ctx context.Context) SessionSnapshot
}
