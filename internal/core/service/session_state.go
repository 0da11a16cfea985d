package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

// Session is the in-memory observable mirror of the stored credential. It is
// rebuildable from the Credential Store at any time and is seeded from it
// synchronously at construction, so a restart with a still-valid token never
// shows a logged-out flash.
//
// State changes only through the named transitions below; nothing sets the
// fields ad hoc. That single-writer discipline keeps the invariant
// "authenticated ⇔ token present" enforceable with one mutex.
type Session struct {
	svc    *SessionService
	store  ports.CredentialStore
	logger zerolog.Logger

	mu      sync.Mutex
	user    *domain.User
	token   string
	refresh string
	loading bool
	errMsg  string
	changed chan struct{}
}

// NewSession builds the container and seeds it from durable storage. A
// malformed stored profile is tolerated: the tokens still seed the session
// and the profile is re-fetched on the next Ensure.
func NewSession(svc *SessionService, store ports.CredentialStore, logger zerolog.Logger) *Session {
	s := &Session{svc: svc, store: store, logger: logger, changed: make(chan struct{})}

	cred, err := store.Read(context.Background())
	if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		logger.Warn().Err(err).Msg("credential store unreadable, starting logged out")
		return s
	}
	s.token = cred.AccessToken
	s.refresh = cred.RefreshToken
	s.user = cred.User
	return s
}

// Snapshot returns the current state. IsAuthenticated is derived from the
// token field, never stored, so the two cannot drift apart.
func (s *Session) Snapshot() ports.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() ports.SessionSnapshot {
	return ports.SessionSnapshot{
		User:            s.user,
		Token:           s.token,
		RefreshToken:    s.refresh,
		IsAuthenticated: s.token != "",
		IsLoading:       s.loading,
		Error:           s.errMsg,
	}
}

// Changed returns a channel closed on the next state transition.
func (s *Session) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// notifyLocked wakes every watcher and re-arms the broadcast channel.
func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// ── Named transitions ─────────────────────────────────────────────────────────

// begin marks a login, refresh, or profile fetch as in flight and clears any
// stale error.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.errMsg = ""
	s.notifyLocked()
}

// fail records a failure reason and settles the loading flag. Tokens are
// deliberately untouched: a failed attempt does not revoke what is stored.
func (s *Session) fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.errMsg = reason
	s.notifyLocked()
}

// loginSuccess installs a fresh token pair. The user stays whatever it was,
// typically nil until userFetched follows.
func (s *Session) loginSuccess(pair domain.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = pair.AccessToken
	s.refresh = pair.RefreshToken
	s.loading = false
	s.errMsg = ""
	s.notifyLocked()
}

// userFetched caches the freshly fetched profile.
func (s *Session) userFetched(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.loading = false
	s.errMsg = ""
	s.notifyLocked()
}

// refreshSuccess swaps in the renewed tokens, preserving the cached user.
func (s *Session) refreshSuccess(pair domain.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = pair.AccessToken
	if pair.RefreshToken != "" {
		s.refresh = pair.RefreshToken
	}
	s.loading = false
	s.errMsg = ""
	s.notifyLocked()
}

// reset is the terminal transition shared by logout and irrecoverable
// refresh failure: durable storage is cleared and every field returns to its
// zero value. The only way forward from here is a fresh login.
func (s *Session) reset(ctx context.Context) {
	s.svc.Logout(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.refresh = ""
	s.loading = false
	s.errMsg = ""
	s.notifyLocked()
}

// ── High-level flows ──────────────────────────────────────────────────────────

// Login runs token exchange followed by the profile fetch. Callers only see
// an authenticated session with a known role. Redirect decisions made on a
// half-settled login were a recurring bug class, so the profile fetch is not
// optional here.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.begin()

	pair, err := s.svc.Login(ctx, email, password)
	if err != nil {
		s.fail(err.Error())
		return err
	}
	s.loginSuccess(pair)

	user, err := s.svc.FetchCurrentUser(ctx)
	if err != nil {
		s.fail(err.Error())
		return err
	}
	s.userFetched(user)
	return nil
}

// Logout tears the session down. Safe to call when already logged out.
func (s *Session) Logout(ctx context.Context) {
	s.reset(ctx)
}

// Ensure drives the stored credential toward a settled state: a valid access
// token with no cached profile triggers a fetch, a dead access token with a
// live refresh token triggers a refresh, and an empty store resolves to
// logged out.
//
// The reconcile runs beyond the caller's deadline (context.WithoutCancel) so
// an impatient guard cannot cancel an in-flight refresh: rotated refresh
// tokens make a cancelled refresh unrecoverable. When ctx expires first the
// caller just stops waiting and gets the current snapshot; the work finishes
// in the background and updates state opportunistically.
func (s *Session) Ensure(ctx context.Context) ports.SessionSnapshot {
	done := make(chan ports.SessionSnapshot, 1)
	go func() {
		done <- s.reconcile(context.WithoutCancel(ctx))
	}()

	select {
	case snap := <-done:
		return snap
	case <-ctx.Done():
		s.logger.Warn().Msg("session check still pending, proceeding without it")
		return s.Snapshot()
	}
}

func (s *Session) reconcile(ctx context.Context) ports.SessionSnapshot {
	cred, err := s.store.Read(ctx)
	if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		s.fail(err.Error())
		return s.Snapshot()
	}

	switch {
	case cred.HasAccessToken() && s.svc.TokenValid(cred.AccessToken):
		if cred.User != nil {
			s.syncAuthenticated(cred)
			return s.Snapshot()
		}
		s.begin()
		user, err := s.svc.FetchCurrentUser(ctx)
		if err != nil {
			s.fail(err.Error())
			return s.Snapshot()
		}
		s.userFetched(user)

	case cred.HasRefreshToken():
		s.begin()
		pair, err := s.svc.Refresh(ctx)
		if err != nil {
			// Terminal: the service already cleared the store.
			s.reset(ctx)
			return s.Snapshot()
		}
		s.refreshSuccess(pair)

		user, err := s.svc.FetchCurrentUser(ctx)
		if err != nil {
			s.fail(err.Error())
			return s.Snapshot()
		}
		s.userFetched(user)

	default:
		// No usable credential at all, or an expired token with nothing to
		// refresh it with.
		s.reset(ctx)
	}

	return s.Snapshot()
}

// syncAuthenticated realigns the container with a fully settled stored
// credential, e.g. after another process instance refreshed it.
func (s *Session) syncAuthenticated(cred domain.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = cred.AccessToken
	s.refresh = cred.RefreshToken
	s.user = cred.User
	s.loading = false
	s.errMsg = ""
	s.notifyLocked()
}
