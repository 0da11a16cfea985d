package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/api/metrics"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

const defaultTokenLeeway = 30 * time.Second

// Singleflight keys. Refresh tokens rotate server-side, so two concurrent
// refreshes would invalidate each other. At most one upstream call may be
// in flight per operation, with late callers sharing its outcome.
const (
	opRefresh     = "refresh"
	opCurrentUser = "current_user"
)

// SessionService owns every Credential Store mutation and every call to the
// upstream auth API. Guards and handlers go through the state container,
// which in turn goes through this service; nothing else writes the store.
type SessionService struct {
	api    ports.AuthAPI
	store  ports.CredentialStore
	leeway time.Duration
	logger zerolog.Logger

	flight singleflight.Group
}

func NewSessionService(api ports.AuthAPI, store ports.CredentialStore, leeway time.Duration, logger zerolog.Logger) *SessionService {
	if leeway <= 0 {
		leeway = defaultTokenLeeway
	}
	return &SessionService{api: api, store: store, leeway: leeway, logger: logger}
}

// Login exchanges credentials for a token pair and persists it. The cached
// profile is dropped: it belongs to whoever logged in previously and the new
// identity is unknown until FetchCurrentUser. On failure the store is left
// untouched.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.api.Login(ctx, email, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.logger.Warn().Err(err).Str("email", email).Msg("login rejected")
		return domain.TokenPair{}, err
	}

	cred := domain.Credential{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := s.store.Write(ctx, cred); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return domain.TokenPair{}, fmt.Errorf("persist credential: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// FetchCurrentUser resolves the profile behind the stored access token and
// caches it next to the token pair. Concurrent callers coalesce onto one
// upstream request. Failures leave the store untouched; the caller decides
// between refresh and logout.
func (s *SessionService) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	v, err, shared := s.flight.Do(opCurrentUser, func() (any, error) {
		cred, err := s.store.Read(ctx)
		if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
			return nil, err
		}
		if !cred.HasAccessToken() {
			return nil, domain.ErrNoCredential
		}

		user, err := s.api.CurrentUser(ctx, cred.AccessToken)
		if err != nil {
			return nil, err
		}

		cred.User = user
		if err := s.store.Write(ctx, cred); err != nil {
			return nil, fmt.Errorf("cache profile: %w", err)
		}
		return user, nil
	})
	if shared {
		metrics.CoalescedCallsTotal.WithLabelValues(opCurrentUser).Inc()
	}
	if err != nil {
		metrics.ProfileFetchesTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.ProfileFetchesTotal.WithLabelValues("success").Inc()
	return v.(*domain.User), nil
}

// Refresh exchanges the stored refresh token for a fresh access token,
// preserving the cached profile. When the backend rotates refresh tokens the
// replacement is persisted too. A failed refresh is terminal: the store is
// cleared and ErrSessionExpired returned: the session cannot be resurrected
// and the user must authenticate again.
func (s *SessionService) Refresh(ctx context.Context) (domain.TokenPair, error) {
	v, err, shared := s.flight.Do(opRefresh, func() (any, error) {
		cred, err := s.store.Read(ctx)
		if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
			return domain.TokenPair{}, err
		}
		if !cred.HasRefreshToken() {
			return domain.TokenPair{}, domain.ErrNoCredential
		}

		pair, err := s.api.Refresh(ctx, cred.RefreshToken)
		if err != nil {
			if clearErr := s.store.Clear(ctx); clearErr != nil {
				s.logger.Error().Err(clearErr).Msg("credential clear after failed refresh")
			}
			s.logger.Warn().Err(err).Msg("refresh rejected, session terminated")
			return domain.TokenPair{}, fmt.Errorf("%w: %v", domain.ErrSessionExpired, err)
		}

		cred.AccessToken = pair.AccessToken
		if pair.RefreshToken != "" {
			cred.RefreshToken = pair.RefreshToken
		}
		if err := s.store.Write(ctx, cred); err != nil {
			return domain.TokenPair{}, fmt.Errorf("persist refreshed credential: %w", err)
		}
		return domain.TokenPair{AccessToken: cred.AccessToken, RefreshToken: cred.RefreshToken}, nil
	})
	if shared {
		metrics.CoalescedCallsTotal.WithLabelValues(opRefresh).Inc()
	}
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failure").Inc()
		return domain.TokenPair{}, err
	}
	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return v.(domain.TokenPair), nil
}

// Logout clears the credential unconditionally. No network round trip, no
// failure mode: a clear error is logged and swallowed so logout stays safe
// to call even when already logged out.
func (s *SessionService) Logout(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("credential clear failed")
	}
}

// TokenValid is the pure local validity predicate for a bearer token. It
// decodes the embedded expiry claim and compares it to the current time with
// a safety margin; it never touches the network, which is what lets guards
// skip redundant profile fetches.
func (s *SessionService) TokenValid(token string) bool {
	return accessTokenValid(token, time.Now(), s.leeway)
}

// IsAccessTokenValid applies TokenValid to whatever access token is
// currently stored.
func (s *SessionService) IsAccessTokenValid(ctx context.Context) bool {
	cred, err := s.store.Read(ctx)
	if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		return false
	}
	return s.TokenValid(cred.AccessToken)
}
