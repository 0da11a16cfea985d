// Package authapi is the HTTP client for the property-management backend's
// authentication endpoints: login, current user, and token refresh. It is
// the only outbound surface of the session subsystem.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/api/metrics"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// Response bodies are tiny; cap reads so a misbehaving upstream cannot
	// balloon memory.
	maxBodyBytes = 1 << 20
)

// Client talks to the upstream auth API. Failures are translated into
// domain sentinel errors so callers never branch on HTTP details.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a Client for the given base URL. A default request
// timeout is applied when none is provided.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type profileResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// Login exchanges an email/password pair for tokens. A 401-class rejection
// maps to ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	var resp tokenPairResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", loginPayload{Email: email, Password: password}, "", &resp)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return domain.TokenPair{}, fmt.Errorf("auth api: login response missing tokens")
	}
	return domain.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// CurrentUser fetches the profile behind the access token and normalizes
// its role at this boundary, so everything downstream compares against the
// closed Role set rather than a raw backend string.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	var resp profileResponse
	if err := c.do(ctx, "current_user", http.MethodGet, "/auth/me", nil, accessToken, &resp); err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(resp.Role)
	if err != nil {
		return nil, fmt.Errorf("auth api: profile: %w", err)
	}
	return &domain.User{
		ID:    resp.ID,
		Name:  resp.Name,
		Email: resp.Email,
		Role:  role,
		Phone: resp.Phone,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The response
// may or may not carry a rotated refresh token; an empty RefreshToken in
// the returned pair means the old one stays valid.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	var resp tokenPairResponse
	err := c.do(ctx, "refresh", http.MethodPost, "/auth/refresh", refreshPayload{RefreshToken: refreshToken}, "", &resp)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if resp.AccessToken == "" {
		return domain.TokenPair{}, fmt.Errorf("auth api: refresh response missing access token")
	}
	return domain.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// Ping probes upstream availability for the readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, "", nil)
}

// do runs one request/response cycle: encode, send, map status, decode.
func (c *Client) do(ctx context.Context, endpoint, method, path string, payload any, bearer string, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("auth api: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("auth api: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint, "failure").Observe(time.Since(start).Seconds())
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("upstream request failed")
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint, "failure").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%w: upstream returned %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 300:
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint, "failure").Observe(time.Since(start).Seconds())
		return fmt.Errorf("auth api: unexpected status %d from %s", resp.StatusCode, path)
	}

	metrics.UpstreamRequestDuration.WithLabelValues(endpoint, "success").Observe(time.Since(start).Seconds())

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("auth api: decode response: %w", err)
	}
	return nil
}
