package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

// Proxy forwards console API calls to the upstream property-management
// backend with the current bearer token attached. The CRUD surfaces behind
// it (properties, units, tenants, payments) are out of this service's
// hands; only the credential handling is ours. The backend enforces its own
// authorization on every forwarded request.
type Proxy struct {
	store ports.CredentialStore
	rp    *httputil.ReverseProxy
}

// NewProxy builds a reverse proxy targeting the upstream base URL. Console
// paths like /owner/api/properties map to /api/properties upstream.
func NewProxy(upstreamURL string, store ports.CredentialStore, log zerolog.Logger) (*Proxy, error) {
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = upstreamPath(pr.In.URL.Path)
			pr.Out.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("proxy request failed")
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return &Proxy{store: store, rp: rp}, nil
}

// Handle attaches the stored access token and forwards the request. With no
// usable token the request is rejected before it leaves the gateway.
func (p *Proxy) Handle(c echo.Context) error {
	cred, err := p.store.Read(c.Request().Context())
	if err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		return err
	}
	if !cred.HasAccessToken() {
		return domain.ErrNoCredential
	}

	req := c.Request()
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	p.rp.ServeHTTP(c.Response(), req)
	return nil
}

// upstreamPath strips the console area prefix: /owner/api/x → /api/x.
func upstreamPath(path string) string {
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleAgent} {
		prefix := role.DashboardRoute() + "/api"
		if strings.HasPrefix(path, prefix) {
			return "/api" + strings.TrimPrefix(path, prefix)
		}
	}
	return path
}
