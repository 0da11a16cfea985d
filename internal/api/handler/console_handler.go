package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

// ConsoleHandler serves the per-role console entry points: the dashboards
// guarded by the middleware chain, and the login pages the guards redirect
// to. The actual CRUD surfaces live behind the proxy.
type ConsoleHandler struct {
	session ports.SessionContainer
}

func NewConsoleHandler(session ports.SessionContainer) *ConsoleHandler {
	return &ConsoleHandler{session: session}
}

type dashboardResponse struct {
	Area string       `json:"area"`
	User *domain.User `json:"user"`
}

// Dashboard returns the landing payload for a role's console area. Guards
// guarantee an authenticated session with a matching role by the time this
// runs.
func (h *ConsoleHandler) Dashboard(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := h.session.Snapshot()
		return c.JSON(http.StatusOK, dashboardResponse{
			Area: string(role),
			User: snap.User,
		})
	}
}

// LoginPage renders a minimal login form posting to /session. It lives
// outside every guard so redirects here can never loop.
func (h *ConsoleHandler) LoginPage(role domain.Role) echo.HandlerFunc {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>CarryIT Rentals %[1]s login</title></head>
<body>
  <h1>%[1]s login</h1>
  <form method="post" action="/session">
    <label>Email <input type="email" name="email" required></label>
    <label>Password <input type="password" name="password" required></label>
    <button type="submit">Log in</button>
  </form>
</body>
</html>
`, role)
	return func(c echo.Context) error {
		return c.HTML(http.StatusOK, page)
	}
}
