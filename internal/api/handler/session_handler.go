package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

// SessionHandler exposes the session lifecycle over HTTP: log in, inspect,
// log out. It only reads snapshots and dispatches into the container; the
// container and service own every state mutation.
type SessionHandler struct {
	session ports.SessionContainer
}

func NewSessionHandler(session ports.SessionContainer) *SessionHandler {
	return &SessionHandler{session: session}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type sessionResponse struct {
	User            *domain.User `json:"user,omitempty"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsLoading       bool         `json:"is_loading"`
	Error           string       `json:"error,omitempty"`
	RedirectTo      string       `json:"redirect_to,omitempty"`
}

func snapshotResponse(snap ports.SessionSnapshot) sessionResponse {
	return sessionResponse{
		User:            snap.User,
		IsAuthenticated: snap.IsAuthenticated,
		IsLoading:       snap.IsLoading,
		Error:           snap.Error,
	}
}

// Login authenticates the operator and reports where to go next.
//
// @Summary      Log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /session [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.session.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}

	// The redirect target is only decided once the profile fetch has
	// resolved the role.
	snap := h.session.Snapshot()
	resp := snapshotResponse(snap)
	if snap.User != nil {
		resp.RedirectTo = snap.User.Role.DashboardRoute()
	}
	return c.JSON(http.StatusOK, resp)
}

// Show returns the current session snapshot, the read accessor the console
// pages poll.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Show(c echo.Context) error {
	return c.JSON(http.StatusOK, snapshotResponse(h.session.Snapshot()))
}

// Logout tears the session down. Always succeeds, even when already logged
// out.
//
// @Summary      Log out
// @Tags         session
// @Success      204
// @Router       /session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.session.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
