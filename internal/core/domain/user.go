package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of console roles the gateway knows about.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// ParseRole normalizes a backend role string into the closed Role set.
// Backend payloads are loose about formatting ("ADMIN", "UserRole.AGENT"),
// so the raw value is case-folded and any enum-style namespace prefix is
// stripped before comparison.
func ParseRole(raw string) (Role, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	switch r := Role(s); r {
	case RoleOwner, RoleAdmin, RoleAgent:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// DashboardRoute is the console entry point for the role.
func (r Role) DashboardRoute() string { return "/" + string(r) }

// LoginRoute is the login surface for the role.
func (r Role) LoginRoute() string { return "/" + string(r) + "/login" }

// User is the profile snapshot cached alongside the token pair.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone,omitempty"`
}
