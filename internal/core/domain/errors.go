package domain

import "errors"

var (
	// ErrInvalidCredentials covers a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized covers a 401-class rejection of a bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoCredential means durable storage holds no usable credential.
	ErrNoCredential = errors.New("no stored credential")
	// ErrMalformedCredential means the stored profile snapshot could not be
	// decoded. The token fields may still be usable.
	ErrMalformedCredential = errors.New("malformed stored credential")
	// ErrSessionExpired is terminal: a refresh was rejected and the session
	// cannot be resurrected without a fresh login.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnknownRole means a backend role string fell outside the closed set.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUpstreamUnavailable wraps transport-level failures reaching the
	// property-management API.
	ErrUpstreamUnavailable = errors.New("upstream auth api unavailable")
)
