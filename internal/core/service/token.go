package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenParser skips claim validation: the gateway consumes tokens it did not
// issue and cannot verify their signatures. It only needs the expiry claim;
// the backend re-verifies every request it receives.
var tokenParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// accessTokenValid reports whether the bearer token carries an exp claim
// still at least leeway in the future. Missing, unparseable, or exp-less
// tokens are invalid rather than errors; callers fall back to refresh or
// login, never to a retry loop.
func accessTokenValid(token string, now time.Time, leeway time.Duration) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(leeway).Before(exp.Time)
}
