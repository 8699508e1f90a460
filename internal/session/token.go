package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// errNoExpiry is returned for tokens that carry no exp claim.
var errNoExpiry = errors.New("access token has no declared expiry")

// tokenExpiry decodes the access token's declared expiry. The signature is
// not verified: the server is the authority on validity, the client only
// needs the expiry to schedule refreshes.
func tokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
