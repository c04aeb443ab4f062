package backend

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"idconsole/internal/api"
)

// TokenExpiry returns when token stops working. A JWT plaintext is trusted
// for its exp claim without verifying the signature, since only the backend
// holds the key; opaque tokens fall back to ExpiresAt.
func TokenExpiry(token api.APIToken) (time.Time, bool) {
	if token.Token != "" {
		claims := &jwt.RegisteredClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token.Token, claims); err == nil && claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time, true
		}
	}
	if token.ExpiresAt != nil {
		return *token.ExpiresAt, true
	}
	return time.Time{}, false
}
