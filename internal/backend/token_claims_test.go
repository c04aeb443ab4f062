package backend

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"idconsole/internal/api"
)

func TestTokenExpiryReadsJWTClaim(t *testing.T) {
	exp := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ci",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-only-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, ok := TokenExpiry(api.APIToken{Token: signed})
	if !ok {
		t.Fatal("expected expiry from jwt")
	}
	if !got.Equal(exp) {
		t.Fatalf("expiry = %v, want %v", got, exp)
	}
}

func TestTokenExpiryFallsBackToRecord(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	got, ok := TokenExpiry(api.APIToken{Token: "idc_opaque", ExpiresAt: &exp})
	if !ok || !got.Equal(exp) {
		t.Fatalf("expiry = %v %v", got, ok)
	}
}

func TestTokenExpiryNever(t *testing.T) {
	if _, ok := TokenExpiry(api.APIToken{Token: "idc_opaque"}); ok {
		t.Fatal("expected no expiry")
	}
}
