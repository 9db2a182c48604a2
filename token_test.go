package autologin

import (
	"testing"
	"time"
)

func TestBearerExpiryExtractsExpClaim(t *testing.T) {
	exp := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	token := signedTestJWT(t, exp)

	got, ok := bearerExpiry(token)
	if !ok {
		t.Fatalf("expected exp claim on signed jwt")
	}
	if !got.Equal(exp) {
		t.Fatalf("expected %s, got %s", exp, got)
	}
}

func TestBearerExpiryOpaqueToken(t *testing.T) {
	for _, token := range []string{
		"",
		"opaque-bearer-123",
		"a.b",       // too few segments
		"not.a.jwt", // segments are not base64 JSON
	} {
		if _, ok := bearerExpiry(token); ok {
			t.Fatalf("opaque token %q must report no expiry", token)
		}
	}
}

func TestBearerExpiryIgnoresSignature(t *testing.T) {
	// The parser must never validate: a garbage signature still yields exp.
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signedTestJWT(t, exp)
	tampered := token[:len(token)-4] + "AAAA"

	got, ok := bearerExpiry(tampered)
	if !ok || !got.Equal(exp) {
		t.Fatalf("unverified parse must still read exp, ok=%t got=%s", ok, got)
	}
}
