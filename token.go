package autologin

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var bearerParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// bearerExpiry extracts the exp claim from a stored bearer without
// verifying the signature. Bearers are issued and validated remotely; the
// expiry only decides whether a persisted session is still worth keeping
// during duplicate suppression. Opaque (non-JWT) bearers report ok=false
// and are treated as non-expiring.
func bearerExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := bearerParser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
