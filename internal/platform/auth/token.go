package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken when the
// caller passes zero.
const DefaultTokenTTL = 12 * time.Hour

// IssueToken signs an HS256 token for userID carrying roles. It is used by
// the token command to hand out staff credentials.
func IssueToken(cfg JWTConfig, userID string, roles []string, ttl time.Duration, now time.Time) (string, error) {
	if len(cfg.SigningKey) == 0 {
		return "", fmt.Errorf("no signing key configured")
	}
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	for _, r := range roles {
		if !KnownRole(r) {
			return "", fmt.Errorf("unknown role %q", r)
		}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
