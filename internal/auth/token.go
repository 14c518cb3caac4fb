package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload attached to issued tokens. Label carries the
// credential class ("" for human users, the configured client label for
// service credentials).
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Label    string `json:"label,omitempty"`
}

// IssueToken creates a signed HS256 access token for the given principal.
func IssueToken(principalID, username, label, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Username: username,
		Label:    label,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a signed token and returns the principal it carries.
func VerifyToken(tokenString, secret string) (Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return Principal{}, fmt.Errorf("invalid token")
	}

	return Principal{ID: claims.Subject, Username: claims.Username, Label: claims.Label}, nil
}
