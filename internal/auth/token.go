// Package auth issues and verifies admin bearer tokens and implements the
// username/password login flow.
//
// Tokens are HS256 JWTs signed with the process-wide JWT_SECRET. They carry
// the admin username as subject and the admin's token version; there is no
// server-side session state, so a token stays valid until it expires unless
// the admin is deleted or its password is reset.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the JWT issuer claim for admin tokens.
const Issuer = "wefixit-api"

// ErrInvalidToken is returned for any token that must be rejected: bad
// signature, malformed encoding, wrong algorithm or expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the JWT claims of an admin token.
type Claims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies admin tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenManager creates a manager that issues tokens valid for ttl.
func NewTokenManager(secretKey []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: secretKey,
		ttl:       ttl,
		now:       time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a token for subject. version must match the admin's current
// token version for the token to be accepted later.
func (m *TokenManager) Issue(subject string, version int) (string, time.Time, error) {
	if len(m.secretKey) == 0 {
		return "", time.Time{}, errors.New("secret key is empty")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// claims. Every failure is reported as ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if len(m.secretKey) == 0 || tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
