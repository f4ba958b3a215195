package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager([]byte(testSecret), time.Hour)

	token, expiresAt, err := m.Issue("admin", 2)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, 2, claims.Version)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenExpires(t *testing.T) {
	m := NewTokenManager([]byte(testSecret), time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	token, _, err := m.Issue("admin", 0)
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejects(t *testing.T) {
	m := NewTokenManager([]byte(testSecret), time.Hour)
	other := NewTokenManager([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	foreign, _, err := other.Issue("admin", 0)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "admin", "iss": Issuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin", "iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin", "iss": Issuer,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "a.b.c",
		"other secret":   foreign,
		"alg none":       none,
		"wrong issuer":   wrongIssuer,
		"missing expiry": noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueWithoutSecret(t *testing.T) {
	_, _, err := NewTokenManager(nil, time.Hour).Issue("admin", 0)
	assert.Error(t, err)
}
