package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "valid password", password: "mySecurePassword123!"},
		{name: "short password", password: "pass"},
		{name: "empty password", password: ""},
		{name: "password with unicode", password: "пароль🔐"},
		{name: "long password", password: strings.Repeat("long-", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"), "unexpected prefix: %s", hash)
			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			assert.NotEqual(t, tt.password, parts[4], "salt segment")
			assert.NotEqual(t, tt.password, parts[5], "digest segment")
			assert.NotEmpty(t, parts[4])
			assert.NotEmpty(t, parts[5])
			assert.True(t, VerifyPassword(tt.password, hash))
			assert.False(t, VerifyPassword(tt.password+"x", hash))
		})
	}
}

func TestHashPassword_Uniqueness(t *testing.T) {
	hash1, err := HashPassword("samePassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samePassword")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2, "salts should differ")
	assert.True(t, VerifyPassword("samePassword", hash1))
	assert.True(t, VerifyPassword("samePassword", hash2))
}

func TestVerifyPassword_DifferentPasswords(t *testing.T) {
	hash, err := HashPassword("first")
	require.NoError(t, err)

	assert.False(t, VerifyPassword("second", hash))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	valid, err := HashPassword("secret")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2i$v=19$m=65536,t=3,p=2$" + parts[4] + "$" + parts[5],
		"$argon2id$v=18$m=65536,t=3,p=2$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=0,t=3,p=2$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$garbage$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$" + parts[5],
		"$argon2id$v=19$m=65536,t=3,p=2$" + parts[4] + "$",
		"$2b$10$tooshort",
	}
	for _, h := range malformed {
		assert.NotPanics(t, func() {
			assert.False(t, VerifyPassword("secret", h), "hash %q should not verify", h)
		})
	}
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword("admin123", string(legacy)))
	assert.False(t, VerifyPassword("wrongpass", string(legacy)))
	assert.True(t, NeedsRehash(string(legacy)))
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))

	weaker := strings.Replace(hash, "t=3", "t=1", 1)
	assert.True(t, NeedsRehash(weaker))
	assert.True(t, NeedsRehash("garbage"))
}
