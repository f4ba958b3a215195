package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "wefixit", cfg.MongoDB)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "smtp.gmail.com:465", cfg.Mail.Addr())
	assert.True(t, cfg.Mail.ImplicitTLS)
	assert.False(t, cfg.Mail.Enabled())
	assert.Equal(t, defaultAllowedOrigins, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestLoad_ShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "Production")
	t.Setenv("MONGO_DB", "agency")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com/, https://b.example.com,,")
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("EMAIL_TO", "ops@example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_IMPLICIT_TLS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "agency", cfg.MongoDB)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.False(t, cfg.Mail.ImplicitTLS)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "soon")
	t.Setenv("SMTP_IMPLICIT_TLS", "maybe")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "ACCESS_TOKEN_EXPIRE_MINUTES"), msg)
	assert.True(t, strings.Contains(msg, "SMTP_IMPLICIT_TLS"), msg)
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGO_DB", "agency")

	cfg, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "agency", cfg.MongoDB)

	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "")
	_, err = LoadDatabase()
	assert.Error(t, err)
}
