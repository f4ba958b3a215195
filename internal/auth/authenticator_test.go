package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wefixit/wefixit-backend/internal/logging"
	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

type memoryAdmins struct {
	admins  map[string]*models.Admin
	updates int
}

func (m *memoryAdmins) FindByUsername(_ context.Context, username string) (*models.Admin, error) {
	admin, ok := m.admins[username]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *admin
	return &copied, nil
}

func (m *memoryAdmins) UpdatePasswordHash(_ context.Context, username, hash string, bumpVersion bool) error {
	admin, ok := m.admins[username]
	if !ok {
		return services.ErrNotFound
	}
	admin.PasswordHash = hash
	if bumpVersion {
		admin.TokenVersion++
	}
	m.updates++
	return nil
}

func newAuthenticator(t *testing.T, admins *memoryAdmins) *Authenticator {
	t.Helper()
	return NewAuthenticator(admins, NewTokenManager([]byte(testSecret), time.Hour), logging.Discard())
}

func TestLoginSuccess(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	admins := &memoryAdmins{admins: map[string]*models.Admin{
		"admin": {Username: "admin", PasswordHash: hash, TokenVersion: 4},
	}}
	a := newAuthenticator(t, admins)

	res, err := a.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.EqualValues(t, 3600, res.ExpiresIn)

	claims, err := a.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, 4, claims.Version)
	assert.Zero(t, admins.updates)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	a := newAuthenticator(t, &memoryAdmins{admins: map[string]*models.Admin{
		"admin": {Username: "admin", PasswordHash: hash},
	}})

	_, errUnknown := a.Login(context.Background(), "nobody", "s3cret")
	_, errWrong := a.Login(context.Background(), "admin", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admins := &memoryAdmins{admins: map[string]*models.Admin{
		"admin": {Username: "admin", PasswordHash: string(legacy)},
	}}
	a := newAuthenticator(t, admins)

	_, err = a.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	upgraded := admins.admins["admin"].PasswordHash
	assert.Equal(t, 1, admins.updates)
	assert.False(t, utils.NeedsRehash(upgraded))
	assert.True(t, utils.VerifyPassword("s3cret", upgraded))
	assert.Zero(t, admins.admins["admin"].TokenVersion)
}
