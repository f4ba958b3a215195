package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

// ErrInvalidCredentials is returned for both an unknown username and a wrong
// password so callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// AdminStore is the part of the credential store the login flow needs.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdatePasswordHash(ctx context.Context, username, hash string, bumpVersion bool) error
}

// Authenticator moves a caller from anonymous to authenticated by checking a
// username and password and minting a token.
type Authenticator struct {
	admins    AdminStore
	tokens    *TokenManager
	logger    *logrus.Logger
	dummyHash string
}

// NewAuthenticator wires the login flow.
func NewAuthenticator(admins AdminStore, tokens *TokenManager, logger *logrus.Logger) *Authenticator {
	// Verified against on unknown usernames so both failure paths do the same work.
	dummy, err := utils.HashPassword("not-a-real-password")
	if err != nil {
		logger.WithError(err).Warn("Failed to prepare dummy password hash")
	}
	return &Authenticator{
		admins:    admins,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
	}
}

// Authenticate checks the credentials and returns the admin.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Admin, error) {
	admin, err := a.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.VerifyPassword(password, a.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.VerifyPassword(password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if utils.NeedsRehash(admin.PasswordHash) {
		a.upgradeHash(ctx, admin.Username, password)
	}
	return admin, nil
}

// Login authenticates and issues a token for the admin.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := a.tokens.Issue(admin.Username, admin.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Admin: admin, Token: token, ExpiresIn: int64(a.tokens.TTL().Seconds()), ExpiresAt: expiresAt.Unix()}, nil
}

// LoginResult is the artifact of a successful login.
type LoginResult struct {
	Admin     *models.Admin
	Token     string
	ExpiresIn int64
	ExpiresAt int64
}

// upgradeHash replaces a legacy hash after a successful login. Failures are
// logged only; the login itself already succeeded.
func (a *Authenticator) upgradeHash(ctx context.Context, username, password string) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to rehash password")
		return
	}
	if err := a.admins.UpdatePasswordHash(ctx, username, hash, false); err != nil {
		a.logger.WithError(err).WithField("username", username).Warn("Failed to store upgraded password hash")
		return
	}
	a.logger.WithField("username", username).Info("Upgraded admin password hash to argon2id")
}
