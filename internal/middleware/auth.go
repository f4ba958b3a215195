package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/auth"
	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
)

type contextKey string

const adminContextKey contextKey = "admin"

// ErrUnauthorized is returned by AuthGate.Authenticate for any rejected caller.
var ErrUnauthorized = errors.New("could not validate credentials")

// AdminLookup resolves the admin named in a token.
type AdminLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// AuthGate admits only requests carrying a valid token for an existing admin
// whose token version still matches.
type AuthGate struct {
	tokens *auth.TokenManager
	admins AdminLookup
	logger *logrus.Logger
}

func NewAuthGate(tokens *auth.TokenManager, admins AdminLookup, logger *logrus.Logger) *AuthGate {
	return &AuthGate{tokens: tokens, admins: admins, logger: logger}
}

// Authenticate validates a raw token. Store failures are returned as-is;
// every other rejection is ErrUnauthorized.
func (g *AuthGate) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	admin, err := g.admins.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, services.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if admin.TokenVersion != claims.Version {
		return nil, ErrUnauthorized
	}
	return admin, nil
}

// RequireAdmin rejects the request with 401 unless it carries a Bearer token
// that passes Authenticate. The admin is stored on the request context.
func (g *AuthGate) RequireAdmin(next http.Handler) http.Handler {
	return g.require(next, false)
}

// RequireAdminQuery is RequireAdmin that also accepts the token in the
// "token" query parameter, for browser websocket clients.
func (g *AuthGate) RequireAdminQuery(next http.Handler) http.Handler {
	return g.require(next, true)
}

func (g *AuthGate) require(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r.Header.Get("Authorization"))
		if token == "" && allowQuery {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			unauthorized(w, "Could not validate credentials")
			return
		}

		admin, err := g.Authenticate(r.Context(), token)
		if errors.Is(err, ErrUnauthorized) {
			unauthorized(w, "Could not validate credentials")
			return
		}
		if err != nil {
			g.logger.WithError(err).Error("Failed to load admin for token")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminFromContext returns the admin stored by RequireAdmin.
func AdminFromContext(ctx context.Context) (*models.Admin, bool) {
	admin, ok := ctx.Value(adminContextKey).(*models.Admin)
	return admin, ok && admin != nil
}

// WithAdmin stores admin on ctx the way RequireAdmin does.
func WithAdmin(ctx context.Context, admin *models.Admin) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message)
}
