package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/auth"
	"github.com/wefixit/wefixit-backend/internal/metrics"
	"github.com/wefixit/wefixit-backend/internal/middleware"
	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/pkg/clientip"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

// Authenticator performs the username/password login.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// LoginAttempts records failed logins per client IP.
type LoginAttempts interface {
	RecordFailure(ctx context.Context, ip string) error
	Reset(ctx context.Context, ip string) error
}

type AuthHandler struct {
	auth     Authenticator
	attempts LoginAttempts
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

func NewAuthHandler(a Authenticator, attempts LoginAttempts, m *metrics.Metrics, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: a, attempts: attempts, metrics: m, logger: logger}
}

// LoginRequest is the JSON form of the login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MeResponse describes the signed-in admin.
type MeResponse struct {
	Success bool          `json:"success"`
	Admin   *models.Admin `json:"admin"`
}

// Login accepts form-encoded (OAuth2 password style) or JSON credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readLoginRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs utils.ValidationErrors
	errs.Required("username", req.Username)
	errs.Required("password", req.Password)
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ip := clientip.FromRequest(r)
	res, err := h.auth.Login(ctx, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.metrics.LoginAttempt("failure")
		if err := h.attempts.RecordFailure(ctx, ip); err != nil {
			h.logger.WithError(err).Warn("Failed to record login failure")
		}
		h.logger.WithFields(logrus.Fields{"username": req.Username, "ip": ip}).Warn("Failed admin login")
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Login failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.LoginAttempt("success")
	if err := h.attempts.Reset(ctx, ip); err != nil {
		h.logger.WithError(err).Warn("Failed to reset login attempts")
	}
	h.logger.WithField("username", res.Admin.Username).Info("Admin logged in")

	writeJSON(w, http.StatusOK, TokenResponse{
		Success:     true,
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresIn:   res.ExpiresIn,
	})
}

// Me returns the admin resolved by the auth gate.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Success: true, Admin: admin})
}

func readLoginRequest(w http.ResponseWriter, r *http.Request) (*LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxJSONBody); err != nil {
				return nil, err
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return &LoginRequest{
			Username: trimmed(r.PostFormValue("username")),
			Password: r.PostFormValue("password"),
		}, nil
	default:
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return nil, err
		}
		req.Username = trimmed(req.Username)
		return &req, nil
	}
}
