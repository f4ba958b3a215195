package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

// requestTimeout bounds each store call made on behalf of a request.
const requestTimeout = 10 * time.Second

// maxJSONBody is the largest JSON request body accepted.
const maxJSONBody = 1 << 20

// MessageResponse is the envelope for responses without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Errors  []*utils.ValidationError `json:"errors,omitempty"`
}

// ListResponse is the envelope for paginated listings.
type ListResponse[T any] struct {
	Success bool  `json:"success"`
	Total   int64 `json:"total"`
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	Items   []T   `json:"items"`
}

func newListResponse[T any](page *models.Page[T]) ListResponse[T] {
	return ListResponse[T]{
		Success: true,
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Items:   page.Items,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Success: false, Message: "Validation failed"}

	var fields utils.ValidationErrors
	var field *utils.ValidationError
	switch {
	case errors.As(err, &fields):
		resp.Errors = fields
	case errors.As(err, &field):
		resp.Errors = []*utils.ValidationError{field}
	default:
		resp.Message = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// writeStoreError maps store errors onto responses. Unexpected errors are
// logged and reported without detail.
func writeStoreError(w http.ResponseWriter, logger *logrus.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, "The resource was modified concurrently. Please retry.")
	case errors.Is(err, context.DeadlineExceeded):
		logger.WithError(err).Error("Store call timed out")
		writeError(w, http.StatusServiceUnavailable, "Database timeout")
	default:
		logger.WithError(err).Error("Store call failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body into v. An empty body is an error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseObjectID returns false for anything that is not a 24-hex ObjectID.
// Callers answer 404 in that case.
func parseObjectID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseListOptions reads limit and offset from the query string.
func parseListOptions(r *http.Request, errs *utils.ValidationErrors) models.ListOptions {
	opts := models.ListOptions{Limit: models.DefaultPageLimit}
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > models.MaxPageLimit {
			errs.Add("limit", "must be an integer between 1 and "+strconv.Itoa(models.MaxPageLimit))
		} else {
			opts.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			errs.Add("offset", "must be a non-negative integer")
		} else {
			opts.Offset = n
		}
	}
	return opts
}

// parseBool accepts the spellings HTML forms and query strings use.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// parseOptionalBool reads an optional boolean query parameter.
func parseOptionalBool(r *http.Request, key string, errs *utils.ValidationErrors) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, ok := parseBool(raw)
	if !ok {
		errs.Add(key, "must be a boolean")
		return nil
	}
	return &b
}

// trimmed returns s without surrounding whitespace.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// notify runs a best-effort notification: failures are logged, never returned.
func notify(logger *logrus.Logger, kind string, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		entry := logger.WithError(err).WithField("kind", kind)
		if errors.Is(err, services.ErrMailDisabled) {
			entry.Debug("Notification skipped")
			return
		}
		entry.Warn("Failed to send notification")
	}
}
