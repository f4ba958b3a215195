package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wefixit/wefixit-backend/internal/middleware"
	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

// QuoteStore is the persistence the quote endpoints need.
type QuoteStore interface {
	Create(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Quote, error)
	List(ctx context.Context, opts models.ListOptions) (*models.Page[models.Quote], error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AppendReply(ctx context.Context, id primitive.ObjectID, content, admin string) (*models.QuoteReply, error)
	RemoveReply(ctx context.Context, id primitive.ObjectID, ref string) (*models.QuoteReply, error)
}

type QuoteHandler struct {
	store    QuoteStore
	notifier Notifier
	events   EventPublisher
	logger   *logrus.Logger
}

func NewQuoteHandler(store QuoteStore, notifier Notifier, events EventPublisher, logger *logrus.Logger) *QuoteHandler {
	return &QuoteHandler{store: store, notifier: notifier, events: events, logger: logger}
}

// QuoteRequest is the public quote request form.
type QuoteRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	Company            string   `json:"company"`
	ServiceType        string   `json:"serviceType"`
	ProjectTitle       string   `json:"projectTitle"`
	Description        string   `json:"description"`
	Features           []string `json:"features"`
	Timeline           string   `json:"timeline"`
	Budget             string   `json:"budget"`
	HasExistingWebsite string   `json:"hasExistingWebsite"`
	PreferredStyle     string   `json:"preferredStyle"`
	TargetAudience     string   `json:"targetAudience"`
	AdditionalNotes    string   `json:"additionalNotes"`
}

func (req *QuoteRequest) toModel() *models.Quote {
	features := make([]string, 0, len(req.Features))
	for _, f := range req.Features {
		if f = trimmed(f); f != "" {
			features = append(features, f)
		}
	}
	return &models.Quote{
		Name:               trimmed(req.Name),
		Email:              trimmed(req.Email),
		Phone:              trimmed(req.Phone),
		Company:            trimmed(req.Company),
		ServiceType:        trimmed(req.ServiceType),
		ProjectTitle:       trimmed(req.ProjectTitle),
		Description:        trimmed(req.Description),
		Features:           features,
		Timeline:           trimmed(req.Timeline),
		Budget:             trimmed(req.Budget),
		HasExistingWebsite: trimmed(req.HasExistingWebsite),
		PreferredStyle:     trimmed(req.PreferredStyle),
		TargetAudience:     trimmed(req.TargetAudience),
		AdditionalNotes:    trimmed(req.AdditionalNotes),
	}
}

func validateQuote(q *models.Quote) error {
	var errs utils.ValidationErrors
	if errs.Required("name", q.Name) {
		errs.MaxLength("name", q.Name, 200)
	}
	errs.Email("email", q.Email)
	errs.MaxLength("phone", q.Phone, 50)
	errs.MaxLength("company", q.Company, 200)
	if errs.Required("serviceType", q.ServiceType) {
		errs.MaxLength("serviceType", q.ServiceType, 100)
	}
	if errs.Required("projectTitle", q.ProjectTitle) {
		errs.MaxLength("projectTitle", q.ProjectTitle, 200)
	}
	if errs.Required("description", q.Description) {
		errs.MaxLength("description", q.Description, 5000)
	}
	if len(q.Features) > 50 {
		errs.Add("features", "must contain at most 50 items")
	}
	for _, f := range q.Features {
		if len(f) > 200 {
			errs.Add("features", "items must be at most 200 characters")
			break
		}
	}
	errs.Required("timeline", q.Timeline)
	errs.MaxLength("timeline", q.Timeline, 100)
	errs.MaxLength("budget", q.Budget, 100)
	errs.MaxLength("hasExistingWebsite", q.HasExistingWebsite, 200)
	errs.MaxLength("preferredStyle", q.PreferredStyle, 200)
	errs.MaxLength("targetAudience", q.TargetAudience, 500)
	errs.MaxLength("additionalNotes", q.AdditionalNotes, 5000)
	return errs.Err()
}

// QuoteResponse returns the stored quote request.
type QuoteResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Quote   *models.Quote `json:"quote"`
}

// ReplyRequest is the admin reply body.
type ReplyRequest struct {
	Content string `json:"content"`
}

// ReplyResponse returns the stored reply.
type ReplyResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Reply   *models.QuoteReply `json:"reply"`
}

// Submit handles the public quote request form.
func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	quote := req.toModel()
	if err := validateQuote(quote); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Create(ctx, quote); err != nil {
		writeStoreError(w, h.logger, err, "Quote not found")
		return
	}

	notify(h.logger, "quote", func(ctx context.Context) error {
		return h.notifier.NotifyQuote(ctx, quote)
	})
	h.events.Publish(r.Context(), services.Event{
		Type:    services.EventQuoteCreated,
		ID:      quote.ID.Hex(),
		Summary: quote.Name + ": " + quote.ProjectTitle,
	})

	writeJSON(w, http.StatusOK, QuoteResponse{
		Success: true,
		Message: "Quote created successfully",
		Quote:   quote,
	})
}

// List returns quote requests newest first. Admin only.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	var errs utils.ValidationErrors
	opts := parseListOptions(r, &errs)
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	page, err := h.store.List(ctx, opts)
	if err != nil {
		writeStoreError(w, h.logger, err, "Quote not found")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

// Delete removes a quote request and its replies. Admin only.
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Quote not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Delete(ctx, id); err != nil {
		writeStoreError(w, h.logger, err, "Quote not found")
		return
	}
	writeMessage(w, http.StatusOK, "Quote deleted successfully")
}

// Reply stores an admin reply and emails it to the requester. The reply
// stays stored when the email fails; the caller gets 502.
func (h *QuoteHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Quote not found")
		return
	}

	var req ReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Content = trimmed(req.Content)
	var errs utils.ValidationErrors
	if errs.Required("content", req.Content) {
		errs.MaxLength("content", req.Content, 5000)
	}
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	adminName := "admin"
	if admin, ok := middleware.AdminFromContext(r.Context()); ok {
		adminName = admin.Username
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	quote, err := h.store.Get(ctx, id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Quote not found")
		return
	}
	reply, err := h.store.AppendReply(ctx, id, req.Content, adminName)
	if err != nil {
		writeStoreError(w, h.logger, err, "Quote not found")
		return
	}

	if err := h.notifier.SendQuoteReply(ctx, quote, reply.Content); err != nil {
		h.logger.WithError(err).WithField("quote_id", id.Hex()).Error("Failed to email quote reply")
		writeError(w, http.StatusBadGateway, "Reply saved but the email could not be sent")
		return
	}

	h.logger.WithFields(logrus.Fields{"quote_id": id.Hex(), "admin": adminName}).Info("Quote reply sent")
	writeJSON(w, http.StatusOK, ReplyResponse{
		Success: true,
		Message: "Reply sent successfully",
		Reply:   reply,
	})
}

// DeleteReply removes one reply, addressed by position or reply id. Admin only.
func (h *QuoteHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Quote not found")
		return
	}
	ref := chi.URLParam(r, "ref")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if _, err := h.store.RemoveReply(ctx, id, ref); err != nil {
		writeStoreError(w, h.logger, err, "Reply not found")
		return
	}
	writeMessage(w, http.StatusOK, "Reply deleted successfully")
}
