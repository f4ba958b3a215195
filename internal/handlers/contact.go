package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

// ContactStore is the persistence the contact endpoints need.
type ContactStore interface {
	Create(ctx context.Context, c *models.Contact) error
	List(ctx context.Context, filter services.ContactFilter, opts models.ListOptions) (*models.Page[models.Contact], error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ContactHandler struct {
	store    ContactStore
	notifier Notifier
	events   EventPublisher
	logger   *logrus.Logger
}

func NewContactHandler(store ContactStore, notifier Notifier, events EventPublisher, logger *logrus.Logger) *ContactHandler {
	return &ContactHandler{store: store, notifier: notifier, events: events, logger: logger}
}

// ContactRequest is the public contact form.
type ContactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

func (req *ContactRequest) normalize() {
	req.FirstName = trimmed(req.FirstName)
	req.LastName = trimmed(req.LastName)
	req.Email = trimmed(req.Email)
	req.Company = trimmed(req.Company)
	req.Subject = trimmed(req.Subject)
	req.Message = trimmed(req.Message)
}

func (req *ContactRequest) validate() error {
	var errs utils.ValidationErrors
	if errs.Required("firstName", req.FirstName) {
		errs.MaxLength("firstName", req.FirstName, 100)
	}
	if errs.Required("lastName", req.LastName) {
		errs.MaxLength("lastName", req.LastName, 100)
	}
	errs.Email("email", req.Email)
	errs.MaxLength("company", req.Company, 200)
	if errs.Required("subject", req.Subject) {
		errs.MaxLength("subject", req.Subject, 200)
	}
	if errs.Required("message", req.Message) {
		errs.MaxLength("message", req.Message, 5000)
	}
	return errs.Err()
}

// ContactResponse returns the stored submission.
type ContactResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Contact *models.Contact `json:"contact"`
}

// Submit handles the public contact form.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.normalize()
	if err := req.validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	contact := &models.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Company:   req.Company,
		Subject:   req.Subject,
		Message:   req.Message,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Create(ctx, contact); err != nil {
		writeStoreError(w, h.logger, err, "Contact not found")
		return
	}

	notify(h.logger, "contact", func(ctx context.Context) error {
		return h.notifier.NotifyContact(ctx, contact)
	})
	h.events.Publish(r.Context(), services.Event{
		Type:    services.EventContactCreated,
		ID:      contact.ID.Hex(),
		Summary: contact.FullName() + ": " + contact.Subject,
	})

	writeJSON(w, http.StatusOK, ContactResponse{
		Success: true,
		Message: "Contact form submitted successfully",
		Contact: contact,
	})
}

// List returns submissions newest first. Admin only.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	var errs utils.ValidationErrors
	opts := parseListOptions(r, &errs)
	filter := services.ContactFilter{Read: parseOptionalBool(r, "read", &errs)}
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	page, err := h.store.List(ctx, filter, opts)
	if err != nil {
		writeStoreError(w, h.logger, err, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

// MarkRead flags a submission as read. Admin only.
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.MarkRead(ctx, id); err != nil {
		writeStoreError(w, h.logger, err, "Contact not found")
		return
	}
	writeMessage(w, http.StatusOK, "Contact marked as read")
}

// Delete removes a submission. Admin only.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Delete(ctx, id); err != nil {
		writeStoreError(w, h.logger, err, "Contact not found")
		return
	}
	writeMessage(w, http.StatusOK, "Contact deleted successfully")
}
