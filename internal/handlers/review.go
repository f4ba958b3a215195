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

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	List(ctx context.Context, approvedOnly bool, opts models.ListOptions) (*models.Page[models.Review], error)
	Approve(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ReviewHandler struct {
	store  ReviewStore
	events EventPublisher
	logger *logrus.Logger
}

func NewReviewHandler(store ReviewStore, events EventPublisher, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{store: store, events: events, logger: logger}
}

type ReviewRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Role    string `json:"role"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

func (req *ReviewRequest) validate() error {
	var errs utils.ValidationErrors
	if errs.Required("name", req.Name) {
		errs.MaxLength("name", req.Name, 100)
	}
	errs.MaxLength("company", req.Company, 200)
	errs.MaxLength("role", req.Role, 100)
	if req.Rating < models.MinReviewRating || req.Rating > models.MaxReviewRating {
		errs.Add("rating", "must be between 1 and 5")
	}
	if errs.Required("content", req.Content) {
		errs.MaxLength("content", req.Content, 2000)
	}
	return errs.Err()
}

type ReviewResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Review  *models.Review `json:"review"`
}

// Submit stores a public review. It stays hidden until approved.
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name, req.Company, req.Role, req.Content = trimmed(req.Name), trimmed(req.Company), trimmed(req.Role), trimmed(req.Content)
	if err := req.validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	review := &models.Review{
		Name:    req.Name,
		Company: req.Company,
		Role:    req.Role,
		Rating:  req.Rating,
		Content: req.Content,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Create(ctx, review); err != nil {
		writeStoreError(w, h.logger, err, "Review not found")
		return
	}

	h.events.Publish(r.Context(), services.Event{
		Type:    services.EventReviewCreated,
		ID:      review.ID.Hex(),
		Summary: review.Name,
	})

	writeJSON(w, http.StatusOK, ReviewResponse{
		Success: true,
		Message: "Thank you! Your review will appear once approved.",
		Review:  review,
	})
}

// ListApproved is the public listing.
func (h *ReviewHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll includes unapproved reviews. Admin only.
func (h *ReviewHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ReviewHandler) list(w http.ResponseWriter, r *http.Request, approvedOnly bool) {
	var errs utils.ValidationErrors
	opts := parseListOptions(r, &errs)
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	page, err := h.store.List(ctx, approvedOnly, opts)
	if err != nil {
		writeStoreError(w, h.logger, err, "Review not found")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Approve(ctx, id); err != nil {
		writeStoreError(w, h.logger, err, "Review not found")
		return
	}
	writeMessage(w, http.StatusOK, "Review approved")
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Delete(ctx, id); err != nil {
		writeStoreError(w, h.logger, err, "Review not found")
		return
	}
	writeMessage(w, http.StatusOK, "Review deleted successfully")
}
