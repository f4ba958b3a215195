package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

// maxMultipartBody leaves room for the text fields next to a full-size image.
const maxMultipartBody = services.MaxImageSize + 1<<20

// PortfolioStore is the persistence the portfolio endpoints need.
type PortfolioStore interface {
	Create(ctx context.Context, item *models.PortfolioItem) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.PortfolioItem, error)
	List(ctx context.Context, filter models.PortfolioFilter, opts models.ListOptions) (*models.Page[models.PortfolioItem], error)
	Update(ctx context.Context, id primitive.ObjectID, update *models.PortfolioUpdate) (*models.PortfolioItem, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.PortfolioItem, error)
}

type PortfolioHandler struct {
	store   PortfolioStore
	storage services.Storage
	logger  *logrus.Logger
}

func NewPortfolioHandler(store PortfolioStore, storage services.Storage, logger *logrus.Logger) *PortfolioHandler {
	return &PortfolioHandler{store: store, storage: storage, logger: logger}
}

// PortfolioResponse returns a single item.
type PortfolioResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Item    *models.PortfolioItem `json:"item"`
}

// portfolioForm is the parsed multipart (or urlencoded) form. Only keys that
// were present are set, so it doubles as a partial update.
type portfolioForm struct {
	update models.PortfolioUpdate
	image  *multipart.FileHeader
}

func parsePortfolioForm(w http.ResponseWriter, r *http.Request) (*portfolioForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(services.MaxImageSize); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}

	var errs utils.ValidationErrors
	form := &portfolioForm{}
	values := r.PostForm

	text := func(key string) *string {
		if _, ok := values[key]; !ok {
			return nil
		}
		v := trimmed(values.Get(key))
		return &v
	}
	flag := func(key string) *bool {
		if _, ok := values[key]; !ok {
			return nil
		}
		b, ok := parseBool(values.Get(key))
		if !ok {
			errs.Add(key, "must be a boolean")
			return nil
		}
		return &b
	}

	u := &form.update
	u.Title = text("title")
	u.Description = text("description")
	u.Category = text("category")
	u.Link = text("link")
	u.IsFeatured = flag("is_featured")
	u.IsActive = flag("is_active")
	if raw, ok := values["tags"]; ok {
		tags := splitTags(raw)
		u.Tags = &tags
	}

	if u.Title != nil {
		if errs.Required("title", *u.Title) {
			errs.MaxLength("title", *u.Title, 200)
		}
	}
	if u.Description != nil {
		errs.MaxLength("description", *u.Description, 5000)
	}
	if u.Category != nil {
		errs.MaxLength("category", *u.Category, 100)
	}
	if u.Link != nil {
		errs.MaxLength("link", *u.Link, 500)
	}
	if u.Tags != nil && len(*u.Tags) > 30 {
		errs.Add("tags", "must contain at most 30 tags")
	}

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 && files[0].Filename != "" {
			form.image = files[0]
			if form.image.Size > services.MaxImageSize {
				errs.Add("image", "must be at most 10MB")
			} else if _, err := services.ImageName(form.image.Filename); err != nil {
				errs.Add("image", err.Error())
			}
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return form, nil
}

// splitTags accepts repeated fields and comma separated lists.
func splitTags(raw []string) []string {
	tags := []string{}
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func (h *PortfolioHandler) writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	var fields utils.ValidationErrors
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the 10MB limit")
	case errors.As(err, &fields):
		writeValidationError(w, err)
	default:
		writeError(w, http.StatusBadRequest, "Invalid form data")
	}
}

// saveImage stores the uploaded file and returns its URL.
func (h *PortfolioHandler) saveImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	name, err := services.ImageName(fh.Filename)
	if err != nil {
		return "", err
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.storage.Save(ctx, name, f)
}

// removeImage deletes a stored image best-effort.
func (h *PortfolioHandler) removeImage(url string) {
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := h.storage.Delete(ctx, url); err != nil {
		h.logger.WithError(err).WithField("image", url).Warn("Failed to delete image")
	}
}

// List returns portfolio items filtered by is_active, is_featured and category.
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	var errs utils.ValidationErrors
	opts := parseListOptions(r, &errs)
	filter := models.PortfolioFilter{
		IsActive:   parseOptionalBool(r, "is_active", &errs),
		IsFeatured: parseOptionalBool(r, "is_featured", &errs),
		Category:   trimmed(r.URL.Query().Get("category")),
	}
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	page, err := h.store.List(ctx, filter, opts)
	if err != nil {
		writeStoreError(w, h.logger, err, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	item, err := h.store.Get(ctx, id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, PortfolioResponse{Success: true, Item: item})
}

// Create adds an item from a multipart form. Admin only.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parsePortfolioForm(w, r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}
	u := form.update
	if u.Title == nil {
		writeValidationError(w, &utils.ValidationError{Field: "title", Message: "field required"})
		return
	}

	item := &models.PortfolioItem{Title: *u.Title, IsActive: true}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Link != nil {
		item.Link = *u.Link
	}
	if u.Tags != nil {
		item.Tags = *u.Tags
	}
	if u.IsFeatured != nil {
		item.IsFeatured = *u.IsFeatured
	}
	if u.IsActive != nil {
		item.IsActive = *u.IsActive
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if form.image != nil {
		if item.Image, err = h.saveImage(ctx, form.image); err != nil {
			h.logger.WithError(err).Error("Failed to store image")
			writeError(w, http.StatusInternalServerError, "Failed to store image")
			return
		}
	}

	if err := h.store.Create(ctx, item); err != nil {
		h.removeImage(item.Image)
		writeStoreError(w, h.logger, err, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, PortfolioResponse{
		Success: true,
		Message: "Portfolio item created successfully",
		Item:    item,
	})
}

// Update applies the supplied form fields. Admin only.
func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	form, err := parsePortfolioForm(w, r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var oldImage string
	if form.image != nil {
		existing, err := h.store.Get(ctx, id)
		if err != nil {
			writeStoreError(w, h.logger, err, "Item not found")
			return
		}
		oldImage = existing.Image

		url, err := h.saveImage(ctx, form.image)
		if err != nil {
			h.logger.WithError(err).Error("Failed to store image")
			writeError(w, http.StatusInternalServerError, "Failed to store image")
			return
		}
		form.update.Image = &url
	}

	item, err := h.store.Update(ctx, id, &form.update)
	if err != nil {
		if form.update.Image != nil {
			h.removeImage(*form.update.Image)
		}
		writeStoreError(w, h.logger, err, "Item not found")
		return
	}
	if form.update.Image != nil && oldImage != *form.update.Image {
		h.removeImage(oldImage)
	}

	writeJSON(w, http.StatusOK, PortfolioResponse{
		Success: true,
		Message: "Portfolio item updated successfully",
		Item:    item,
	})
}

// Delete removes an item and its image. Admin only.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	item, err := h.store.Delete(ctx, id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Item not found")
		return
	}
	h.removeImage(item.Image)
	writeMessage(w, http.StatusOK, "Portfolio item deleted successfully")
}
