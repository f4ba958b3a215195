package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	List(ctx context.Context, activeOnly bool, opts models.ListOptions) (*models.Page[models.Project], error)
	Update(ctx context.Context, id primitive.ObjectID, update *models.ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProjectHandler struct {
	store  ProjectStore
	logger *logrus.Logger
}

func NewProjectHandler(store ProjectStore, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, logger: logger}
}

type ProjectResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Project *models.Project `json:"project"`
}

// validateProjectUpdate checks the supplied fields only, so it serves both
// create (after defaults are applied) and partial update.
func validateProjectUpdate(u *models.ProjectUpdate) error {
	var errs utils.ValidationErrors
	if u.Title != nil {
		*u.Title = trimmed(*u.Title)
		if errs.Required("title", *u.Title) {
			errs.MaxLength("title", *u.Title, 200)
		}
	}
	if u.Client != nil {
		*u.Client = trimmed(*u.Client)
		errs.MaxLength("client", *u.Client, 200)
	}
	if u.Description != nil {
		*u.Description = trimmed(*u.Description)
		errs.MaxLength("description", *u.Description, 5000)
	}
	if u.Status != nil && !u.Status.Valid() {
		errs.Add("status", "must be one of planned, in_progress, completed")
	}
	if u.URL != nil {
		*u.URL = trimmed(*u.URL)
		errs.MaxLength("url", *u.URL, 500)
	}
	if u.Technologies != nil {
		cleaned := make([]string, 0, len(*u.Technologies))
		for _, t := range *u.Technologies {
			if t = trimmed(t); t != "" {
				cleaned = append(cleaned, t)
			}
		}
		*u.Technologies = cleaned
		if len(cleaned) > 50 {
			errs.Add("technologies", "must contain at most 50 items")
		}
	}
	return errs.Err()
}

// List returns active projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll includes inactive projects. Admin only.
func (h *ProjectHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	var errs utils.ValidationErrors
	opts := parseListOptions(r, &errs)
	if err := errs.Err(); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	page, err := h.store.List(ctx, activeOnly, opts)
	if err != nil {
		writeStoreError(w, h.logger, err, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

// Get returns an active project; inactive ones are not found.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	project, err := h.store.Get(ctx, id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Project not found")
		return
	}
	if !project.IsActive {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, ProjectResponse{Success: true, Project: project})
}

// Create adds a project. Admin only.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == nil {
		empty := ""
		req.Title = &empty
	}
	if err := validateProjectUpdate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	project := &models.Project{Title: *req.Title, IsActive: true}
	if req.Client != nil {
		project.Client = *req.Client
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Technologies != nil {
		project.Technologies = *req.Technologies
	}
	if req.URL != nil {
		project.URL = *req.URL
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Create(ctx, project); err != nil {
		writeStoreError(w, h.logger, err, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, ProjectResponse{
		Success: true,
		Message: "Project created successfully",
		Project: project,
	})
}

// Update changes only the supplied fields. Admin only.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	var req models.ProjectUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateProjectUpdate(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	project, err := h.store.Update(ctx, id, &req)
	if err != nil {
		writeStoreError(w, h.logger, err, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, ProjectResponse{
		Success: true,
		Message: "Project updated successfully",
		Project: project,
	})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.Delete(ctx, id); err != nil {
		writeStoreError(w, h.logger, err, "Project not found")
		return
	}
	writeMessage(w, http.StatusOK, "Project deleted successfully")
}
