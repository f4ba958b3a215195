package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// CollectionLister reports the collections of the configured database.
type CollectionLister func(ctx context.Context) ([]string, error)

type SystemHandler struct {
	name        string
	collections CollectionLister
	logger      *logrus.Logger
}

func NewSystemHandler(name string, collections CollectionLister, logger *logrus.Logger) *SystemHandler {
	return &SystemHandler{name: name, collections: collections, logger: logger}
}

func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "name": h.name})
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// DBCheck lists collections. Failures are reported in the body with 503 and
// without driver detail.
func (h *SystemHandler) DBCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names, err := h.collections(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Database check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"detail": "database unavailable",
		})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "connected",
		"collections": names,
	})
}
