package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// ArchiveLister lists the trade archives written to object storage.
type ArchiveLister interface {
	ListArchives(ctx context.Context, day time.Time) ([]domain.BlobInfo, error)
}

// ArchiveHandler serves the archived trade objects. A nil lister means
// archival is not configured on this node.
type ArchiveHandler struct {
	archives ArchiveLister
	now      func() time.Time
	logger   *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. archives may be nil.
func NewArchiveHandler(archives ArchiveLister, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archives: archives,
		now:      time.Now,
		logger:   logHandler(logger, "archive"),
	}
}

// ListArchives returns the objects archived on ?day=YYYY-MM-DD (UTC,
// default today).
// GET /api/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.archives == nil {
		writeError(w, http.StatusNotFound, "trade archival is not enabled")
		return
	}

	day := h.now().UTC()
	if v := r.URL.Query().Get("day"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'day' parameter, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	objects, err := h.archives.ListArchives(r.Context(), day)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list archives")
		return
	}
	if objects == nil {
		objects = []domain.BlobInfo{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"day":     day.Format(time.DateOnly),
		"objects": objects,
		"count":   len(objects),
	})
}
