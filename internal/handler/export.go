package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rotavault/internal/domain/services"
	"rotavault/internal/httputil"
)

// ExportHandler streams zip archives of selected files and folder subtrees.
type ExportHandler struct {
	archiveService services.ArchiveService
	logger         *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(archiveService services.ArchiveService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		archiveService: archiveService,
		logger:         logger,
	}
}

// Export builds and streams a zip of the selection
// POST /api/files/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req services.ExportRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	entries, err := h.archiveService.BuildManifest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	filename := fmt.Sprintf("export-%s.zip", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	// Headers are gone; a mid-stream failure can only be logged.
	if err := h.archiveService.WriteZip(r.Context(), entries, w); err != nil {
		h.logger.Error("zip stream aborted", "error", err, "entry_count", len(entries))
	}
}
