package handler

import (
	"log/slog"
	"net/http"

	"rotavault/internal/domain/services"
	"rotavault/internal/httputil"
)

// TrashHandler handles trash lifecycle HTTP requests for one tree family.
type TrashHandler struct {
	trashService services.TrashService
	logger       *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(trashService services.TrashService, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{
		trashService: trashService,
		logger:       logger,
	}
}

// ListTrash lists trashed folders and items
// GET /api/{kind}/trash
func (h *TrashHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	contents, err := h.trashService.ListTrash(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}

// EmptyTrash purges everything trashed owned by the caller
// DELETE /api/{kind}/trash
func (h *TrashHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	if err := h.trashService.EmptyTrash(r.Context(), httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TrashFolder soft-deletes a folder subtree
// DELETE /api/{kind}/folders/{id}
func (h *TrashHandler) TrashFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	if err := h.trashService.SoftDeleteFolder(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreFolder restores a trashed folder subtree
// POST /api/{kind}/folders/{id}/restore
func (h *TrashHandler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	if err := h.trashService.RestoreFolder(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurgeFolder permanently removes a folder subtree
// DELETE /api/{kind}/folders/{id}/purge
func (h *TrashHandler) PurgeFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	if err := h.trashService.PurgeFolder(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TrashItem soft-deletes a single item
// DELETE /api/{kind}/items/{id}
func (h *TrashHandler) TrashItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	if err := h.trashService.SoftDeleteLeaf(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreItem restores a trashed item
// POST /api/{kind}/items/{id}/restore
func (h *TrashHandler) RestoreItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	if err := h.trashService.RestoreLeaf(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurgeItem permanently removes a single item
// DELETE /api/{kind}/items/{id}/purge
func (h *TrashHandler) PurgeItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	if err := h.trashService.PurgeLeaf(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
