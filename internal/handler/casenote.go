package handler

import (
	"log/slog"
	"net/http"

	"rotavault/internal/domain/services"
	"rotavault/internal/httputil"
)

// CaseNoteHandler handles case-note HTTP requests.
type CaseNoteHandler struct {
	noteService services.CaseNoteService
	logger      *slog.Logger
}

// NewCaseNoteHandler creates a new case-note handler
func NewCaseNoteHandler(noteService services.CaseNoteService, logger *slog.Logger) *CaseNoteHandler {
	return &CaseNoteHandler{
		noteService: noteService,
		logger:      logger,
	}
}

// CreateNote creates a new case note
// POST /api/cases/items
func (h *CaseNoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCaseNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	note, err := h.noteService.CreateNote(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, note)
}

// GetNote retrieves a case note
// GET /api/cases/items/{id}
func (h *CaseNoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "case note ID is required")
		return
	}

	note, err := h.noteService.GetNote(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, note)
}

// UpdateNote updates a case note's fields
// PATCH /api/cases/items/{id}
func (h *CaseNoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "case note ID is required")
		return
	}

	var req services.UpdateCaseNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.noteService.UpdateNote(r.Context(), httputil.GetUserID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, note)
}

// ListNotes lists case notes, optionally scoped to a folder
// GET /api/cases/items?folder_id=...
func (h *CaseNoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}

	notes, err := h.noteService.ListNotes(r.Context(), httputil.GetUserID(r), folderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, notes)
}
