package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"rotavault/internal/domain/services"
	"rotavault/internal/httputil"
)

// FileHandler handles uploaded-file HTTP requests.
type FileHandler struct {
	fileService services.FileService
	maxSize     int64
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler. maxSize bounds the multipart
// body the handler is willing to read.
func NewFileHandler(fileService services.FileService, maxSize int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		maxSize:     maxSize,
		logger:      logger,
	}
}

// Upload accepts a multipart upload
// POST /api/files/items
// Form fields: file (required), folder_id, shared
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Bound the whole body; the form metadata rides along with the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	req := &services.UploadRequest{
		OriginalName: header.Filename,
		Shared:       r.FormValue("shared") == "true",
		OwnerID:      httputil.GetUserID(r),
		Size:         header.Size,
		Content:      file,
	}
	if v := r.FormValue("folder_id"); v != "" {
		req.FolderID = &v
	}

	stored, err := h.fileService.Upload(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, stored)
}

// GetFile retrieves file metadata
// GET /api/files/items/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "file ID is required")
		return
	}

	file, err := h.fileService.GetFile(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// Download streams the file content
// GET /api/files/items/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "file ID is required")
		return
	}

	reader, file, err := h.fileService.Download(r.Context(), httputil.GetUserID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalName))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("download stream aborted", "file_id", file.ID, "error", err)
	}
}

// ListFiles lists files, optionally scoped to a folder
// GET /api/files/items?folder_id=...
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}

	files, err := h.fileService.ListFiles(r.Context(), httputil.GetUserID(r), folderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}
