package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/domain/services"
	"rotavault/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLimit bounds how much of the upload is buffered for type detection.
const sniffLimit = 3072

type fileService struct {
	fileRepo     repositories.StoredFileRepository
	folderRepo   repositories.FolderRepository
	authorizer   services.ResourceAuthorizer
	blobs        storage.BlobStore
	maxSize      int64
	allowedTypes []string
	logger       *slog.Logger
}

// NewFileService creates the uploaded-file service over the file tree.
func NewFileService(
	fileRepo repositories.StoredFileRepository,
	folderRepo repositories.FolderRepository,
	authorizer services.ResourceAuthorizer,
	blobs storage.BlobStore,
	maxSize int64,
	allowedTypes []string,
	logger *slog.Logger,
) services.FileService {
	return &fileService{
		fileRepo:     fileRepo,
		folderRepo:   folderRepo,
		authorizer:   authorizer,
		blobs:        blobs,
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
		logger:       logger,
	}
}

// Upload sniffs the content type from the stream's first bytes, stores the
// content under a fresh object key, then records the file row. The object
// key is a UUID scoped under the owner; it never derives from the original
// filename, so renames and collisions never touch storage.
func (s *fileService) Upload(ctx context.Context, req *services.UploadRequest) (*models.StoredFile, error) {
	name := strings.TrimSpace(req.OriginalName)
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: file name cannot contain slashes", domain.ErrValidation)
	}
	if req.Size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	if s.maxSize > 0 && req.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file exceeds the %d byte upload limit",
			domain.ErrValidation, s.maxSize)
	}

	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}
	if req.FolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *req.FolderID)
		if err != nil {
			return nil, err
		}
		if err := s.authorizer.CanViewFolder(ctx, req.OwnerID, folder); err != nil {
			return nil, err
		}
		if folder.Trashed() {
			return nil, fmt.Errorf("%w: folder is in the trash", domain.ErrValidation)
		}
	}

	// Buffer just enough of the stream to detect the type, then stitch the
	// buffered head back in front of the rest for the storage write.
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(req.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload stream: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	content := io.MultiReader(bytes.NewReader(head), req.Content)

	if err := s.checkFileType(name, detected.String()); err != nil {
		return nil, err
	}

	blobPath := fmt.Sprintf("%s/%s", req.OwnerID, uuid.NewString())
	if err := s.blobs.Put(ctx, blobPath, content, req.Size, detected.String()); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	now := time.Now()
	file := &models.StoredFile{
		FolderID:     req.FolderID,
		OwnerID:      req.OwnerID,
		OriginalName: name,
		BlobPath:     blobPath,
		Size:         req.Size,
		MimeType:     detected.String(),
		Shared:       req.Shared,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		// The row never existed, so the object is orphaned; clean it up.
		if removeErr := s.blobs.Remove(ctx, blobPath); removeErr != nil {
			s.logger.Warn("failed to remove blob after aborted upload",
				"blob_path", blobPath, "error", removeErr)
		}
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"name", file.OriginalName,
		"size", file.Size,
		"mime_type", file.MimeType,
		"owner_id", file.OwnerID,
	)
	return file, nil
}

func (s *fileService) GetFile(ctx context.Context, userID, id string) (*models.StoredFile, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leaf := file.AsLeaf()
	if err := s.authorizer.CanViewLeaf(ctx, userID, &leaf); err != nil {
		return nil, err
	}
	return file, nil
}

// Download opens the backing blob and counts the download. A file whose
// blob has gone missing reports NotFound rather than an internal error.
func (s *fileService) Download(ctx context.Context, userID, id string) (io.ReadCloser, *models.StoredFile, error) {
	file, err := s.GetFile(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if file.Trashed() {
		return nil, nil, &domain.NotFoundError{Message: "file not found"}
	}

	reader, err := s.blobs.Get(ctx, file.BlobPath)
	if err != nil {
		if err == storage.ErrBlobNotFound {
			return nil, nil, &domain.NotFoundError{Message: "file content not found"}
		}
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}

	if err := s.fileRepo.IncrementDownloadCounts(ctx, []string{file.ID}); err != nil {
		s.logger.Warn("failed to count download", "file_id", file.ID, "error", err)
	}
	file.DownloadCount++

	return reader, file, nil
}

func (s *fileService) ListFiles(ctx context.Context, userID string, folderID *string) ([]models.StoredFile, error) {
	if folderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if err := s.authorizer.CanViewFolder(ctx, userID, folder); err != nil {
			return nil, err
		}
	}
	return s.fileRepo.ListByFolder(ctx, folderID, userID)
}

// checkFileType matches the upload against the configured allow-list.
// Entries are either extensions (".pdf") matched against the filename or
// MIME patterns ("application/pdf", "image/*") matched against the sniffed
// type. An empty list allows everything.
func (s *fileService) checkFileType(name, mimeType string) error {
	if len(s.allowedTypes) == 0 {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.allowedTypes {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		switch {
		case allowed == "":
			continue
		case strings.HasPrefix(allowed, "."):
			if ext == allowed {
				return nil
			}
		case strings.HasSuffix(allowed, "/*"):
			if strings.HasPrefix(mimeType, strings.TrimSuffix(allowed, "*")) {
				return nil
			}
		default:
			if mimeType == allowed {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: file type %q is not allowed", domain.ErrValidation, mimeType)
}
