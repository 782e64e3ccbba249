package services

import (
	"context"
	"io"

	"rotavault/internal/domain/models"
)

// FileService handles uploaded-file business logic: streaming uploads into
// blob storage and downloads out of it. Lifecycle operations go through the
// file tree's TrashService instead.
type FileService interface {
	// Upload streams the content into blob storage under a fresh object key
	// and records the file row.
	Upload(ctx context.Context, req *UploadRequest) (*models.StoredFile, error)

	GetFile(ctx context.Context, userID, id string) (*models.StoredFile, error)

	// Download opens the backing blob for streaming and increments the
	// file's download counter.
	Download(ctx context.Context, userID, id string) (io.ReadCloser, *models.StoredFile, error)

	ListFiles(ctx context.Context, userID string, folderID *string) ([]models.StoredFile, error)
}

// UploadRequest carries an upload's metadata and content stream.
type UploadRequest struct {
	OriginalName string
	FolderID     *string
	Shared       bool
	OwnerID      string
	Size         int64
	Content      io.Reader
}
