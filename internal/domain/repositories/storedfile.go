package repositories

import (
	"context"

	"rotavault/internal/domain/models"
)

// StoredFileRepository provides data access for uploaded files.
// It also implements LeafStore for the file-folder trash lifecycle.
type StoredFileRepository interface {
	LeafStore

	Create(ctx context.Context, file *models.StoredFile) error
	GetByID(ctx context.Context, id string) (*models.StoredFile, error)
	Update(ctx context.Context, file *models.StoredFile) error

	// ListByFolder lists live files in a folder; a nil folderID means the
	// root scope, restricted to files visible to the owner.
	ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.StoredFile, error)

	// ListLiveByFolder lists live files in a folder regardless of owner;
	// the archive walk gates access at the folder level.
	ListLiveByFolder(ctx context.Context, folderID string) ([]models.StoredFile, error)

	// ListVisible lists every live file visible to the owner, flat.
	ListVisible(ctx context.Context, ownerID string) ([]models.StoredFile, error)

	// GetByIDs retrieves files by id set, in any state.
	GetByIDs(ctx context.Context, ids []string) ([]models.StoredFile, error)

	// IncrementDownloadCounts bumps download_count by one for each id.
	IncrementDownloadCounts(ctx context.Context, ids []string) error
}
