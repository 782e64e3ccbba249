package repositories

import (
	"context"
	"time"

	"rotavault/internal/domain/models"
)

// FolderRepository is the tree store for one folder family (case folders or
// file folders). Reads return rows regardless of deleted_at unless noted:
// trashed folders are still valid parents during restore and purge cascades.
type FolderRepository interface {
	// Create inserts a new folder.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder in any state (live or trashed).
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// Update rewrites name, color, parent_id, shared and sort_order.
	Update(ctx context.Context, folder *models.Folder) error

	// ListChildren lists the direct children of a folder, in any state.
	ListChildren(ctx context.Context, parentID string) ([]models.Folder, error)

	// ListRoots lists live root-level folders visible to the owner
	// (owned or shared scope).
	ListRoots(ctx context.Context, ownerID string) ([]models.Folder, error)

	// ListVisible lists every live folder visible to the owner, flat.
	ListVisible(ctx context.Context, ownerID string) ([]models.Folder, error)

	// MaxSiblingOrder returns the highest sort_order among live siblings
	// under parentID for the owner, 0 when there are none.
	MaxSiblingOrder(ctx context.Context, parentID *string, ownerID string) (int, error)

	// SetDeletedAt stamps (or clears, when deletedAt is nil) deleted_at on
	// every folder in the id set.
	SetDeletedAt(ctx context.Context, ids []string, deletedAt *time.Time) error

	// DeleteByIDs removes folder rows permanently.
	DeleteByIDs(ctx context.Context, ids []string) error

	// ListTrashed lists the owner's trashed folders.
	ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error)
}
