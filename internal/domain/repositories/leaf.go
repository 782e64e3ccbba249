package repositories

import (
	"context"
	"time"

	"rotavault/internal/domain/models"
)

// LeafStore is the capability interface a leaf-item repository exposes to
// the trash lifecycle. Case notes and stored files implement it over their
// own tables; the lifecycle never learns which kind it is driving.
//
// Purge methods delete relation rows (tag links, versions, starred refs)
// before the leaf rows themselves, and return the purged leaves so the
// caller can remove backing blobs after commit.
type LeafStore interface {
	// Kind names the leaf family ("case" or "file") for logs.
	Kind() string

	// GetLeaf retrieves one leaf in any state.
	GetLeaf(ctx context.Context, id string) (*models.Leaf, error)

	// ListLeavesByFolder lists live leaves in a folder visible to the
	// owner; nil folderID means the root scope.
	ListLeavesByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.Leaf, error)

	// ListVisibleLeaves lists every live leaf visible to the owner, flat.
	ListVisibleLeaves(ctx context.Context, ownerID string) ([]models.Leaf, error)

	// SetDeletedAtByFolders stamps (or clears) deleted_at on every leaf
	// whose folder reference is in the set.
	SetDeletedAtByFolders(ctx context.Context, folderIDs []string, deletedAt *time.Time) error

	// SetDeletedAtByIDs stamps (or clears) deleted_at on the given leaves.
	SetDeletedAtByIDs(ctx context.Context, ids []string, deletedAt *time.Time) error

	// PurgeByFolders permanently removes every leaf attached to the folder
	// set, relations first.
	PurgeByFolders(ctx context.Context, folderIDs []string) ([]models.Leaf, error)

	// PurgeByIDs permanently removes the given leaves, relations first.
	PurgeByIDs(ctx context.Context, ids []string) ([]models.Leaf, error)

	// PurgeTrashed permanently removes every trashed leaf owned by ownerID.
	PurgeTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error)

	// ListTrashed lists the owner's trashed leaves.
	ListTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error)
}
