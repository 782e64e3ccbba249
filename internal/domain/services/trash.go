package services

import (
	"context"

	"rotavault/internal/domain/models"
)

// TrashService drives the soft-delete lifecycle for one tree family:
// Live → Trashed → (Restored → Live) | (Purged → gone).
//
// Folder operations cascade over the whole subtree plus contained leaves in
// one transaction; leaf operations touch a single row. All operations are
// idempotent with respect to the deleted_at value: re-trashing a trashed
// node refreshes the timestamp, restoring a live node is a no-op success.
type TrashService interface {
	// SoftDeleteFolder trashes the folder, its descendants, and every leaf
	// attached to any of them, all with one shared timestamp.
	SoftDeleteFolder(ctx context.Context, userID, folderID string) error

	// RestoreFolder clears deleted_at on the same recomputed set. A folder
	// whose former parent was purged is promoted to root.
	RestoreFolder(ctx context.Context, userID, folderID string) error

	// PurgeFolder irreversibly removes the subtree: leaf relation rows
	// first, then leaf rows, then folder rows; backing blobs afterwards.
	PurgeFolder(ctx context.Context, userID, folderID string) error

	// SoftDeleteLeaf, RestoreLeaf and PurgeLeaf are the single-item
	// counterparts; purge skips the subtree walk but keeps the
	// relations-then-rows deletion order.
	SoftDeleteLeaf(ctx context.Context, userID, leafID string) error
	RestoreLeaf(ctx context.Context, userID, leafID string) error
	PurgeLeaf(ctx context.Context, userID, leafID string) error

	// EmptyTrash purges everything trashed owned by the caller in one
	// transaction for this family.
	EmptyTrash(ctx context.Context, userID string) error

	// ListTrash lists the caller's trashed folders and leaves.
	ListTrash(ctx context.Context, userID string) (*TrashContents, error)
}

// TrashContents is the caller's trash for one tree family.
type TrashContents struct {
	Folders []models.Folder `json:"folders"`
	Leaves  []models.Leaf   `json:"items"`
}
