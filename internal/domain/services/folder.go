package services

import (
	"context"

	"rotavault/internal/domain/models"
	"rotavault/internal/httputil"
)

// FolderService handles folder business logic for one tree family. The
// server wires two instances, one over the case-folder tables and one over
// the file-folder tables.
type FolderService interface {
	// CreateFolder creates a folder, enforcing the depth limit and
	// assigning the next sibling sort order.
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// GetFolder retrieves a folder with its direct children and leaves.
	GetFolder(ctx context.Context, userID, id string) (*FolderContents, error)

	// UpdateFolder renames, recolors, reorders or moves a folder. Moves are
	// rejected when they would create a cycle or exceed the depth limit.
	UpdateFolder(ctx context.Context, userID, id string, req *UpdateFolderRequest) (*models.Folder, error)

	// ListRoot lists the caller's root-level folders and leaves.
	ListRoot(ctx context.Context, userID string) (*FolderContents, error)

	// GetTree returns the caller's full nested live tree.
	GetTree(ctx context.Context, userID string) (*models.Tree, error)
}

// CreateFolderRequest represents a folder creation request.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	Color    string  `json:"color,omitempty"`
	ParentID *string `json:"parent_id,omitempty"` // null for root
	Shared   bool    `json:"shared"`
	OwnerID  string  `json:"-"` // from auth context, never the body
}

// UpdateFolderRequest represents a folder update request. ParentID is
// tri-state: absent leaves the location alone, null moves to root, a value
// moves under that folder.
type UpdateFolderRequest struct {
	Name      *string                 `json:"name,omitempty"`
	Color     *string                 `json:"color,omitempty"`
	SortOrder *int                    `json:"sort_order,omitempty"`
	ParentID  httputil.OptionalString `json:"parent_id,omitempty"`
}

// FolderContents is a folder with its direct children.
type FolderContents struct {
	Folder  *models.Folder  `json:"folder,omitempty"` // nil for root scope
	Folders []models.Folder `json:"folders"`
	Leaves  []models.Leaf   `json:"items"`
}
