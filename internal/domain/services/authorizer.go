package services

import (
	"context"

	"rotavault/internal/domain/models"
)

// ResourceAuthorizer is the ownership/shared-scope gate evaluated before
// every operation. Visibility failures surface as NotFound so that probing
// ids reveals nothing; ownership failures on lifecycle mutations surface
// as Forbidden.
type ResourceAuthorizer interface {
	// CanViewFolder: owner or shared scope, else NotFound.
	CanViewFolder(ctx context.Context, userID string, folder *models.Folder) error

	// CanEditFolder: rename/recolor/move/reorder, owner or shared scope.
	CanEditFolder(ctx context.Context, userID string, folder *models.Folder) error

	// OwnsFolder: trash lifecycle, owner only, else Forbidden (NotFound
	// when not even visible).
	OwnsFolder(ctx context.Context, userID string, folder *models.Folder) error

	// CanViewLeaf: owner or shared scope, else NotFound.
	CanViewLeaf(ctx context.Context, userID string, leaf *models.Leaf) error

	// OwnsLeaf: trash lifecycle, owner only.
	OwnsLeaf(ctx context.Context, userID string, leaf *models.Leaf) error
}
