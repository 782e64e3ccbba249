package auth

import (
	"context"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/services"
)

// ScopedAuthorizer implements the ownership/shared-scope access policy.
// Visibility is owner-or-shared; lifecycle mutations are owner-only. A
// resource the caller cannot see reports NotFound rather than Forbidden so
// that probing ids reveals nothing about other users' trees.
type ScopedAuthorizer struct{}

// NewScopedAuthorizer creates the access policy gate.
func NewScopedAuthorizer() *ScopedAuthorizer {
	return &ScopedAuthorizer{}
}

var _ services.ResourceAuthorizer = (*ScopedAuthorizer)(nil)

func (a *ScopedAuthorizer) CanViewFolder(ctx context.Context, userID string, folder *models.Folder) error {
	if folder.OwnerID == userID || folder.Shared {
		return nil
	}
	return &domain.NotFoundError{Message: "folder not found"}
}

func (a *ScopedAuthorizer) CanEditFolder(ctx context.Context, userID string, folder *models.Folder) error {
	return a.CanViewFolder(ctx, userID, folder)
}

func (a *ScopedAuthorizer) OwnsFolder(ctx context.Context, userID string, folder *models.Folder) error {
	if folder.OwnerID == userID {
		return nil
	}
	if folder.Shared {
		return &domain.ForbiddenError{Message: "only the owner can change a folder's lifecycle"}
	}
	return &domain.NotFoundError{Message: "folder not found"}
}

func (a *ScopedAuthorizer) CanViewLeaf(ctx context.Context, userID string, leaf *models.Leaf) error {
	if leaf.OwnerID == userID || leaf.Shared {
		return nil
	}
	return &domain.NotFoundError{Message: "item not found"}
}

func (a *ScopedAuthorizer) OwnsLeaf(ctx context.Context, userID string, leaf *models.Leaf) error {
	if leaf.OwnerID == userID {
		return nil
	}
	if leaf.Shared {
		return &domain.ForbiddenError{Message: "only the owner can change an item's lifecycle"}
	}
	return &domain.NotFoundError{Message: "item not found"}
}
