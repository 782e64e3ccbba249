package repositories

import (
	"context"

	"rotavault/internal/domain/models"
)

// CaseNoteRepository provides data access for clinical case notes.
// It also implements LeafStore for the case-folder trash lifecycle.
type CaseNoteRepository interface {
	LeafStore

	Create(ctx context.Context, note *models.CaseNote) error
	GetByID(ctx context.Context, id string) (*models.CaseNote, error)
	Update(ctx context.Context, note *models.CaseNote) error

	// ListByFolder lists live notes in a folder; a nil folderID means the
	// root scope, restricted to notes visible to the owner.
	ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.CaseNote, error)

	// ListVisible lists every live note visible to the owner, flat.
	ListVisible(ctx context.Context, ownerID string) ([]models.CaseNote, error)
}
