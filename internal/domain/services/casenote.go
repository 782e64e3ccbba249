package services

import (
	"context"

	"rotavault/internal/domain/models"
)

// CaseNoteService handles case-note business logic. Lifecycle operations
// (trash/restore/purge) go through the case tree's TrashService instead.
type CaseNoteService interface {
	CreateNote(ctx context.Context, req *CreateCaseNoteRequest) (*models.CaseNote, error)
	GetNote(ctx context.Context, userID, id string) (*models.CaseNote, error)
	UpdateNote(ctx context.Context, userID, id string, req *UpdateCaseNoteRequest) (*models.CaseNote, error)
	ListNotes(ctx context.Context, userID string, folderID *string) ([]models.CaseNote, error)
}

// CreateCaseNoteRequest represents a case-note creation request.
type CreateCaseNoteRequest struct {
	Title     string  `json:"title"`
	Specialty string  `json:"specialty,omitempty"`
	Body      string  `json:"body,omitempty"`
	FolderID  *string `json:"folder_id,omitempty"`
	Shared    bool    `json:"shared"`
	OwnerID   string  `json:"-"`
}

// UpdateCaseNoteRequest represents a case-note update request.
type UpdateCaseNoteRequest struct {
	Title     *string `json:"title,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
	Body      *string `json:"body,omitempty"`
}
