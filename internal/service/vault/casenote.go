package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rotavault/internal/config"
	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type caseNoteService struct {
	noteRepo   repositories.CaseNoteRepository
	folderRepo repositories.FolderRepository
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewCaseNoteService creates the case-note service over the case tree.
func NewCaseNoteService(
	noteRepo repositories.CaseNoteRepository,
	folderRepo repositories.FolderRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.CaseNoteService {
	return &caseNoteService{
		noteRepo:   noteRepo,
		folderRepo: folderRepo,
		authorizer: authorizer,
		logger:     logger,
	}
}

func (s *caseNoteService) CreateNote(ctx context.Context, req *services.CreateCaseNoteRequest) (*models.CaseNote, error) {
	req.Title = strings.TrimSpace(req.Title)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxCaseTitleLength),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}
	if req.FolderID != nil {
		if err := s.checkFolder(ctx, req.OwnerID, *req.FolderID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	note := &models.CaseNote{
		FolderID:  req.FolderID,
		OwnerID:   req.OwnerID,
		Title:     req.Title,
		Specialty: req.Specialty,
		Body:      req.Body,
		Shared:    req.Shared,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("case note created",
		"id", note.ID,
		"folder_id", note.FolderID,
		"owner_id", note.OwnerID,
	)
	return note, nil
}

func (s *caseNoteService) GetNote(ctx context.Context, userID, id string) (*models.CaseNote, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leaf := note.AsLeaf()
	if err := s.authorizer.CanViewLeaf(ctx, userID, &leaf); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *caseNoteService) UpdateNote(ctx context.Context, userID, id string, req *services.UpdateCaseNoteRequest) (*models.CaseNote, error) {
	if req.Title == nil && req.Specialty == nil && req.Body == nil {
		return nil, fmt.Errorf("%w: at least one field must be provided", domain.ErrValidation)
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" || len(trimmed) > config.MaxCaseTitleLength {
			return nil, fmt.Errorf("%w: title must be between 1 and %d characters",
				domain.ErrValidation, config.MaxCaseTitleLength)
		}
		*req.Title = trimmed
	}

	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leaf := note.AsLeaf()
	if err := s.authorizer.CanViewLeaf(ctx, userID, &leaf); err != nil {
		return nil, err
	}
	if note.Trashed() {
		return nil, fmt.Errorf("%w: cannot edit a trashed case note", domain.ErrValidation)
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Specialty != nil {
		note.Specialty = *req.Specialty
	}
	if req.Body != nil {
		note.Body = *req.Body
	}
	note.UpdatedAt = time.Now()

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("case note updated", "id", note.ID)
	return note, nil
}

func (s *caseNoteService) ListNotes(ctx context.Context, userID string, folderID *string) ([]models.CaseNote, error) {
	if folderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		if err := s.authorizer.CanViewFolder(ctx, userID, folder); err != nil {
			return nil, err
		}
	}
	return s.noteRepo.ListByFolder(ctx, folderID, userID)
}

func (s *caseNoteService) checkFolder(ctx context.Context, userID, folderID string) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := s.authorizer.CanViewFolder(ctx, userID, folder); err != nil {
		return err
	}
	if folder.Trashed() {
		return fmt.Errorf("%w: folder is in the trash", domain.ErrValidation)
	}
	return nil
}
