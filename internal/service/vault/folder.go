package vault

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"rotavault/internal/config"
	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var folderNameRule = validation.Match(regexp.MustCompile(`^[^/]+$`)).
	Error("folder name cannot contain slashes")

type folderService struct {
	kind       string
	folderRepo repositories.FolderRepository
	leafStore  repositories.LeafStore
	walker     *Walker
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewFolderService creates the folder service for one tree family.
func NewFolderService(
	kind string,
	folderRepo repositories.FolderRepository,
	leafStore repositories.LeafStore,
	walker *Walker,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		kind:       kind,
		folderRepo: folderRepo,
		leafStore:  leafStore,
		walker:     walker,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateFolder creates a folder, enforcing the depth limit and assigning
// the next sibling sort order. The depth walk and the order assignment are
// deliberately not wrapped in one transaction: concurrent creations under
// the same parent may race on the order value, and duplicate orders are
// tolerated because sort_order is a display hint.
func (s *folderService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateCreateFolder(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := s.authorizer.CanViewFolder(ctx, req.OwnerID, parent); err != nil {
			return nil, err
		}
		if parent.Trashed() {
			return nil, fmt.Errorf("%w: parent folder is in the trash", domain.ErrValidation)
		}

		depth, err := s.walker.Depth(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if depth > config.MaxFolderDepth {
			return nil, fmt.Errorf("%w: folders can be nested at most %d levels deep",
				domain.ErrValidation, config.MaxFolderDepth)
		}
	}

	maxOrder, err := s.folderRepo.MaxSiblingOrder(ctx, req.ParentID, req.OwnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &models.Folder{
		Name:      req.Name,
		Color:     req.Color,
		ParentID:  req.ParentID,
		OwnerID:   req.OwnerID,
		Shared:    req.Shared,
		SortOrder: maxOrder + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"kind", s.kind,
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
		"owner_id", folder.OwnerID,
	)

	return folder, nil
}

// GetFolder retrieves a folder with its direct live children and leaves.
func (s *folderService) GetFolder(ctx context.Context, userID, id string) (*services.FolderContents, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanViewFolder(ctx, userID, folder); err != nil {
		return nil, err
	}

	children, err := s.folderRepo.ListChildren(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	live := children[:0]
	for _, child := range children {
		if !child.Trashed() {
			live = append(live, child)
		}
	}

	leaves, err := s.leafStore.ListLeavesByFolder(ctx, &folder.ID, userID)
	if err != nil {
		return nil, err
	}

	return &services.FolderContents{
		Folder:  folder,
		Folders: live,
		Leaves:  leaves,
	}, nil
}

// ListRoot lists the caller's root-level folders and leaves.
func (s *folderService) ListRoot(ctx context.Context, userID string) (*services.FolderContents, error) {
	folders, err := s.folderRepo.ListRoots(ctx, userID)
	if err != nil {
		return nil, err
	}

	leaves, err := s.leafStore.ListLeavesByFolder(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	return &services.FolderContents{
		Folders: folders,
		Leaves:  leaves,
	}, nil
}

// UpdateFolder renames, recolors, reorders or moves a folder.
func (s *folderService) UpdateFolder(ctx context.Context, userID, id string, req *services.UpdateFolderRequest) (*models.Folder, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validateUpdateFolder(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanEditFolder(ctx, userID, folder); err != nil {
		return nil, err
	}

	if req.Name != nil {
		folder.Name = *req.Name
	}
	if req.Color != nil {
		folder.Color = *req.Color
	}
	if req.SortOrder != nil {
		folder.SortOrder = *req.SortOrder
	}

	// Tri-state: only touch the location when the field was present
	if req.ParentID.Present {
		if req.ParentID.Value != nil {
			if err := s.validateMove(ctx, userID, folder, *req.ParentID.Value); err != nil {
				return nil, err
			}
			folder.ParentID = req.ParentID.Value
		} else {
			folder.ParentID = nil
		}
	}

	folder.UpdatedAt = time.Now()

	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder updated",
		"kind", s.kind,
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// validateMove rejects reparenting that would create a cycle or push the
// subtree past the depth limit. Rejection leaves the tree unchanged.
func (s *folderService) validateMove(ctx context.Context, userID string, folder *models.Folder, newParentID string) error {
	parent, err := s.folderRepo.GetByID(ctx, newParentID)
	if err != nil {
		return fmt.Errorf("new parent: %w", err)
	}
	if err := s.authorizer.CanViewFolder(ctx, userID, parent); err != nil {
		return err
	}
	if parent.Trashed() {
		return fmt.Errorf("%w: cannot move into a trashed folder", domain.ErrValidation)
	}

	cycle, err := s.walker.WouldCreateCycle(ctx, folder.ID, newParentID)
	if err != nil {
		return err
	}
	if cycle {
		return fmt.Errorf("%w: cannot move a folder into itself or its own subtree", domain.ErrValidation)
	}

	depth, err := s.walker.Depth(ctx, &newParentID)
	if err != nil {
		return err
	}
	height, err := s.walker.SubtreeHeight(ctx, folder.ID)
	if err != nil {
		return err
	}
	if depth+height-1 > config.MaxFolderDepth {
		return fmt.Errorf("%w: folders can be nested at most %d levels deep",
			domain.ErrValidation, config.MaxFolderDepth)
	}

	return nil
}

// GetTree returns the caller's full nested live tree, built with the
// 3-pass map algorithm: create nodes, connect children, attach leaves.
func (s *folderService) GetTree(ctx context.Context, userID string) (*models.Tree, error) {
	allFolders, err := s.folderRepo.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}

	allLeaves, err := s.leafStore.ListVisibleLeaves(ctx, userID)
	if err != nil {
		return nil, err
	}

	folderMap := make(map[string]*models.FolderTreeNode, len(allFolders))
	var rootFolderIDs []string

	for _, folder := range allFolders {
		folderMap[folder.ID] = &models.FolderTreeNode{
			ID:        folder.ID,
			Name:      folder.Name,
			Color:     folder.Color,
			ParentID:  folder.ParentID,
			SortOrder: folder.SortOrder,
			CreatedAt: folder.CreatedAt,
			Folders:   []*models.FolderTreeNode{},
			Leaves:    []models.LeafTreeNode{},
		}
	}

	for _, folder := range allFolders {
		node := folderMap[folder.ID]
		if folder.ParentID == nil {
			rootFolderIDs = append(rootFolderIDs, folder.ID)
		} else if parent, exists := folderMap[*folder.ParentID]; exists {
			parent.Folders = append(parent.Folders, node)
		}
	}

	rootLeaves := make([]models.LeafTreeNode, 0)
	for _, leaf := range allLeaves {
		leafNode := models.LeafTreeNode{
			ID:       leaf.ID,
			Name:     leaf.Name,
			FolderID: leaf.FolderID,
		}

		if leaf.FolderID == nil {
			rootLeaves = append(rootLeaves, leafNode)
		} else if parent, exists := folderMap[*leaf.FolderID]; exists {
			parent.Leaves = append(parent.Leaves, leafNode)
		}
	}

	rootFolders := make([]*models.FolderTreeNode, 0, len(rootFolderIDs))
	for _, folderID := range rootFolderIDs {
		rootFolders = append(rootFolders, folderMap[folderID])
	}

	s.logger.Debug("tree built",
		"kind", s.kind,
		"folder_count", len(allFolders),
		"leaf_count", len(allLeaves),
	)

	return &models.Tree{
		Folders: rootFolders,
		Leaves:  rootLeaves,
	}, nil
}

func validateCreateFolder(req *services.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
			folderNameRule,
		),
	)
}

func validateUpdateFolder(req *services.UpdateFolderRequest) error {
	if req.Name == nil && req.Color == nil && req.SortOrder == nil && !req.ParentID.Present {
		return fmt.Errorf("at least one field must be provided")
	}

	if req.Name != nil {
		return validation.ValidateStruct(req,
			validation.Field(&req.Name,
				validation.Required,
				validation.Length(1, config.MaxFolderNameLength),
				folderNameRule,
			),
		)
	}

	return nil
}
