package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/domain/services"
	"rotavault/internal/storage"
)

type trashService struct {
	kind       string
	folderRepo repositories.FolderRepository
	leafStore  repositories.LeafStore
	walker     *Walker
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	blobs      storage.BlobStore // nil for families without backing blobs
	logger     *slog.Logger
}

// NewTrashService creates the trash lifecycle service for one tree family.
// blobs may be nil when the family's leaves carry no backing objects.
func NewTrashService(
	kind string,
	folderRepo repositories.FolderRepository,
	leafStore repositories.LeafStore,
	walker *Walker,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	blobs storage.BlobStore,
	logger *slog.Logger,
) services.TrashService {
	return &trashService{
		kind:       kind,
		folderRepo: folderRepo,
		leafStore:  leafStore,
		walker:     walker,
		txManager:  txManager,
		authorizer: authorizer,
		blobs:      blobs,
		logger:     logger,
	}
}

// SoftDeleteFolder trashes the folder, its descendants, and every leaf
// attached to any of them. The member set is computed at call time and the
// whole cascade carries one shared timestamp, so a later restore can
// recompute the same set.
func (s *trashService) SoftDeleteFolder(ctx context.Context, userID, folderID string) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := s.authorizer.OwnsFolder(ctx, userID, folder); err != nil {
		return err
	}

	descendants, err := s.walker.CollectDescendants(ctx, folderID)
	if err != nil {
		return err
	}
	ids := append(descendants, folderID)
	deletedAt := time.Now().UTC()

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.folderRepo.SetDeletedAt(ctx, ids, &deletedAt); err != nil {
			return fmt.Errorf("trash folders: %w", err)
		}
		if err := s.leafStore.SetDeletedAtByFolders(ctx, ids, &deletedAt); err != nil {
			return fmt.Errorf("trash folder contents: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder trashed",
		"kind", s.kind,
		"folder_id", folderID,
		"cascade_count", len(ids),
	)
	return nil
}

// RestoreFolder clears deleted_at across the recomputed subtree. Restoring
// a live folder is a no-op success. When the former parent no longer exists
// or is itself still trashed, the folder is promoted to root rather than
// restored into an unreachable location.
func (s *trashService) RestoreFolder(ctx context.Context, userID, folderID string) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := s.authorizer.OwnsFolder(ctx, userID, folder); err != nil {
		return err
	}
	if !folder.Trashed() {
		return nil
	}

	descendants, err := s.walker.CollectDescendants(ctx, folderID)
	if err != nil {
		return err
	}
	ids := append(descendants, folderID)

	promote := false
	if folder.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *folder.ParentID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			promote = true
		case err != nil:
			return fmt.Errorf("check former parent: %w", err)
		case parent.Trashed():
			promote = true
		}
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.folderRepo.SetDeletedAt(ctx, ids, nil); err != nil {
			return fmt.Errorf("restore folders: %w", err)
		}
		if err := s.leafStore.SetDeletedAtByFolders(ctx, ids, nil); err != nil {
			return fmt.Errorf("restore folder contents: %w", err)
		}
		if promote {
			folder.ParentID = nil
			folder.DeletedAt = nil
			folder.UpdatedAt = time.Now()
			if err := s.folderRepo.Update(ctx, folder); err != nil {
				return fmt.Errorf("promote restored folder to root: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder restored",
		"kind", s.kind,
		"folder_id", folderID,
		"cascade_count", len(ids),
		"promoted_to_root", promote,
	)
	return nil
}

// PurgeFolder irreversibly removes the subtree. Row deletion commits first;
// backing blobs are removed afterwards, and a blob that fails to delete is
// logged and left behind rather than resurrecting the rows.
func (s *trashService) PurgeFolder(ctx context.Context, userID, folderID string) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := s.authorizer.OwnsFolder(ctx, userID, folder); err != nil {
		return err
	}

	descendants, err := s.walker.CollectDescendants(ctx, folderID)
	if err != nil {
		return err
	}
	ids := append(descendants, folderID)

	var purged []models.Leaf
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		purged, err = s.leafStore.PurgeByFolders(ctx, ids)
		if err != nil {
			return fmt.Errorf("purge folder contents: %w", err)
		}
		if err := s.folderRepo.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("purge folders: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, purged)

	s.logger.Info("folder purged",
		"kind", s.kind,
		"folder_id", folderID,
		"folder_count", len(ids),
		"leaf_count", len(purged),
	)
	return nil
}

// SoftDeleteLeaf trashes a single leaf. Re-trashing refreshes the stamp.
func (s *trashService) SoftDeleteLeaf(ctx context.Context, userID, leafID string) error {
	leaf, err := s.leafStore.GetLeaf(ctx, leafID)
	if err != nil {
		return err
	}
	if err := s.authorizer.OwnsLeaf(ctx, userID, leaf); err != nil {
		return err
	}

	deletedAt := time.Now().UTC()
	if err := s.leafStore.SetDeletedAtByIDs(ctx, []string{leafID}, &deletedAt); err != nil {
		return err
	}

	s.logger.Info("leaf trashed", "kind", s.kind, "leaf_id", leafID)
	return nil
}

// RestoreLeaf brings a trashed leaf back. The containing folder, when one
// exists, must be live; a leaf stranded in a trashed folder is restored by
// restoring the folder instead.
func (s *trashService) RestoreLeaf(ctx context.Context, userID, leafID string) error {
	leaf, err := s.leafStore.GetLeaf(ctx, leafID)
	if err != nil {
		return err
	}
	if err := s.authorizer.OwnsLeaf(ctx, userID, leaf); err != nil {
		return err
	}
	if !leaf.Trashed() {
		return nil
	}

	if leaf.FolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *leaf.FolderID)
		if err != nil {
			return fmt.Errorf("check containing folder: %w", err)
		}
		if folder.Trashed() {
			return fmt.Errorf("%w: containing folder is in the trash, restore it instead",
				domain.ErrValidation)
		}
	}

	if err := s.leafStore.SetDeletedAtByIDs(ctx, []string{leafID}, nil); err != nil {
		return err
	}

	s.logger.Info("leaf restored", "kind", s.kind, "leaf_id", leafID)
	return nil
}

// PurgeLeaf irreversibly removes one leaf, relations first, blob afterwards.
func (s *trashService) PurgeLeaf(ctx context.Context, userID, leafID string) error {
	leaf, err := s.leafStore.GetLeaf(ctx, leafID)
	if err != nil {
		return err
	}
	if err := s.authorizer.OwnsLeaf(ctx, userID, leaf); err != nil {
		return err
	}

	var purged []models.Leaf
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		purged, err = s.leafStore.PurgeByIDs(ctx, []string{leafID})
		if err != nil {
			return fmt.Errorf("purge leaf: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, purged)

	s.logger.Info("leaf purged", "kind", s.kind, "leaf_id", leafID)
	return nil
}

// EmptyTrash purges everything trashed owned by the caller, in one
// transaction per family: leaves attached to trashed folders, then loose
// trashed leaves, then the folder rows themselves.
func (s *trashService) EmptyTrash(ctx context.Context, userID string) error {
	trashedFolders, err := s.folderRepo.ListTrashed(ctx, userID)
	if err != nil {
		return err
	}
	folderIDs := make([]string, 0, len(trashedFolders))
	for _, folder := range trashedFolders {
		folderIDs = append(folderIDs, folder.ID)
	}

	var purged []models.Leaf
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if len(folderIDs) > 0 {
			contained, err := s.leafStore.PurgeByFolders(ctx, folderIDs)
			if err != nil {
				return fmt.Errorf("purge trashed folder contents: %w", err)
			}
			purged = append(purged, contained...)
		}

		loose, err := s.leafStore.PurgeTrashed(ctx, userID)
		if err != nil {
			return fmt.Errorf("purge trashed leaves: %w", err)
		}
		purged = append(purged, loose...)

		if len(folderIDs) > 0 {
			if err := s.folderRepo.DeleteByIDs(ctx, folderIDs); err != nil {
				return fmt.Errorf("purge trashed folders: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, purged)

	s.logger.Info("trash emptied",
		"kind", s.kind,
		"owner_id", userID,
		"folder_count", len(folderIDs),
		"leaf_count", len(purged),
	)
	return nil
}

// ListTrash lists the caller's trashed folders and leaves for this family.
func (s *trashService) ListTrash(ctx context.Context, userID string) (*services.TrashContents, error) {
	folders, err := s.folderRepo.ListTrashed(ctx, userID)
	if err != nil {
		return nil, err
	}
	leaves, err := s.leafStore.ListTrashed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &services.TrashContents{Folders: folders, Leaves: leaves}, nil
}

// removeBlobs deletes backing objects for purged leaves. Rows are already
// gone, so failures here only orphan storage; they are logged, not returned.
func (s *trashService) removeBlobs(ctx context.Context, leaves []models.Leaf) {
	if s.blobs == nil {
		return
	}
	for _, leaf := range leaves {
		if leaf.BlobPath == "" {
			continue
		}
		if err := s.blobs.Remove(ctx, leaf.BlobPath); err != nil {
			s.logger.Warn("failed to remove blob for purged leaf",
				"kind", s.kind,
				"leaf_id", leaf.ID,
				"blob_path", leaf.BlobPath,
				"error", err,
			)
		}
	}
}
