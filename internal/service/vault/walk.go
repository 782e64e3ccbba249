package vault

import (
	"context"
	"fmt"

	"rotavault/internal/config"
	"rotavault/internal/domain"
	"rotavault/internal/domain/repositories"
)

// Walker performs structural traversals over one folder family. All walks
// are iterative (explicit frontier, visited set) and capped at
// config.MaxTraversalDepth: the cycle guard is the only structural
// protection against malformed trees (there is no database constraint),
// so traversals must terminate even on pathological data.
type Walker struct {
	folderRepo repositories.FolderRepository
}

// NewWalker creates a walker over the given folder family.
func NewWalker(folderRepo repositories.FolderRepository) *Walker {
	return &Walker{folderRepo: folderRepo}
}

// CollectDescendants returns the id of every folder transitively below
// folderID, regardless of deleted_at state: trashed folders are still
// valid parents during restore and purge cascades. The starting folder is
// not included. No ordering guarantee.
func (w *Walker) CollectDescendants(ctx context.Context, folderID string) ([]string, error) {
	visited := map[string]bool{folderID: true}
	var descendants []string

	frontier := []string{folderID}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= config.MaxTraversalDepth {
			return nil, fmt.Errorf("descendant walk below folder %s exceeded %d levels: %w",
				folderID, config.MaxTraversalDepth, domain.ErrValidation)
		}

		var next []string
		for _, id := range frontier {
			children, err := w.folderRepo.ListChildren(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("list children of %s: %w", id, err)
			}
			for _, child := range children {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				descendants = append(descendants, child.ID)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return descendants, nil
}

// WouldCreateCycle reports whether reparenting folderID under newParentID
// would make the folder its own ancestor. It walks upward from the
// proposed parent; reaching a root without meeting folderID means the move
// is safe. Must be called before every reparenting write.
func (w *Walker) WouldCreateCycle(ctx context.Context, folderID, newParentID string) (bool, error) {
	if folderID == newParentID {
		return true, nil
	}

	currentID := newParentID
	for hops := 0; hops < config.MaxTraversalDepth; hops++ {
		folder, err := w.folderRepo.GetByID(ctx, currentID)
		if err != nil {
			return false, err
		}
		if folder.ParentID == nil {
			return false, nil
		}
		if *folder.ParentID == folderID {
			return true, nil
		}
		currentID = *folder.ParentID
	}

	// The chain never reached a root: the data already contains a cycle.
	// Refusing the move is the safe answer.
	return true, fmt.Errorf("ancestor chain above folder %s exceeded %d hops: %w",
		newParentID, config.MaxTraversalDepth, domain.ErrValidation)
}

// Depth returns the level a node attached under parentID would occupy,
// with root-level nodes at level 1.
func (w *Walker) Depth(ctx context.Context, parentID *string) (int, error) {
	depth := 1
	current := parentID

	for current != nil {
		if depth > config.MaxTraversalDepth {
			return 0, fmt.Errorf("ancestor chain above folder %s exceeded %d hops: %w",
				*current, config.MaxTraversalDepth, domain.ErrValidation)
		}
		folder, err := w.folderRepo.GetByID(ctx, *current)
		if err != nil {
			return 0, err
		}
		depth++
		current = folder.ParentID
	}

	return depth, nil
}

// SubtreeHeight returns the number of levels in the subtree rooted at
// folderID, counting the folder itself: 1 for a childless folder.
func (w *Walker) SubtreeHeight(ctx context.Context, folderID string) (int, error) {
	visited := map[string]bool{folderID: true}
	height := 0

	frontier := []string{folderID}
	for len(frontier) > 0 {
		height++
		if height > config.MaxTraversalDepth {
			return 0, fmt.Errorf("descendant walk below folder %s exceeded %d levels: %w",
				folderID, config.MaxTraversalDepth, domain.ErrValidation)
		}

		var next []string
		for _, id := range frontier {
			children, err := w.folderRepo.ListChildren(ctx, id)
			if err != nil {
				return 0, fmt.Errorf("list children of %s: %w", id, err)
			}
			for _, child := range children {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return height, nil
}
