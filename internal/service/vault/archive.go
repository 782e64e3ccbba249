package vault

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"rotavault/internal/config"
	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/domain/services"
	"rotavault/internal/storage"
)

type archiveService struct {
	folderRepo repositories.FolderRepository
	fileRepo   repositories.StoredFileRepository
	authorizer services.ResourceAuthorizer
	blobs      storage.BlobStore
	logger     *slog.Logger
}

// NewArchiveService creates the zip export service over the file tree.
func NewArchiveService(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.StoredFileRepository,
	authorizer services.ResourceAuthorizer,
	blobs storage.BlobStore,
	logger *slog.Logger,
) services.ArchiveService {
	return &archiveService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		authorizer: authorizer,
		blobs:      blobs,
		logger:     logger,
	}
}

// entryNamer hands out unique entry paths within one naming pass. The first
// taker of a path keeps it bare; later takers of the same path get
// "name (1).ext", "name (2).ext" and so on.
type entryNamer struct {
	taken map[string]bool
}

func newEntryNamer() *entryNamer {
	return &entryNamer{taken: make(map[string]bool)}
}

func (n *entryNamer) claim(dir, basename string) string {
	candidate := path.Join(dir, basename)
	if !n.taken[candidate] {
		n.taken[candidate] = true
		return candidate
	}

	ext := path.Ext(basename)
	stem := strings.TrimSuffix(basename, ext)
	for i := 1; ; i++ {
		candidate = path.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !n.taken[candidate] {
			n.taken[candidate] = true
			return candidate
		}
	}
}

// BuildManifest resolves the export selection into archive entries.
// Directly selected files land at the archive root; selected folders
// contribute their live subtree under paths rooted at the folder's own
// name. Items the caller cannot see, and trashed items, are pruned rather
// than failed. Each exported file counts as one download.
func (s *archiveService) BuildManifest(ctx context.Context, req *services.ExportRequest) ([]services.ManifestEntry, error) {
	if len(req.FileIDs) == 0 && len(req.FolderIDs) == 0 {
		return nil, fmt.Errorf("%w: nothing selected for export", domain.ErrValidation)
	}

	var entries []services.ManifestEntry
	seen := make(map[string]bool) // file ids already in the manifest

	// Direct files share one flat namespace at the archive root.
	if len(req.FileIDs) > 0 {
		namer := newEntryNamer()
		files, err := s.fileRepo.GetByIDs(ctx, req.FileIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve selected files: %w", err)
		}
		for i := range files {
			file := &files[i]
			if file.DeletedAt != nil || seen[file.ID] {
				continue
			}
			leaf := file.AsLeaf()
			if err := s.authorizer.CanViewLeaf(ctx, req.OwnerID, &leaf); err != nil {
				continue
			}
			seen[file.ID] = true
			entries = append(entries, services.ManifestEntry{
				FileID:    file.ID,
				BlobPath:  file.BlobPath,
				EntryName: namer.claim("", file.OriginalName),
			})
		}
	}

	// Folder subtrees get their own namespace so a direct selection of
	// "report.pdf" never steals the name from a file inside a folder.
	if len(req.FolderIDs) > 0 {
		namer := newEntryNamer()
		for _, folderID := range req.FolderIDs {
			folderEntries, err := s.walkFolder(ctx, req.OwnerID, folderID, namer, seen)
			if err != nil {
				return nil, err
			}
			entries = append(entries, folderEntries...)
		}
	}

	if len(entries) == 0 {
		return nil, &domain.NotFoundError{Message: "no exportable files in selection"}
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.FileID)
	}
	if err := s.fileRepo.IncrementDownloadCounts(ctx, ids); err != nil {
		return nil, fmt.Errorf("count exports: %w", err)
	}

	s.logger.Info("export manifest built",
		"owner_id", req.OwnerID,
		"entry_count", len(entries),
	)
	return entries, nil
}

// walkFolder collects the live files of one selected folder's subtree,
// iteratively and with the same traversal cap the trash cascade uses.
// Entry directories mirror folder names, with collision suffixes applied
// per directory level.
func (s *archiveService) walkFolder(ctx context.Context, userID, folderID string, namer *entryNamer, seen map[string]bool) ([]services.ManifestEntry, error) {
	root, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if root.Trashed() {
		return nil, nil
	}
	if err := s.authorizer.CanViewFolder(ctx, userID, root); err != nil {
		return nil, nil
	}

	type frame struct {
		folder *models.Folder
		dir    string
		level  int
	}

	var entries []services.ManifestEntry
	dirNamer := newEntryNamer() // folders collide on names too
	stack := []frame{{folder: root, dir: dirNamer.claim("", root.Name), level: 1}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.level > config.MaxTraversalDepth {
			return nil, fmt.Errorf("%w: folder tree exceeds the traversal limit",
				domain.ErrValidation)
		}

		files, err := s.fileRepo.ListLiveByFolder(ctx, current.folder.ID)
		if err != nil {
			return nil, fmt.Errorf("list folder files: %w", err)
		}
		for i := range files {
			file := &files[i]
			if seen[file.ID] {
				continue
			}
			leaf := file.AsLeaf()
			if err := s.authorizer.CanViewLeaf(ctx, userID, &leaf); err != nil {
				continue
			}
			seen[file.ID] = true
			entries = append(entries, services.ManifestEntry{
				FileID:    file.ID,
				BlobPath:  file.BlobPath,
				EntryName: namer.claim(current.dir, file.OriginalName),
			})
		}

		children, err := s.folderRepo.ListChildren(ctx, current.folder.ID)
		if err != nil {
			return nil, fmt.Errorf("list child folders: %w", err)
		}
		for i := range children {
			child := children[i]
			if child.Trashed() {
				continue
			}
			if err := s.authorizer.CanViewFolder(ctx, userID, &child); err != nil {
				continue
			}
			stack = append(stack, frame{
				folder: &child,
				dir:    dirNamer.claim(current.dir, child.Name),
				level:  current.level + 1,
			})
		}
	}

	return entries, nil
}

// WriteZip streams every manifest entry's blob into a zip archive.
// A missing blob skips its entry; any other storage failure aborts, since
// the output stream is already partially written and cannot be retried.
func (s *archiveService) WriteZip(ctx context.Context, entries []services.ManifestEntry, w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, entry := range entries {
		reader, err := s.blobs.Get(ctx, entry.BlobPath)
		if err != nil {
			if errors.Is(err, storage.ErrBlobNotFound) {
				s.logger.Warn("skipping export entry with missing blob",
					"file_id", entry.FileID,
					"blob_path", entry.BlobPath,
				)
				continue
			}
			return fmt.Errorf("open blob %q: %w", entry.BlobPath, err)
		}

		zf, err := zw.Create(entry.EntryName)
		if err != nil {
			reader.Close()
			return fmt.Errorf("create zip entry %q: %w", entry.EntryName, err)
		}
		if _, err := io.Copy(zf, reader); err != nil {
			reader.Close()
			return fmt.Errorf("write zip entry %q: %w", entry.EntryName, err)
		}
		reader.Close()
	}

	return zw.Close()
}
