package services

import (
	"context"
	"io"
)

// ArchiveService builds zip exports of selected files and file-folder
// subtrees. Manifest building is separated from streaming so the entry
// naming (relative paths, collision suffixes) is testable without blobs.
type ArchiveService interface {
	// BuildManifest resolves the selection into archive entries: direct
	// files at top level, folder subtrees under their relative paths,
	// deduplicated by file id, collisions renamed "name (1).ext". Every
	// exported file's download counter is incremented once.
	BuildManifest(ctx context.Context, req *ExportRequest) ([]ManifestEntry, error)

	// WriteZip streams each manifest entry's blob into a zip written to w.
	// Entries whose blob is missing from storage are skipped, not failed.
	WriteZip(ctx context.Context, entries []ManifestEntry, w io.Writer) error
}

// ExportRequest selects files and folder subtrees for export.
type ExportRequest struct {
	FileIDs   []string `json:"file_ids"`
	FolderIDs []string `json:"folder_ids"`
	OwnerID   string   `json:"-"` // from auth context
}

// ManifestEntry maps one stored file to its name inside the archive.
type ManifestEntry struct {
	FileID    string `json:"file_id"`
	BlobPath  string `json:"-"`
	EntryName string `json:"entry_name"`
}
