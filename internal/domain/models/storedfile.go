package models

import "time"

// StoredFile is an uploaded file attached to a file folder. BlobPath is the
// opaque object key in blob storage; OriginalName is the human-facing
// filename and is unrelated to the storage path.
type StoredFile struct {
	ID            string     `json:"id" db:"id"`
	FolderID      *string    `json:"folder_id" db:"folder_id"` // NULL = root scope
	OwnerID       string     `json:"owner_id" db:"owner_id"`
	OriginalName  string     `json:"original_name" db:"original_name"`
	BlobPath      string     `json:"-" db:"blob_path"`
	Size          int64      `json:"size" db:"size"`
	MimeType      string     `json:"mime_type" db:"mime_type"`
	Shared        bool       `json:"shared" db:"shared"`
	DownloadCount int        `json:"download_count" db:"download_count"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Trashed reports whether the file is currently in the trash.
func (f *StoredFile) Trashed() bool {
	return f.DeletedAt != nil
}

// AsLeaf projects the file into the kind-independent leaf view.
func (f *StoredFile) AsLeaf() Leaf {
	return Leaf{
		ID:        f.ID,
		Name:      f.OriginalName,
		FolderID:  f.FolderID,
		OwnerID:   f.OwnerID,
		Shared:    f.Shared,
		BlobPath:  f.BlobPath,
		DeletedAt: f.DeletedAt,
	}
}
