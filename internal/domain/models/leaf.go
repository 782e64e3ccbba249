package models

import "time"

// Leaf is the kind-independent view of a leaf item (a case note or a stored
// file) consumed by the trash lifecycle and the archive walk. Repositories
// for both kinds project their rows into this shape so that one lifecycle
// implementation serves both trees.
type Leaf struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"` // display name; a file's original name
	FolderID  *string    `json:"folder_id"`
	OwnerID   string     `json:"owner_id"`
	Shared    bool       `json:"shared"`
	BlobPath  string     `json:"-"` // empty for case notes
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Trashed reports whether the leaf is currently in the trash.
func (l *Leaf) Trashed() bool {
	return l.DeletedAt != nil
}
