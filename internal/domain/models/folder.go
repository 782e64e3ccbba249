package models

import "time"

// Folder is one node of a folder hierarchy. Two parallel families exist
// (case folders and file folders) with identical shape; the family is
// determined by the table a row lives in, not by a column.
type Folder struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Color     string     `json:"color,omitempty" db:"color"`
	ParentID  *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	Shared    bool       `json:"shared" db:"shared"`
	SortOrder int        `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Trashed reports whether the folder is currently in the trash.
func (f *Folder) Trashed() bool {
	return f.DeletedAt != nil
}
