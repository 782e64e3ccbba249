package models

import "time"

// CaseNote is a structured clinical case note attached to a case folder
// (or to the root scope when FolderID is nil).
type CaseNote struct {
	ID        string     `json:"id" db:"id"`
	FolderID  *string    `json:"folder_id" db:"folder_id"` // NULL = root scope
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	Title     string     `json:"title" db:"title"`
	Specialty string     `json:"specialty,omitempty" db:"specialty"`
	Body      string     `json:"body,omitempty" db:"body"`
	Shared    bool       `json:"shared" db:"shared"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Trashed reports whether the note is currently in the trash.
func (n *CaseNote) Trashed() bool {
	return n.DeletedAt != nil
}

// AsLeaf projects the note into the kind-independent leaf view.
func (n *CaseNote) AsLeaf() Leaf {
	return Leaf{
		ID:        n.ID,
		Name:      n.Title,
		FolderID:  n.FolderID,
		OwnerID:   n.OwnerID,
		Shared:    n.Shared,
		DeletedAt: n.DeletedAt,
	}
}
