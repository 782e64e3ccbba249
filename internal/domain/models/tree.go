package models

import "time"

// Tree is the root of a nested folder/leaf tree for one tree family.
type Tree struct {
	Folders []*FolderTreeNode `json:"folders"`
	Leaves  []LeafTreeNode    `json:"items"`
}

// FolderTreeNode is a folder with its nested children.
type FolderTreeNode struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Color     string            `json:"color,omitempty"`
	ParentID  *string           `json:"parent_id"`
	SortOrder int               `json:"sort_order"`
	CreatedAt time.Time         `json:"created_at"`
	Folders   []*FolderTreeNode `json:"folders"` // pointers for proper nesting
	Leaves    []LeafTreeNode    `json:"items"`
}

// LeafTreeNode is a leaf item in the tree (metadata only).
type LeafTreeNode struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	FolderID *string `json:"folder_id"`
}
