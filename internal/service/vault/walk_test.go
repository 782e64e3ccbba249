package vault

import (
	"context"
	"errors"
	"sort"
	"testing"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
)

func ptr(s string) *string { return &s }

// seedTree builds:
//
//	root
//	├── a
//	│   └── a1
//	└── b
func seedTree(repo *memFolderRepo, owner string) {
	repo.add(models.Folder{ID: "root", Name: "root", OwnerID: owner})
	repo.add(models.Folder{ID: "a", Name: "a", ParentID: ptr("root"), OwnerID: owner})
	repo.add(models.Folder{ID: "a1", Name: "a1", ParentID: ptr("a"), OwnerID: owner})
	repo.add(models.Folder{ID: "b", Name: "b", ParentID: ptr("root"), OwnerID: owner})
}

func TestCollectDescendants(t *testing.T) {
	tests := []struct {
		name     string
		folderID string
		want     []string
	}{
		{name: "full subtree", folderID: "root", want: []string{"a", "a1", "b"}},
		{name: "mid subtree", folderID: "a", want: []string{"a1"}},
		{name: "childless folder", folderID: "b", want: []string{}},
	}

	repo := newMemFolderRepo()
	seedTree(repo, "u1")
	walker := NewWalker(repo)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := walker.CollectDescendants(context.Background(), tt.folderID)
			if err != nil {
				t.Fatalf("CollectDescendants() error = %v", err)
			}
			sort.Strings(got)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCollectDescendants_ExcludesStart(t *testing.T) {
	repo := newMemFolderRepo()
	seedTree(repo, "u1")
	walker := NewWalker(repo)

	got, err := walker.CollectDescendants(context.Background(), "root")
	if err != nil {
		t.Fatalf("CollectDescendants() error = %v", err)
	}
	for _, id := range got {
		if id == "root" {
			t.Error("descendant set must not include the starting folder")
		}
	}
}

func TestCollectDescendants_IncludesTrashed(t *testing.T) {
	repo := newMemFolderRepo()
	seedTree(repo, "u1")
	now := testTime()
	repo.folders["a"].DeletedAt = &now
	walker := NewWalker(repo)

	got, err := walker.CollectDescendants(context.Background(), "root")
	if err != nil {
		t.Fatalf("CollectDescendants() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("trashed folders must stay in the descendant set, got %v", got)
	}
}

func TestCollectDescendants_TerminatesOnCycle(t *testing.T) {
	repo := newMemFolderRepo()
	// Corrupt data: x and y point at each other.
	repo.add(models.Folder{ID: "x", Name: "x", ParentID: ptr("y"), OwnerID: "u1"})
	repo.add(models.Folder{ID: "y", Name: "y", ParentID: ptr("x"), OwnerID: "u1"})
	walker := NewWalker(repo)

	// The visited set absorbs the cycle; the walk must still return.
	got, err := walker.CollectDescendants(context.Background(), "x")
	if err != nil {
		t.Fatalf("CollectDescendants() error = %v", err)
	}
	if len(got) != 1 || got[0] != "y" {
		t.Errorf("got %v, want [y]", got)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	tests := []struct {
		name        string
		folderID    string
		newParentID string
		want        bool
	}{
		{name: "into own child", folderID: "a", newParentID: "a1", want: true},
		{name: "into itself", folderID: "a", newParentID: "a", want: true},
		{name: "into own descendant via root", folderID: "root", newParentID: "a1", want: true},
		{name: "into sibling", folderID: "a", newParentID: "b", want: false},
		{name: "up the tree", folderID: "a1", newParentID: "root", want: false},
	}

	repo := newMemFolderRepo()
	seedTree(repo, "u1")
	walker := NewWalker(repo)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := walker.WouldCreateCycle(context.Background(), tt.folderID, tt.newParentID)
			if err != nil {
				t.Fatalf("WouldCreateCycle() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("WouldCreateCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWouldCreateCycle_RefusesOnCorruptChain(t *testing.T) {
	repo := newMemFolderRepo()
	repo.add(models.Folder{ID: "x", Name: "x", ParentID: ptr("y"), OwnerID: "u1"})
	repo.add(models.Folder{ID: "y", Name: "y", ParentID: ptr("x"), OwnerID: "u1"})
	repo.add(models.Folder{ID: "z", Name: "z", OwnerID: "u1"})
	walker := NewWalker(repo)

	cycle, err := walker.WouldCreateCycle(context.Background(), "z", "x")
	if !cycle {
		t.Error("a chain that never reaches a root must refuse the move")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("want validation error, got %v", err)
	}
}

func TestDepth(t *testing.T) {
	repo := newMemFolderRepo()
	seedTree(repo, "u1")
	walker := NewWalker(repo)

	tests := []struct {
		name     string
		parentID *string
		want     int
	}{
		{name: "root scope", parentID: nil, want: 1},
		{name: "under root folder", parentID: ptr("root"), want: 2},
		{name: "under second level", parentID: ptr("a"), want: 3},
		{name: "under third level", parentID: ptr("a1"), want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := walker.Depth(context.Background(), tt.parentID)
			if err != nil {
				t.Fatalf("Depth() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSubtreeHeight(t *testing.T) {
	repo := newMemFolderRepo()
	seedTree(repo, "u1")
	walker := NewWalker(repo)

	tests := []struct {
		name     string
		folderID string
		want     int
	}{
		{name: "three levels", folderID: "root", want: 3},
		{name: "two levels", folderID: "a", want: 2},
		{name: "childless", folderID: "b", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := walker.SubtreeHeight(context.Background(), tt.folderID)
			if err != nil {
				t.Fatalf("SubtreeHeight() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SubtreeHeight() = %d, want %d", got, tt.want)
			}
		})
	}
}
