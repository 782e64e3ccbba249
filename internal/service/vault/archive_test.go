package vault

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/services"
	serviceAuth "rotavault/internal/service/auth"
)

type archiveFixture struct {
	folders *memFolderRepo
	files   *memFileRepo
	blobs   *memBlobStore
	svc     services.ArchiveService
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()
	folders := newMemFolderRepo()
	files := newMemFileRepo()
	blobs := newMemBlobStore()
	svc := NewArchiveService(folders, files, serviceAuth.NewScopedAuthorizer(), blobs, discardLogger())
	return &archiveFixture{folders: folders, files: files, blobs: blobs, svc: svc}
}

func (f *archiveFixture) addFileWithBlob(file models.StoredFile, content string) *models.StoredFile {
	stored := f.files.addFile(file)
	if stored.BlobPath != "" {
		f.blobs.objects[stored.BlobPath] = []byte(content)
	}
	return stored
}

func entryNames(entries []services.ManifestEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.EntryName)
	}
	sort.Strings(names)
	return names
}

func TestBuildManifest_DirectFiles(t *testing.T) {
	f := newArchiveFixture(t)
	a := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "scan.pdf", BlobPath: "u1/b1"}, "one")
	b := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "notes.txt", BlobPath: "u1/b2"}, "two")

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs: []string{a.ID, b.ID},
		OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}

	got := entryNames(entries)
	want := []string{"notes.txt", "scan.pdf"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("entries = %v, want %v", got, want)
	}
}

func TestBuildManifest_CollisionSuffixes(t *testing.T) {
	f := newArchiveFixture(t)
	a := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "scan.pdf", BlobPath: "u1/b1"}, "one")
	b := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "scan.pdf", BlobPath: "u1/b2"}, "two")
	c := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "scan.pdf", BlobPath: "u1/b3"}, "three")

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs: []string{a.ID, b.ID, c.ID},
		OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}

	got := entryNames(entries)
	want := []string{"scan (1).pdf", "scan (2).pdf", "scan.pdf"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestBuildManifest_FolderSubtreePaths(t *testing.T) {
	f := newArchiveFixture(t)
	f.folders.add(models.Folder{ID: "top", Name: "imaging", OwnerID: "u1"})
	f.folders.add(models.Folder{ID: "sub", Name: "mri", ParentID: ptr("top"), OwnerID: "u1"})
	f.addFileWithBlob(models.StoredFile{ID: "f1", OwnerID: "u1", OriginalName: "head.dcm", FolderID: ptr("top"), BlobPath: "u1/b1"}, "x")
	f.addFileWithBlob(models.StoredFile{ID: "f2", OwnerID: "u1", OriginalName: "head.dcm", FolderID: ptr("sub"), BlobPath: "u1/b2"}, "y")

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FolderIDs: []string{"top"},
		OwnerID:   "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}

	got := entryNames(entries)
	want := []string{"imaging/head.dcm", "imaging/mri/head.dcm"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("entries = %v, want %v", got, want)
	}
}

func TestBuildManifest_DedupAcrossSelection(t *testing.T) {
	f := newArchiveFixture(t)
	f.folders.add(models.Folder{ID: "top", Name: "docs", OwnerID: "u1"})
	file := f.addFileWithBlob(models.StoredFile{ID: "f1", OwnerID: "u1", OriginalName: "plan.pdf", FolderID: ptr("top"), BlobPath: "u1/b1"}, "x")

	// Selected both directly and through its folder.
	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs:   []string{file.ID},
		FolderIDs: []string{"top"},
		OwnerID:   "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (deduplicated)", len(entries))
	}
	if f.files.files["f1"].DownloadCount != 1 {
		t.Errorf("download count = %d, want exactly 1 per export",
			f.files.files["f1"].DownloadCount)
	}
}

func TestBuildManifest_PrunesTrashedAndInvisible(t *testing.T) {
	f := newArchiveFixture(t)
	f.folders.add(models.Folder{ID: "top", Name: "docs", OwnerID: "u1"})
	trashedAt := testTime()
	f.folders.add(models.Folder{ID: "gone", Name: "gone", ParentID: ptr("top"), OwnerID: "u1", DeletedAt: &trashedAt})
	f.addFileWithBlob(models.StoredFile{ID: "live", OwnerID: "u1", OriginalName: "keep.txt", FolderID: ptr("top"), BlobPath: "u1/b1"}, "x")
	f.addFileWithBlob(models.StoredFile{ID: "dead", OwnerID: "u1", OriginalName: "drop.txt", FolderID: ptr("top"), BlobPath: "u1/b2", DeletedAt: &trashedAt}, "y")
	f.addFileWithBlob(models.StoredFile{ID: "hidden", OwnerID: "u2", OriginalName: "secret.txt", BlobPath: "u2/b1"}, "z")

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs:   []string{"dead", "hidden"},
		FolderIDs: []string{"top"},
		OwnerID:   "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	got := entryNames(entries)
	if len(got) != 1 || got[0] != "docs/keep.txt" {
		t.Errorf("entries = %v, want only the live visible file", got)
	}
}

func TestBuildManifest_WalkSkipsPrivateItemsInSharedFolder(t *testing.T) {
	f := newArchiveFixture(t)
	f.folders.add(models.Folder{ID: "shared", Name: "Shared", OwnerID: "u2", Shared: true})
	f.folders.add(models.Folder{ID: "private", Name: "Private", ParentID: ptr("shared"), OwnerID: "u2"})
	f.addFileWithBlob(models.StoredFile{ID: "open", OwnerID: "u2", OriginalName: "handout.pdf", FolderID: ptr("shared"), BlobPath: "u2/b1", Shared: true}, "a")
	f.addFileWithBlob(models.StoredFile{ID: "mine", OwnerID: "u2", OriginalName: "secret.pdf", FolderID: ptr("shared"), BlobPath: "u2/b2"}, "b")
	f.addFileWithBlob(models.StoredFile{ID: "deep", OwnerID: "u2", OriginalName: "deeper.pdf", FolderID: ptr("private"), BlobPath: "u2/b3"}, "c")

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FolderIDs: []string{"shared"},
		OwnerID:   "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	got := entryNames(entries)
	if len(got) != 1 || got[0] != "Shared/handout.pdf" {
		t.Errorf("entries = %v, want only the shared file", got)
	}

	// The folder's owner still gets everything.
	entries, err = f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FolderIDs: []string{"shared"},
		OwnerID:   "u2",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	got = entryNames(entries)
	want := []string{"Shared/Private/deeper.pdf", "Shared/handout.pdf", "Shared/secret.pdf"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestBuildManifest_EmptySelection(t *testing.T) {
	f := newArchiveFixture(t)

	_, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{OwnerID: "u1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty selection must fail validation, got %v", err)
	}
}

func TestBuildManifest_NothingExportable(t *testing.T) {
	f := newArchiveFixture(t)

	_, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs: []string{"no-such-file"},
		OwnerID: "u1",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("selection resolving to nothing must report NotFound, got %v", err)
	}
}

func TestWriteZip_RoundTrip(t *testing.T) {
	f := newArchiveFixture(t)
	a := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "one.txt", BlobPath: "u1/b1"}, "first")
	b := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "two.txt", BlobPath: "u1/b2"}, "second")

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs: []string{a.ID, b.ID},
		OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}

	var buf bytes.Buffer
	if err := f.svc.WriteZip(context.Background(), entries, &buf); err != nil {
		t.Fatalf("WriteZip() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("zip holds %d entries, want 2", len(zr.File))
	}

	contents := map[string]string{"one.txt": "first", "two.txt": "second"}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("open zip entry %q: %v", zf.Name, err)
		}
		var data bytes.Buffer
		data.ReadFrom(rc)
		rc.Close()
		if want := contents[zf.Name]; data.String() != want {
			t.Errorf("entry %q = %q, want %q", zf.Name, data.String(), want)
		}
	}
}

func TestWriteZip_SkipsMissingBlob(t *testing.T) {
	f := newArchiveFixture(t)
	kept := f.addFileWithBlob(models.StoredFile{OwnerID: "u1", OriginalName: "kept.txt", BlobPath: "u1/b1"}, "data")
	lost := f.files.addFile(models.StoredFile{OwnerID: "u1", OriginalName: "lost.txt", BlobPath: "u1/missing"})

	entries, err := f.svc.BuildManifest(context.Background(), &services.ExportRequest{
		FileIDs: []string{kept.ID, lost.ID},
		OwnerID: "u1",
	})
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}

	var buf bytes.Buffer
	if err := f.svc.WriteZip(context.Background(), entries, &buf); err != nil {
		t.Fatalf("WriteZip() must tolerate a missing blob, got %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "kept.txt" {
		t.Errorf("zip must hold only the entry whose blob exists")
	}
}
