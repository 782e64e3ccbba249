package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
	"rotavault/internal/storage"
)

// ============================================================================
// IN-MEMORY FAKES - map-backed repository implementations for service tests
// ============================================================================

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

type memFolderRepo struct {
	mu      sync.Mutex
	folders map[string]*models.Folder
	nextID  int
}

func newMemFolderRepo() *memFolderRepo {
	return &memFolderRepo{folders: make(map[string]*models.Folder)}
}

func (r *memFolderRepo) add(f models.Folder) *models.Folder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		r.nextID++
		f.ID = fmt.Sprintf("folder-%d", r.nextID)
	}
	stored := f
	r.folders[stored.ID] = &stored
	return &stored
}

func (r *memFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	folder.ID = fmt.Sprintf("folder-%d", r.nextID)
	stored := *folder
	r.folders[folder.ID] = &stored
	return nil
}

func (r *memFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	copied := *f
	return &copied, nil
}

func (r *memFolderRepo) Update(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[folder.ID]; !ok {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	stored := *folder
	r.folders[folder.ID] = &stored
	return nil
}

func (r *memFolderRepo) ListChildren(ctx context.Context, parentID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, *f)
		}
	}
	sortFolders(out)
	return out, nil
}

func (r *memFolderRepo) ListRoots(ctx context.Context, ownerID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.ParentID == nil && f.DeletedAt == nil && (f.OwnerID == ownerID || f.Shared) {
			out = append(out, *f)
		}
	}
	sortFolders(out)
	return out, nil
}

func (r *memFolderRepo) ListVisible(ctx context.Context, ownerID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.DeletedAt == nil && (f.OwnerID == ownerID || f.Shared) {
			out = append(out, *f)
		}
	}
	sortFolders(out)
	return out, nil
}

func (r *memFolderRepo) MaxSiblingOrder(ctx context.Context, parentID *string, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, f := range r.folders {
		if f.OwnerID != ownerID || f.DeletedAt != nil {
			continue
		}
		if !samePointerValue(f.ParentID, parentID) {
			continue
		}
		if f.SortOrder > max {
			max = f.SortOrder
		}
	}
	return max, nil
}

func (r *memFolderRepo) SetDeletedAt(ctx context.Context, ids []string, deletedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if f, ok := r.folders[id]; ok {
			f.DeletedAt = deletedAt
		}
	}
	return nil
}

func (r *memFolderRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.folders, id)
	}
	return nil
}

func (r *memFolderRepo) ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.OwnerID == ownerID && f.DeletedAt != nil {
			out = append(out, *f)
		}
	}
	sortFolders(out)
	return out, nil
}

var _ repositories.FolderRepository = (*memFolderRepo)(nil)

func sortFolders(fs []models.Folder) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].ID < fs[j].ID })
}

func samePointerValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ----------------------------------------------------------------------------

type memLeafStore struct {
	mu     sync.Mutex
	kind   string
	leaves map[string]*models.Leaf
}

func newMemLeafStore(kind string) *memLeafStore {
	return &memLeafStore{kind: kind, leaves: make(map[string]*models.Leaf)}
}

func (s *memLeafStore) add(l models.Leaf) *models.Leaf {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := l
	s.leaves[stored.ID] = &stored
	return &stored
}

func (s *memLeafStore) Kind() string { return s.kind }

func (s *memLeafStore) GetLeaf(ctx context.Context, id string) (*models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leaves[id]
	if !ok {
		return nil, fmt.Errorf("leaf %s: %w", id, domain.ErrNotFound)
	}
	copied := *l
	return &copied, nil
}

func (s *memLeafStore) ListLeavesByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Leaf
	for _, l := range s.leaves {
		if l.DeletedAt != nil || !(l.OwnerID == ownerID || l.Shared) {
			continue
		}
		if samePointerValue(l.FolderID, folderID) {
			out = append(out, *l)
		}
	}
	sortLeaves(out)
	return out, nil
}

func (s *memLeafStore) ListVisibleLeaves(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Leaf
	for _, l := range s.leaves {
		if l.DeletedAt == nil && (l.OwnerID == ownerID || l.Shared) {
			out = append(out, *l)
		}
	}
	sortLeaves(out)
	return out, nil
}

func (s *memLeafStore) SetDeletedAtByFolders(ctx context.Context, folderIDs []string, deletedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := toSet(folderIDs)
	for _, l := range s.leaves {
		if l.FolderID != nil && set[*l.FolderID] {
			l.DeletedAt = deletedAt
		}
	}
	return nil
}

func (s *memLeafStore) SetDeletedAtByIDs(ctx context.Context, ids []string, deletedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if l, ok := s.leaves[id]; ok {
			l.DeletedAt = deletedAt
		}
	}
	return nil
}

func (s *memLeafStore) PurgeByFolders(ctx context.Context, folderIDs []string) ([]models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := toSet(folderIDs)
	var purged []models.Leaf
	for id, l := range s.leaves {
		if l.FolderID != nil && set[*l.FolderID] {
			purged = append(purged, *l)
			delete(s.leaves, id)
		}
	}
	sortLeaves(purged)
	return purged, nil
}

func (s *memLeafStore) PurgeByIDs(ctx context.Context, ids []string) ([]models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged []models.Leaf
	for _, id := range ids {
		if l, ok := s.leaves[id]; ok {
			purged = append(purged, *l)
			delete(s.leaves, id)
		}
	}
	sortLeaves(purged)
	return purged, nil
}

func (s *memLeafStore) PurgeTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged []models.Leaf
	for id, l := range s.leaves {
		if l.OwnerID == ownerID && l.DeletedAt != nil {
			purged = append(purged, *l)
			delete(s.leaves, id)
		}
	}
	sortLeaves(purged)
	return purged, nil
}

func (s *memLeafStore) ListTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Leaf
	for _, l := range s.leaves {
		if l.OwnerID == ownerID && l.DeletedAt != nil {
			out = append(out, *l)
		}
	}
	sortLeaves(out)
	return out, nil
}

var _ repositories.LeafStore = (*memLeafStore)(nil)

func sortLeaves(ls []models.Leaf) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].ID < ls[j].ID })
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ----------------------------------------------------------------------------

// memFileRepo wraps memLeafStore with the StoredFileRepository extras the
// archive exporter and file service need.
type memFileRepo struct {
	*memLeafStore
	mu    sync.Mutex
	files map[string]*models.StoredFile
	next  int
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{
		memLeafStore: newMemLeafStore("file"),
		files:        make(map[string]*models.StoredFile),
	}
}

func (r *memFileRepo) addFile(f models.StoredFile) *models.StoredFile {
	r.mu.Lock()
	if f.ID == "" {
		r.next++
		f.ID = fmt.Sprintf("file-%d", r.next)
	}
	stored := f
	r.files[stored.ID] = &stored
	r.mu.Unlock()
	r.memLeafStore.add(stored.AsLeaf())
	return &stored
}

func (r *memFileRepo) Create(ctx context.Context, file *models.StoredFile) error {
	r.mu.Lock()
	r.next++
	file.ID = fmt.Sprintf("file-%d", r.next)
	stored := *file
	r.files[file.ID] = &stored
	r.mu.Unlock()
	r.memLeafStore.add(stored.AsLeaf())
	return nil
}

func (r *memFileRepo) GetByID(ctx context.Context, id string) (*models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	copied := *f
	return &copied, nil
}

func (r *memFileRepo) Update(ctx context.Context, file *models.StoredFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *file
	r.files[file.ID] = &stored
	return nil
}

func (r *memFileRepo) ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StoredFile
	for _, f := range r.files {
		if f.DeletedAt != nil || !(f.OwnerID == ownerID || f.Shared) {
			continue
		}
		if samePointerValue(f.FolderID, folderID) {
			out = append(out, *f)
		}
	}
	sortFiles(out)
	return out, nil
}

func (r *memFileRepo) ListLiveByFolder(ctx context.Context, folderID string) ([]models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StoredFile
	for _, f := range r.files {
		if f.DeletedAt == nil && f.FolderID != nil && *f.FolderID == folderID {
			out = append(out, *f)
		}
	}
	sortFiles(out)
	return out, nil
}

func (r *memFileRepo) ListVisible(ctx context.Context, ownerID string) ([]models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StoredFile
	for _, f := range r.files {
		if f.DeletedAt == nil && (f.OwnerID == ownerID || f.Shared) {
			out = append(out, *f)
		}
	}
	sortFiles(out)
	return out, nil
}

func (r *memFileRepo) GetByIDs(ctx context.Context, ids []string) ([]models.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StoredFile
	for _, id := range ids {
		if f, ok := r.files[id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *memFileRepo) IncrementDownloadCounts(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if f, ok := r.files[id]; ok {
			f.DownloadCount++
		}
	}
	return nil
}

var _ repositories.StoredFileRepository = (*memFileRepo)(nil)

func sortFiles(fs []models.StoredFile) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].ID < fs[j].ID })
}

// ----------------------------------------------------------------------------

// memTxManager runs the function directly; the fakes have no transactions.
type memTxManager struct{}

func (memTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// ----------------------------------------------------------------------------

type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (s *memBlobStore) Put(ctx context.Context, path string, content io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *memBlobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	s.removed = append(s.removed, path)
	return nil
}

func (s *memBlobStore) Size(ctx context.Context, path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return 0, storage.ErrBlobNotFound
	}
	return int64(len(data)), nil
}

var _ storage.BlobStore = (*memBlobStore)(nil)
