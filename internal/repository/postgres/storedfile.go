package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"rotavault/internal/domain"
	"rotavault/internal/domain/models"
	"rotavault/internal/domain/repositories"
)

// PostgresStoredFileRepository implements StoredFileRepository (and with it
// the LeafStore capability for the file-folder trash lifecycle).
type PostgresStoredFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewStoredFileRepository creates a new stored-file repository
func NewStoredFileRepository(config *RepositoryConfig) repositories.StoredFileRepository {
	return &PostgresStoredFileRepository{pool: config.Pool, tables: config.Tables}
}

const storedFileColumns = "id, folder_id, owner_id, original_name, blob_path, size, mime_type, shared, download_count, created_at, updated_at, deleted_at"

func scanStoredFile(row pgx.Row, f *models.StoredFile) error {
	return row.Scan(
		&f.ID,
		&f.FolderID,
		&f.OwnerID,
		&f.OriginalName,
		&f.BlobPath,
		&f.Size,
		&f.MimeType,
		&f.Shared,
		&f.DownloadCount,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
}

func (r *PostgresStoredFileRepository) collectFiles(rows pgx.Rows) ([]models.StoredFile, error) {
	defer rows.Close()

	var files []models.StoredFile
	for rows.Next() {
		var file models.StoredFile
		if err := scanStoredFile(rows, &file); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

func filesAsLeaves(files []models.StoredFile) []models.Leaf {
	leaves := make([]models.Leaf, 0, len(files))
	for i := range files {
		leaves = append(leaves, files[i].AsLeaf())
	}
	return leaves
}

// Kind names the leaf family for logs
func (r *PostgresStoredFileRepository) Kind() string { return "file" }

// Create inserts a new file row
func (r *PostgresStoredFileRepository) Create(ctx context.Context, file *models.StoredFile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, owner_id, original_name, blob_path, size, mime_type, shared, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.FolderID,
		file.OwnerID,
		file.OriginalName,
		file.BlobPath,
		file.Size,
		file.MimeType,
		file.Shared,
		file.CreatedAt,
		file.UpdatedAt,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("file %q: %w", file.OriginalName, domain.ErrConflict)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file in any state
func (r *PostgresStoredFileRepository) GetByID(ctx context.Context, id string) (*models.StoredFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, storedFileColumns, r.tables.Files)

	var file models.StoredFile
	executor := GetExecutor(ctx, r.pool)
	if err := scanStoredFile(executor.QueryRow(ctx, query, id), &file); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return &file, nil
}

// GetByIDs retrieves files by id set, in any state
func (r *PostgresStoredFileRepository) GetByIDs(ctx context.Context, ids []string) ([]models.StoredFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1)`, storedFileColumns, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get files: %w", err)
	}

	return r.collectFiles(rows)
}

// Update rewrites the mutable columns
func (r *PostgresStoredFileRepository) Update(ctx context.Context, file *models.StoredFile) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, original_name = $2, shared = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		file.FolderID,
		file.OriginalName,
		file.Shared,
		file.UpdatedAt,
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists live files in a folder; nil folderID = root scope
func (r *PostgresStoredFileRepository) ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.StoredFile, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE folder_id IS NULL AND deleted_at IS NULL AND (owner_id = $1 OR shared)
			ORDER BY original_name ASC
		`, storedFileColumns, r.tables.Files)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE folder_id = $1 AND deleted_at IS NULL AND (owner_id = $2 OR shared)
			ORDER BY original_name ASC
		`, storedFileColumns, r.tables.Files)
		args = append(args, *folderID, ownerID)
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return r.collectFiles(rows)
}

// ListLiveByFolder lists live files in a folder regardless of owner; the
// archive walk checks per-file visibility on the rows it gets back.
func (r *PostgresStoredFileRepository) ListLiveByFolder(ctx context.Context, folderID string) ([]models.StoredFile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE folder_id = $1 AND deleted_at IS NULL
		ORDER BY original_name ASC
	`, storedFileColumns, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list live files: %w", err)
	}

	return r.collectFiles(rows)
}

// ListVisible lists every live file visible to the owner, flat
func (r *PostgresStoredFileRepository) ListVisible(ctx context.Context, ownerID string) ([]models.StoredFile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NULL AND (owner_id = $1 OR shared)
		ORDER BY original_name ASC
	`, storedFileColumns, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list visible files: %w", err)
	}

	return r.collectFiles(rows)
}

// IncrementDownloadCounts bumps download_count by one for each id
func (r *PostgresStoredFileRepository) IncrementDownloadCounts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET download_count = download_count + 1 WHERE id = ANY($1)
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("increment download counts: %w", err)
	}

	return nil
}

// ListLeavesByFolder lists live files in a folder as leaves
func (r *PostgresStoredFileRepository) ListLeavesByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.Leaf, error) {
	files, err := r.ListByFolder(ctx, folderID, ownerID)
	if err != nil {
		return nil, err
	}
	return filesAsLeaves(files), nil
}

// ListVisibleLeaves lists every live file visible to the owner as leaves
func (r *PostgresStoredFileRepository) ListVisibleLeaves(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	files, err := r.ListVisible(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return filesAsLeaves(files), nil
}

// GetLeaf retrieves one file as a kind-independent leaf
func (r *PostgresStoredFileRepository) GetLeaf(ctx context.Context, id string) (*models.Leaf, error) {
	file, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leaf := file.AsLeaf()
	return &leaf, nil
}

// SetDeletedAtByFolders stamps or clears deleted_at on every file attached
// to the folder set
func (r *PostgresStoredFileRepository) SetDeletedAtByFolders(ctx context.Context, folderIDs []string, deletedAt *time.Time) error {
	if len(folderIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $1, updated_at = now() WHERE folder_id = ANY($2)
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, deletedAt, folderIDs); err != nil {
		return fmt.Errorf("set file deleted_at by folders: %w", err)
	}

	return nil
}

// SetDeletedAtByIDs stamps or clears deleted_at on the given files
func (r *PostgresStoredFileRepository) SetDeletedAtByIDs(ctx context.Context, ids []string, deletedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $1, updated_at = now() WHERE id = ANY($2)
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, deletedAt, ids); err != nil {
		return fmt.Errorf("set file deleted_at: %w", err)
	}

	return nil
}

// PurgeByFolders permanently removes every file attached to the folder set,
// relation rows first
func (r *PostgresStoredFileRepository) PurgeByFolders(ctx context.Context, folderIDs []string) ([]models.Leaf, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = ANY($1)`, storedFileColumns, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("list files for purge: %w", err)
	}

	files, err := r.collectFiles(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(files))
	for i := range files {
		ids = append(ids, files[i].ID)
	}

	if err := r.purgeRows(ctx, ids); err != nil {
		return nil, err
	}

	return filesAsLeaves(files), nil
}

// PurgeByIDs permanently removes the given files, relation rows first
func (r *PostgresStoredFileRepository) PurgeByIDs(ctx context.Context, ids []string) ([]models.Leaf, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	files, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := r.purgeRows(ctx, ids); err != nil {
		return nil, err
	}

	return filesAsLeaves(files), nil
}

// PurgeTrashed permanently removes every trashed file owned by ownerID
func (r *PostgresStoredFileRepository) PurgeTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE deleted_at IS NOT NULL AND owner_id = $1
	`, storedFileColumns, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed files: %w", err)
	}

	files, err := r.collectFiles(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(files))
	for i := range files {
		ids = append(ids, files[i].ID)
	}

	if err := r.purgeRows(ctx, ids); err != nil {
		return nil, err
	}

	return filesAsLeaves(files), nil
}

// ListTrashed lists the owner's trashed files as leaves
func (r *PostgresStoredFileRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NOT NULL AND owner_id = $1
		ORDER BY deleted_at DESC
	`, storedFileColumns, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed files: %w", err)
	}

	files, err := r.collectFiles(rows)
	if err != nil {
		return nil, err
	}

	return filesAsLeaves(files), nil
}

// purgeRows deletes relation rows (tag links, version history, starred
// refs) before the file rows themselves.
func (r *PostgresStoredFileRepository) purgeRows(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	executor := GetExecutor(ctx, r.pool)

	relationTables := []struct{ table, column string }{
		{r.tables.FileTagLinks, "file_id"},
		{r.tables.FileVersions, "file_id"},
		{r.tables.StarredFiles, "file_id"},
	}
	for _, rel := range relationTables {
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`, rel.table, rel.column)
		if _, err := executor.Exec(ctx, query, ids); err != nil {
			return fmt.Errorf("purge %s: %w", rel.table, err)
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Files)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("purge files: %w", err)
	}

	return nil
}
