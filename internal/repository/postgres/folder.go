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

// PostgresFolderRepository implements FolderRepository over one folder
// table. The server builds two instances, one per tree family.
type PostgresFolderRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewCaseFolderRepository creates the repository for the case-folder tree.
func NewCaseFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{pool: config.Pool, table: config.Tables.CaseFolders}
}

// NewFileFolderRepository creates the repository for the file-folder tree.
func NewFileFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{pool: config.Pool, table: config.Tables.FileFolders}
}

const folderColumns = "id, name, color, parent_id, owner_id, shared, sort_order, created_at, updated_at, deleted_at"

func scanFolder(row pgx.Row, f *models.Folder) error {
	return row.Scan(
		&f.ID,
		&f.Name,
		&f.Color,
		&f.ParentID,
		&f.OwnerID,
		&f.Shared,
		&f.SortOrder,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
}

func (r *PostgresFolderRepository) collectFolders(rows pgx.Rows) ([]models.Folder, error) {
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		if err := scanFolder(rows, &folder); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// Create inserts a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, color, parent_id, owner_id, shared, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.table)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.Name,
		folder.Color,
		folder.ParentID,
		folder.OwnerID,
		folder.Shared,
		folder.SortOrder,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("folder %q: %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder in any state, trashed included
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.table)

	var folder models.Folder
	executor := GetExecutor(ctx, r.pool)
	if err := scanFolder(executor.QueryRow(ctx, query, id), &folder); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &folder, nil
}

// Update rewrites the mutable columns
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, color = $2, parent_id = $3, shared = $4, sort_order = $5, updated_at = $6
		WHERE id = $7
	`, r.table)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.Name,
		folder.Color,
		folder.ParentID,
		folder.Shared,
		folder.SortOrder,
		folder.UpdatedAt,
		folder.ID,
	)

	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists direct children in any state. Trashed folders remain
// valid parents during restore and purge cascades.
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_id = $1
		ORDER BY sort_order ASC, name ASC
	`, folderColumns, r.table)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list folder children: %w", err)
	}

	return r.collectFolders(rows)
}

// ListRoots lists live root-level folders visible to the owner
func (r *PostgresFolderRepository) ListRoots(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_id IS NULL AND deleted_at IS NULL AND (owner_id = $1 OR shared)
		ORDER BY sort_order ASC, name ASC
	`, folderColumns, r.table)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}

	return r.collectFolders(rows)
}

// ListVisible lists every live folder visible to the owner, flat
func (r *PostgresFolderRepository) ListVisible(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NULL AND (owner_id = $1 OR shared)
		ORDER BY sort_order ASC, name ASC
	`, folderColumns, r.table)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list visible folders: %w", err)
	}

	return r.collectFolders(rows)
}

// MaxSiblingOrder returns the highest sort_order among live siblings, 0
// when there are none. Not serialized against concurrent creations:
// duplicate sort orders are tolerated, the field is a display hint.
func (r *PostgresFolderRepository) MaxSiblingOrder(ctx context.Context, parentID *string, ownerID string) (int, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT COALESCE(MAX(sort_order), 0) FROM %s
			WHERE parent_id IS NULL AND deleted_at IS NULL AND owner_id = $1
		`, r.table)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT COALESCE(MAX(sort_order), 0) FROM %s
			WHERE parent_id = $1 AND deleted_at IS NULL
		`, r.table)
		args = append(args, *parentID)
	}

	var max int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&max); err != nil {
		return 0, fmt.Errorf("max sibling order: %w", err)
	}

	return max, nil
}

// SetDeletedAt stamps or clears deleted_at on every folder in the id set
func (r *PostgresFolderRepository) SetDeletedAt(ctx context.Context, ids []string, deletedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $1, updated_at = now() WHERE id = ANY($2)
	`, r.table)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, deletedAt, ids); err != nil {
		return fmt.Errorf("set folder deleted_at: %w", err)
	}

	return nil
}

// DeleteByIDs removes folder rows permanently
func (r *PostgresFolderRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.table)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder still referenced: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete folders: %w", err)
	}

	return nil
}

// ListTrashed lists the owner's trashed folders, most recently trashed first
func (r *PostgresFolderRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NOT NULL AND owner_id = $1
		ORDER BY deleted_at DESC
	`, folderColumns, r.table)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed folders: %w", err)
	}

	return r.collectFolders(rows)
}
