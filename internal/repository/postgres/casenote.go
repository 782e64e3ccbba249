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

// PostgresCaseNoteRepository implements CaseNoteRepository (and with it the
// LeafStore capability for the case-folder trash lifecycle).
type PostgresCaseNoteRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCaseNoteRepository creates a new case-note repository
func NewCaseNoteRepository(config *RepositoryConfig) repositories.CaseNoteRepository {
	return &PostgresCaseNoteRepository{pool: config.Pool, tables: config.Tables}
}

const caseNoteColumns = "id, folder_id, owner_id, title, specialty, body, shared, created_at, updated_at, deleted_at"

func scanCaseNote(row pgx.Row, n *models.CaseNote) error {
	return row.Scan(
		&n.ID,
		&n.FolderID,
		&n.OwnerID,
		&n.Title,
		&n.Specialty,
		&n.Body,
		&n.Shared,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.DeletedAt,
	)
}

func (r *PostgresCaseNoteRepository) collectNotes(rows pgx.Rows) ([]models.CaseNote, error) {
	defer rows.Close()

	var notes []models.CaseNote
	for rows.Next() {
		var note models.CaseNote
		if err := scanCaseNote(rows, &note); err != nil {
			return nil, fmt.Errorf("scan case note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case notes: %w", err)
	}

	return notes, nil
}

func notesAsLeaves(notes []models.CaseNote) []models.Leaf {
	leaves := make([]models.Leaf, 0, len(notes))
	for i := range notes {
		leaves = append(leaves, notes[i].AsLeaf())
	}
	return leaves
}

// Kind names the leaf family for logs
func (r *PostgresCaseNoteRepository) Kind() string { return "case" }

// Create inserts a new case note
func (r *PostgresCaseNoteRepository) Create(ctx context.Context, note *models.CaseNote) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, owner_id, title, specialty, body, shared, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		note.FolderID,
		note.OwnerID,
		note.Title,
		note.Specialty,
		note.Body,
		note.Shared,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create case note: %w", err)
	}

	return nil
}

// GetByID retrieves a case note in any state
func (r *PostgresCaseNoteRepository) GetByID(ctx context.Context, id string) (*models.CaseNote, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, caseNoteColumns, r.tables.CaseNotes)

	var note models.CaseNote
	executor := GetExecutor(ctx, r.pool)
	if err := scanCaseNote(executor.QueryRow(ctx, query, id), &note); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("case note %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get case note: %w", err)
	}

	return &note, nil
}

// Update rewrites the mutable columns
func (r *PostgresCaseNoteRepository) Update(ctx context.Context, note *models.CaseNote) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, title = $2, specialty = $3, body = $4, shared = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		note.FolderID,
		note.Title,
		note.Specialty,
		note.Body,
		note.Shared,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("update case note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("case note %s: %w", note.ID, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists live notes in a folder; nil folderID = root scope
func (r *PostgresCaseNoteRepository) ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.CaseNote, error) {
	var query string
	var args []interface{}

	if folderID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE folder_id IS NULL AND deleted_at IS NULL AND (owner_id = $1 OR shared)
			ORDER BY updated_at DESC
		`, caseNoteColumns, r.tables.CaseNotes)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE folder_id = $1 AND deleted_at IS NULL AND (owner_id = $2 OR shared)
			ORDER BY updated_at DESC
		`, caseNoteColumns, r.tables.CaseNotes)
		args = append(args, *folderID, ownerID)
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list case notes: %w", err)
	}

	return r.collectNotes(rows)
}

// ListVisible lists every live note visible to the owner, flat
func (r *PostgresCaseNoteRepository) ListVisible(ctx context.Context, ownerID string) ([]models.CaseNote, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NULL AND (owner_id = $1 OR shared)
		ORDER BY updated_at DESC
	`, caseNoteColumns, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list visible case notes: %w", err)
	}

	return r.collectNotes(rows)
}

// ListLeavesByFolder lists live notes in a folder as leaves
func (r *PostgresCaseNoteRepository) ListLeavesByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.Leaf, error) {
	notes, err := r.ListByFolder(ctx, folderID, ownerID)
	if err != nil {
		return nil, err
	}
	return notesAsLeaves(notes), nil
}

// ListVisibleLeaves lists every live note visible to the owner as leaves
func (r *PostgresCaseNoteRepository) ListVisibleLeaves(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	notes, err := r.ListVisible(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return notesAsLeaves(notes), nil
}

// GetLeaf retrieves one note as a kind-independent leaf
func (r *PostgresCaseNoteRepository) GetLeaf(ctx context.Context, id string) (*models.Leaf, error) {
	note, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leaf := note.AsLeaf()
	return &leaf, nil
}

// SetDeletedAtByFolders stamps or clears deleted_at on every note attached
// to the folder set
func (r *PostgresCaseNoteRepository) SetDeletedAtByFolders(ctx context.Context, folderIDs []string, deletedAt *time.Time) error {
	if len(folderIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $1, updated_at = now() WHERE folder_id = ANY($2)
	`, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, deletedAt, folderIDs); err != nil {
		return fmt.Errorf("set case note deleted_at by folders: %w", err)
	}

	return nil
}

// SetDeletedAtByIDs stamps or clears deleted_at on the given notes
func (r *PostgresCaseNoteRepository) SetDeletedAtByIDs(ctx context.Context, ids []string, deletedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $1, updated_at = now() WHERE id = ANY($2)
	`, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, deletedAt, ids); err != nil {
		return fmt.Errorf("set case note deleted_at: %w", err)
	}

	return nil
}

// PurgeByFolders permanently removes every note attached to the folder set,
// relation rows first
func (r *PostgresCaseNoteRepository) PurgeByFolders(ctx context.Context, folderIDs []string) ([]models.Leaf, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE folder_id = ANY($1)
	`, caseNoteColumns, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("list case notes for purge: %w", err)
	}

	notes, err := r.collectNotes(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(notes))
	for i := range notes {
		ids = append(ids, notes[i].ID)
	}

	if err := r.purgeRows(ctx, ids); err != nil {
		return nil, err
	}

	return notesAsLeaves(notes), nil
}

// PurgeByIDs permanently removes the given notes, relation rows first
func (r *PostgresCaseNoteRepository) PurgeByIDs(ctx context.Context, ids []string) ([]models.Leaf, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1)`, caseNoteColumns, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list case notes for purge: %w", err)
	}

	notes, err := r.collectNotes(rows)
	if err != nil {
		return nil, err
	}

	if err := r.purgeRows(ctx, ids); err != nil {
		return nil, err
	}

	return notesAsLeaves(notes), nil
}

// PurgeTrashed permanently removes every trashed note owned by ownerID
func (r *PostgresCaseNoteRepository) PurgeTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE deleted_at IS NOT NULL AND owner_id = $1
	`, caseNoteColumns, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed case notes: %w", err)
	}

	notes, err := r.collectNotes(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(notes))
	for i := range notes {
		ids = append(ids, notes[i].ID)
	}

	if err := r.purgeRows(ctx, ids); err != nil {
		return nil, err
	}

	return notesAsLeaves(notes), nil
}

// ListTrashed lists the owner's trashed notes as leaves
func (r *PostgresCaseNoteRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Leaf, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE deleted_at IS NOT NULL AND owner_id = $1
		ORDER BY deleted_at DESC
	`, caseNoteColumns, r.tables.CaseNotes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trashed case notes: %w", err)
	}

	notes, err := r.collectNotes(rows)
	if err != nil {
		return nil, err
	}

	return notesAsLeaves(notes), nil
}

// purgeRows deletes relation rows (tag links, starred refs) before the note
// rows themselves, so an interrupted pass never strands orphaned relations
// pointing at missing notes.
func (r *PostgresCaseNoteRepository) purgeRows(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	executor := GetExecutor(ctx, r.pool)

	relationTables := []struct{ table, column string }{
		{r.tables.CaseTagLinks, "note_id"},
		{r.tables.StarredCases, "note_id"},
	}
	for _, rel := range relationTables {
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`, rel.table, rel.column)
		if _, err := executor.Exec(ctx, query, ids); err != nil {
			return fmt.Errorf("purge %s: %w", rel.table, err)
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.CaseNotes)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("purge case notes: %w", err)
	}

	return nil
}
