package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"rotavault/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names. The two folder
// families get separate tables with identical shape.
type TableNames struct {
	CaseFolders  string
	CaseNotes    string
	CaseTagLinks string
	StarredCases string
	FileFolders  string
	Files        string
	FileTagLinks string
	FileVersions string
	StarredFiles string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		CaseFolders:  fmt.Sprintf("%scase_folders", prefix),
		CaseNotes:    fmt.Sprintf("%scase_notes", prefix),
		CaseTagLinks: fmt.Sprintf("%scase_note_tags", prefix),
		StarredCases: fmt.Sprintf("%sstarred_case_notes", prefix),
		FileFolders:  fmt.Sprintf("%sfile_folders", prefix),
		Files:        fmt.Sprintf("%sfiles", prefix),
		FileTagLinks: fmt.Sprintf("%sfile_tags", prefix),
		FileVersions: fmt.Sprintf("%sfile_versions", prefix),
		StarredFiles: fmt.Sprintf("%sstarred_files", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
//
// Dynamic table names via fmt.Sprintf are safe with prepared statements:
// the SQL string is interpolated before it reaches the database, so each
// environment prefix gets its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the query executor for the context: the transaction
// when one is present, the pool otherwise. This is what lets one
// TransactionManager.ExecTx call span several repositories.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
