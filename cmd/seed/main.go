package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"rotavault/internal/config"
	"rotavault/internal/domain/services"
	"rotavault/internal/repository/postgres"
	"rotavault/internal/service/auth"
	"rotavault/internal/service/vault"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before setup (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: never drop tables in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	ownerID := os.Getenv("SEED_USER_ID")
	if ownerID == "" {
		log.Fatalf("SEED_USER_ID must be set to seed demo data (or run with --schema-only)")
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	caseFolderRepo := postgres.NewCaseFolderRepository(repoConfig)
	noteRepo := postgres.NewCaseNoteRepository(repoConfig)
	authorizer := auth.NewScopedAuthorizer()
	walker := vault.NewWalker(caseFolderRepo)

	folderService := vault.NewFolderService("case", caseFolderRepo, noteRepo, walker, authorizer, logger)
	noteService := vault.NewCaseNoteService(noteRepo, caseFolderRepo, authorizer, logger)

	log.Println("🌱 Seeding demo case folders and notes...")

	folders := []struct {
		name  string
		color string
	}{
		{"Internal Medicine", "#2563eb"},
		{"Surgery", "#dc2626"},
		{"Pediatrics", "#16a34a"},
	}

	notes := map[string][]struct {
		title     string
		specialty string
	}{
		"Internal Medicine": {
			{"Chest pain workup, 54M", "cardiology"},
			{"DKA admission, 31F", "endocrinology"},
		},
		"Surgery": {
			{"Lap chole postop day 2", "general surgery"},
		},
	}

	for _, f := range folders {
		folder, err := folderService.CreateFolder(ctx, &services.CreateFolderRequest{
			Name:    f.name,
			Color:   f.color,
			OwnerID: ownerID,
		})
		if err != nil {
			log.Printf("❌ Failed to create folder '%s': %v", f.name, err)
			continue
		}
		log.Printf("✅ Created folder: %s (ID: %s)", folder.Name, folder.ID)

		for _, n := range notes[f.name] {
			note, err := noteService.CreateNote(ctx, &services.CreateCaseNoteRequest{
				Title:     n.title,
				Specialty: n.specialty,
				FolderID:  &folder.ID,
				OwnerID:   ownerID,
			})
			if err != nil {
				log.Printf("❌ Failed to create note '%s': %v", n.title, err)
				continue
			}
			log.Printf("✅ Created note: %s (ID: %s)", note.Title, note.ID)
		}
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\""); err != nil {
		return err
	}

	// The two folder families get identical table shapes.
	for _, folderTable := range []string{tables.CaseFolders, tables.FileFolders} {
		createFolders := `
			CREATE TABLE IF NOT EXISTS ` + folderTable + ` (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				name TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				parent_id UUID REFERENCES ` + folderTable + `(id) ON DELETE SET NULL,
				owner_id UUID NOT NULL,
				shared BOOLEAN NOT NULL DEFAULT FALSE,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMPTZ
			)
		`
		if _, err := pool.Exec(ctx, createFolders); err != nil {
			return err
		}
	}

	createNotes := `
		CREATE TABLE IF NOT EXISTS ` + tables.CaseNotes + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID REFERENCES ` + tables.CaseFolders + `(id) ON DELETE SET NULL,
			owner_id UUID NOT NULL,
			title TEXT NOT NULL,
			specialty TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			shared BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createNotes); err != nil {
		return err
	}

	createFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID REFERENCES ` + tables.FileFolders + `(id) ON DELETE SET NULL,
			owner_id UUID NOT NULL,
			original_name TEXT NOT NULL,
			blob_path TEXT NOT NULL,
			size BIGINT NOT NULL,
			mime_type TEXT NOT NULL,
			shared BOOLEAN NOT NULL DEFAULT FALSE,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createFiles); err != nil {
		return err
	}

	// Relation tables swept by the purge paths.
	relations := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.CaseTagLinks + ` (
			note_id UUID NOT NULL REFERENCES ` + tables.CaseNotes + `(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (note_id, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.StarredCases + ` (
			note_id UUID NOT NULL REFERENCES ` + tables.CaseNotes + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			starred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (note_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.FileTagLinks + ` (
			file_id UUID NOT NULL REFERENCES ` + tables.Files + `(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (file_id, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.FileVersions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			file_id UUID NOT NULL REFERENCES ` + tables.Files + `(id) ON DELETE CASCADE,
			blob_path TEXT NOT NULL,
			size BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.StarredFiles + ` (
			file_id UUID NOT NULL REFERENCES ` + tables.Files + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			starred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (file_id, user_id)
		)`,
	}
	for _, relationSQL := range relations {
		if _, err := pool.Exec(ctx, relationSQL); err != nil {
			return err
		}
	}

	// Live rows get unique sibling names; trashed rows stay out of the way
	// so a deleted folder never blocks reusing its name.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `case_folders_owner_parent ON ` + tables.CaseFolders + `(owner_id, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `case_folders_sibling_name ON ` + tables.CaseFolders + `(owner_id, parent_id, name) WHERE deleted_at IS NULL AND parent_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `case_folders_root_name ON ` + tables.CaseFolders + `(owner_id, name) WHERE deleted_at IS NULL AND parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `file_folders_owner_parent ON ` + tables.FileFolders + `(owner_id, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `file_folders_sibling_name ON ` + tables.FileFolders + `(owner_id, parent_id, name) WHERE deleted_at IS NULL AND parent_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `file_folders_root_name ON ` + tables.FileFolders + `(owner_id, name) WHERE deleted_at IS NULL AND parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `case_notes_owner_folder ON ` + tables.CaseNotes + `(owner_id, folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `files_owner_folder ON ` + tables.Files + `(owner_id, folder_id)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.StarredFiles,
		tables.FileVersions,
		tables.FileTagLinks,
		tables.StarredCases,
		tables.CaseTagLinks,
		tables.Files,
		tables.CaseNotes,
		tables.FileFolders,
		tables.CaseFolders,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}
