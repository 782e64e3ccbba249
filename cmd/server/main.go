package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rotavault/internal/auth"
	"rotavault/internal/config"
	"rotavault/internal/handler"
	"rotavault/internal/middleware"
	"rotavault/internal/repository/postgres"
	serviceAuth "rotavault/internal/service/auth"
	"rotavault/internal/service/vault"
	"rotavault/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verifier against the identity provider's JWKS endpoint
	verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer verifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Blob storage for uploaded files
	blobs, err := storage.NewMinioBlobStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect blob storage: %v", err)
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	// Repositories: one folder store per tree family, plus the leaf stores
	caseFolderRepo := postgres.NewCaseFolderRepository(repoConfig)
	fileFolderRepo := postgres.NewFileFolderRepository(repoConfig)
	noteRepo := postgres.NewCaseNoteRepository(repoConfig)
	fileRepo := postgres.NewStoredFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	authorizer := serviceAuth.NewScopedAuthorizer()
	caseWalker := vault.NewWalker(caseFolderRepo)
	fileWalker := vault.NewWalker(fileFolderRepo)

	// Case tree services
	caseFolderService := vault.NewFolderService("case", caseFolderRepo, noteRepo, caseWalker, authorizer, logger)
	caseTrashService := vault.NewTrashService("case", caseFolderRepo, noteRepo, caseWalker, txManager, authorizer, nil, logger)
	noteService := vault.NewCaseNoteService(noteRepo, caseFolderRepo, authorizer, logger)

	// File tree services
	fileFolderService := vault.NewFolderService("file", fileFolderRepo, fileRepo, fileWalker, authorizer, logger)
	fileTrashService := vault.NewTrashService("file", fileFolderRepo, fileRepo, fileWalker, txManager, authorizer, blobs, logger)
	fileService := vault.NewFileService(fileRepo, fileFolderRepo, authorizer, blobs, cfg.MaxUploadSize, cfg.AllowedFileTypes, logger)
	archiveService := vault.NewArchiveService(fileFolderRepo, fileRepo, authorizer, blobs, logger)

	// Handlers, one set per tree family
	caseFolderHandler := handler.NewFolderHandler(caseFolderService, logger)
	caseTrashHandler := handler.NewTrashHandler(caseTrashService, logger)
	noteHandler := handler.NewCaseNoteHandler(noteService, logger)

	fileFolderHandler := handler.NewFolderHandler(fileFolderService, logger)
	fileTrashHandler := handler.NewTrashHandler(fileTrashService, logger)
	fileHandler := handler.NewFileHandler(fileService, cfg.MaxUploadSize, logger)
	exportHandler := handler.NewExportHandler(archiveService, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Case tree
	mux.HandleFunc("GET /api/cases/folders", caseFolderHandler.ListRoot)
	mux.HandleFunc("POST /api/cases/folders", caseFolderHandler.CreateFolder)
	mux.HandleFunc("GET /api/cases/folders/{id}", caseFolderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/cases/folders/{id}", caseFolderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/cases/folders/{id}", caseTrashHandler.TrashFolder)
	mux.HandleFunc("POST /api/cases/folders/{id}/restore", caseTrashHandler.RestoreFolder)
	mux.HandleFunc("DELETE /api/cases/folders/{id}/purge", caseTrashHandler.PurgeFolder)
	mux.HandleFunc("GET /api/cases/tree", caseFolderHandler.GetTree)

	mux.HandleFunc("GET /api/cases/items", noteHandler.ListNotes)
	mux.HandleFunc("POST /api/cases/items", noteHandler.CreateNote)
	mux.HandleFunc("GET /api/cases/items/{id}", noteHandler.GetNote)
	mux.HandleFunc("PATCH /api/cases/items/{id}", noteHandler.UpdateNote)
	mux.HandleFunc("DELETE /api/cases/items/{id}", caseTrashHandler.TrashItem)
	mux.HandleFunc("POST /api/cases/items/{id}/restore", caseTrashHandler.RestoreItem)
	mux.HandleFunc("DELETE /api/cases/items/{id}/purge", caseTrashHandler.PurgeItem)

	mux.HandleFunc("GET /api/cases/trash", caseTrashHandler.ListTrash)
	mux.HandleFunc("DELETE /api/cases/trash", caseTrashHandler.EmptyTrash)

	// File tree
	mux.HandleFunc("GET /api/files/folders", fileFolderHandler.ListRoot)
	mux.HandleFunc("POST /api/files/folders", fileFolderHandler.CreateFolder)
	mux.HandleFunc("GET /api/files/folders/{id}", fileFolderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/files/folders/{id}", fileFolderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/files/folders/{id}", fileTrashHandler.TrashFolder)
	mux.HandleFunc("POST /api/files/folders/{id}/restore", fileTrashHandler.RestoreFolder)
	mux.HandleFunc("DELETE /api/files/folders/{id}/purge", fileTrashHandler.PurgeFolder)
	mux.HandleFunc("GET /api/files/tree", fileFolderHandler.GetTree)

	mux.HandleFunc("GET /api/files/items", fileHandler.ListFiles)
	mux.HandleFunc("POST /api/files/items", fileHandler.Upload)
	mux.HandleFunc("GET /api/files/items/{id}", fileHandler.GetFile)
	mux.HandleFunc("GET /api/files/items/{id}/download", fileHandler.Download)
	mux.HandleFunc("DELETE /api/files/items/{id}", fileTrashHandler.TrashItem)
	mux.HandleFunc("POST /api/files/items/{id}/restore", fileTrashHandler.RestoreItem)
	mux.HandleFunc("DELETE /api/files/items/{id}/purge", fileTrashHandler.PurgeItem)

	mux.HandleFunc("GET /api/files/trash", fileTrashHandler.ListTrash)
	mux.HandleFunc("DELETE /api/files/trash", fileTrashHandler.EmptyTrash)

	mux.HandleFunc("POST /api/files/export", exportHandler.Export)

	// Build middleware chain (applied in reverse order, they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	var root http.Handler = mux
	root = middleware.Auth(verifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// Write timeout is generous: zip exports and downloads stream.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Serve until interrupted, then drain in-flight requests
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
