package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"eventdrop/internal/config"
	"eventdrop/internal/fetch"
	"eventdrop/internal/handler"
	"eventdrop/internal/logger"
	"eventdrop/internal/port"
	"eventdrop/internal/repository/postgres"
	"eventdrop/internal/router"
	"eventdrop/internal/service"
	"eventdrop/internal/storage/local"
	s3storage "eventdrop/internal/storage/s3"
)

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	collectionRepo := postgres.NewCollectionRepo(db)
	mediaRepo := postgres.NewMediaObjectRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Initialize storage
	storage, localH, err := newStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	fetcher := fetch.NewHTTPFetcher(nil)

	// Initialize services
	policies := service.PoliciesFromConfig(&cfg.Upload)
	authSvc := service.NewAuthService(cfg.Auth)
	validator := service.NewIngestValidator(collectionRepo, policies)
	pipeline := service.NewUploadPipeline(validator, storage, log)
	archives := service.NewArchiveBuilder(storage, fetcher, service.ArchiveConfig{
		Workers:          cfg.Archive.Workers,
		FetchTimeout:     cfg.Archive.FetchTimeout(),
		SignedURLTTL:     cfg.Storage.SignedURLTTL(),
		CompressionLevel: cfg.Archive.CompressionLevel,
		MaxEntryBytes:    service.LargestCeiling(policies),
	}, log)
	proxy := service.NewImageProxy(storage, fetcher, cfg.Storage.SignedURLTTL(), log)
	mediaSvc := service.NewMediaService(collectionRepo, mediaRepo, pipeline, archives, proxy, storage,
		service.MediaServiceConfig{
			SignedURLTTL:  cfg.Storage.SignedURLTTL(),
			RetryAttempts: cfg.Upload.RetryAttempts,
		}, log)
	statsSvc := service.NewStatsService(statsRepo)

	// Initialize handlers
	uploadH := handler.NewUploadHandler(mediaSvc, policies)
	mediaH := handler.NewMediaHandler(mediaSvc)
	statsH := handler.NewStatsHandler(statsSvc)
	healthH := handler.NewHealthHandler(db, storage)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.Setup(log, cfg.CORS.AllowedOrigins, authSvc, uploadH, mediaH, statsH, healthH, localH)

	server := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("storage", cfg.Storage.Provider).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, draining connections")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newStorage builds the configured object storage provider. The local
// provider also needs its object handler mounted.
func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (port.ObjectStorage, *handler.LocalObjectHandler, error) {
	switch cfg.Storage.Provider {
	case config.StorageProviderLocal:
		store, err := local.NewStorage(&cfg.Local, &cfg.Storage, log)
		if err != nil {
			return nil, nil, err
		}
		return store, handler.NewLocalObjectHandler(store), nil
	default:
		store, err := s3storage.NewS3Client(ctx, &cfg.S3, &cfg.Storage, log)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

func loadEnvFiles() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
