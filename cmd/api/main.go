package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/abylay/filestore/internal/blob"
	"github.com/abylay/filestore/internal/config"
	"github.com/abylay/filestore/internal/filestore"
	"github.com/abylay/filestore/internal/logger"
	"github.com/abylay/filestore/internal/metrics"
	"github.com/abylay/filestore/internal/server"
	"github.com/abylay/filestore/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metadataStore filestore.MetadataStore
	switch cfg.Metadata.Kind {
	case config.MetadataPostgres:
		dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logg.Fatal("connect postgres", zap.Error(err))
		}
		defer dbPool.Close()
		metadataStore = filestore.NewPostgresStore(dbPool)
	case config.MetadataMemory:
		metadataStore = filestore.NewMemoryStore()
	}

	var blobStore blob.Store
	switch cfg.Storage.Kind {
	case config.StorageMinIO:
		minioClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			logg.Fatal("connect minio", zap.Error(err))
		}
		if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
			logg.Fatal("ensure bucket", zap.Error(err))
		}
		blobStore = blob.NewObjectStore(minioClient, cfg.MinIO.Bucket)
	case config.StorageFilesystem:
		fsStore, err := blob.NewFilesystemStore(cfg.Storage.Root)
		if err != nil {
			logg.Fatal("init filesystem storage", zap.Error(err))
		}
		blobStore = fsStore
	case config.StorageMemory:
		blobStore = blob.NewMemoryStore()
	}

	fileService := filestore.NewService(metadataStore, blobStore, logg)

	metrics.InitMetrics()
	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Log:         logg,
		Metadata:    metadataStore,
		Blobs:       blobStore,
		FileService: fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("filestore API listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("storage", string(cfg.Storage.Kind)),
			zap.String("metadata", string(cfg.Metadata.Kind)))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
