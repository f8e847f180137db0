// Command server is the entry point for the oryxchat backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/ccellsty/oryxchatfrfr/internal/blob"
	"github.com/ccellsty/oryxchatfrfr/internal/config"
	"github.com/ccellsty/oryxchatfrfr/internal/database"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "oryxchat",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		observability.Logger.Warn("Redis unreachable, realtime delivery disabled", "error", err)
		redisClient = nil
	}

	store, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, redisClient, store)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down server...")
		cancel()
	}()

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(ctx); err != nil {
		log.Printf("Server exited: %v", err)
	}

	if err := shutdownTracing(context.Background()); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
}

func newBlobStore(cfg *config.Config) (blob.Store, error) {
	if cfg.BlobBackend == "s3" {
		store, err := blob.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := blob.NewLocalStore(cfg.BlobLocalDir, cfg.BlobPublicURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}
