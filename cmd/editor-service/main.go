package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/ArnabMallick12/Video-Editor/docs"
	"github.com/ArnabMallick12/Video-Editor/internal/config"
	"github.com/ArnabMallick12/Video-Editor/internal/encoder"
	"github.com/ArnabMallick12/Video-Editor/internal/fetch"
	"github.com/ArnabMallick12/Video-Editor/internal/filter"
	"github.com/ArnabMallick12/Video-Editor/internal/http/handlers/edit"
	"github.com/ArnabMallick12/Video-Editor/internal/http/middleware"
	"github.com/ArnabMallick12/Video-Editor/internal/ratelimit"
	"github.com/ArnabMallick12/Video-Editor/internal/services/editor"
	"github.com/ArnabMallick12/Video-Editor/internal/storage"
	"github.com/ArnabMallick12/Video-Editor/internal/storage/local"
	"github.com/ArnabMallick12/Video-Editor/internal/storage/minio"
	"github.com/ArnabMallick12/Video-Editor/internal/storage/s3"
	"github.com/ArnabMallick12/Video-Editor/internal/workspace"
)

// @title Video Editor API
// @version 1.0
// @description Trims, mutes and overlays text on remote videos with ffmpeg.
// @host localhost:5000
// @BasePath /
func main() {
	// load config
	cfg := config.MustLoad()

	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx := context.Background()

	// artifact storage
	store, localStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize artifact storage:", err)
	}
	logger.Info("Artifact storage ready", slog.String("driver", cfg.Storage.Driver))

	root, err := workspace.NewRoot(cfg.Workspace.Root, logger)
	if err != nil {
		log.Fatal("Failed to initialize workspace root:", err)
	}

	processor := encoder.New(encoder.Config{
		FfmpegBinPath:  cfg.Encoder.FfmpegBinPath,
		FfprobeBinPath: cfg.Encoder.FfprobeBinPath,
		Timeout:        cfg.Encoder.Timeout,
		KillGrace:      cfg.Encoder.KillGrace,
		MaxConcurrent:  cfg.Encoder.MaxConcurrent,
	}, logger)

	service := editor.NewService(editor.Deps{
		Workspaces: root,
		Fetcher: fetch.NewFetcher(fetch.Config{
			Timeout:  cfg.Fetch.Timeout,
			MaxBytes: cfg.Fetch.MaxBytes,
		}, nil, logger),
		Builder:   filter.NewBuilder(cfg.Encoder.FontPath),
		Processor: processor,
		Prober:    processor,
		Store:     store,
	}, logger)

	editHandlers := edit.NewEditHandlers(service, cfg.Media.MaxThumbnailSize, cfg.Media.MaxFormMemory, logger)

	var editHandler http.Handler = editHandlers.Edit()
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))

		limiter := ratelimit.NewTokenBucket(redisClient, "edit",
			cfg.RateLimit.Capacity, cfg.RateLimit.Refill, cfg.RateLimit.Window)
		editHandler = middleware.NewRateLimitConfig(limiter, cfg.RateLimit.TrustProxy, logger).
			RateLimitMiddleware(editHandler)
	} else {
		logger.Warn("Redis address not set, rate limiting disabled")
	}

	// setup router
	router := http.NewServeMux()

	router.Handle("POST /api/edit", editHandler)
	router.HandleFunc("GET /health", edit.Health())
	router.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if localStore != nil {
		router.Handle("GET "+cfg.Local.URLPath,
			http.StripPrefix(cfg.Local.URLPath, http.FileServer(http.Dir(localStore.Dir()))))
	}

	handler := middleware.RequestID(logger)(
		middleware.CORS(cfg.CORS.AllowedOrigins, []string{http.MethodGet, http.MethodPost})(router),
	)

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	logger.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	logger.Info("Server stopped")
}

func newLogger(env string) *slog.Logger {
	if env == "local" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// newStore builds the configured artifact store. The local store is also
// returned so its directory can be served.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ArtifactStore, *local.Store, error) {
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.Storage.Driver {
	case "minio":
		store, err := minio.New(initCtx, minio.Config{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKeyID,
			SecretAccessKey: cfg.MinIO.SecretAccessKey,
			BucketName:      cfg.MinIO.BucketName,
			UseSSL:          cfg.MinIO.UseSSL,
			Region:          cfg.MinIO.Region,
			PublicBaseURL:   cfg.MinIO.PublicBaseURL,
		}, logger)
		return store, nil, err

	case "s3":
		store, err := s3.New(initCtx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		}, logger)
		return store, nil, err

	default:
		store, err := local.New(cfg.Local.Dir, storage.JoinURL(cfg.HTTPServer.PublicURL, cfg.Local.URLPath), logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}
