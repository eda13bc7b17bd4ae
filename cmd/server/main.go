package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/syncnest/syncnest/internal/audit"
	"github.com/syncnest/syncnest/internal/config"
	"github.com/syncnest/syncnest/internal/hostip"
	"github.com/syncnest/syncnest/internal/library"
	"github.com/syncnest/syncnest/internal/mirror"
	"github.com/syncnest/syncnest/internal/models"
	"github.com/syncnest/syncnest/internal/server"
	"github.com/syncnest/syncnest/internal/stream"
	"github.com/syncnest/syncnest/internal/thumbs"
	"github.com/syncnest/syncnest/internal/tracing"
	"github.com/syncnest/syncnest/internal/upload"
	"github.com/syncnest/syncnest/internal/watcher"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info("starting SyncNest media server", "service", cfg.ServiceName, "port", cfg.ServicePort)

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	// Open the audit store
	store, err := newAuditStore(cfg)
	if err != nil {
		logger.Error("failed to open audit store", "driver", cfg.AuditDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("audit store ready", "driver", cfg.AuditDriver)

	// Background workers stop on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Thumbnail cache and its workers
	thumbCache := thumbs.NewCache(cfg.ThumbnailDir, thumbs.FFmpegExtractor(cfg.FFmpegPath), logger)
	if err := thumbCache.Start(ctx, cfg.ThumbWorkers); err != nil {
		logger.Error("failed to start thumbnail workers", "error", err)
		os.Exit(1)
	}

	// Library indexer over the per-class roots
	indexer := library.New(cfg.HomeDir, map[models.MediaClass]string{
		models.ClassVideo:    cfg.VideoDir,
		models.ClassMusic:    cfg.MusicDir,
		models.ClassDocument: cfg.DocumentDir,
		models.ClassPicture:  cfg.PictureDir,
	}, logger)

	// Pre-warm thumbnails for videos already on disk and watch for new ones
	vw := watcher.New(cfg.VideoDir, thumbCache, logger)
	if err := vw.Start(ctx); err != nil {
		logger.Warn("video watcher unavailable", "error", err)
	}

	// Upload dispatcher with disk-space preflight
	dispatcher := upload.NewDispatcher(upload.Dirs{
		Video:    cfg.VideoDir,
		Music:    cfg.MusicDir,
		Document: cfg.DocumentDir,
		Picture:  cfg.PictureDir,
		Overflow: filepath.Join(cfg.OverflowDir, "others"),
	}, cfg.MinFreeBytes, cfg.UploadOverwrite, store, logger)

	// Optional S3-compatible mirror for accepted uploads
	var uploadMirror server.UploadMirror
	if cfg.MirrorEndpoint != "" {
		m, err := mirror.New(cfg.MirrorEndpoint, cfg.MirrorAccessKey, cfg.MirrorSecretKey, cfg.MirrorBucket, cfg.MirrorUseSSL, logger)
		if err != nil {
			logger.Error("failed to initialize upload mirror", "error", err)
			os.Exit(1)
		}
		uploadMirror = m
		logger.Info("upload mirror enabled", "endpoint", cfg.MirrorEndpoint, "bucket", cfg.MirrorBucket)
	}

	engine := stream.NewEngine(store, logger)

	hostAddr := hostip.LocalIPv4()
	logger.Info("library reachable on LAN", "host", hostAddr, "port", cfg.ServicePort)

	srv := server.New(indexer, thumbCache, engine, dispatcher, store, uploadMirror, logger, server.Options{
		HomeDir:        cfg.HomeDir,
		HostAddr:       hostAddr,
		ServiceName:    cfg.ServiceName,
		MaxUploadBytes: cfg.GetMaxUploadBytes(),
	})

	httpSrv := &http.Server{
		Addr:        ":" + cfg.ServicePort,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: a feature-length video streams longer than any
		// sane fixed limit; a dead client surfaces as a broken pipe.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", "error", err)
	}
	logger.Info("server exited")
}

// newLogger builds the JSON logger, rotating through lumberjack when a log
// directory is configured.
func newLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogDir != "" {
		out = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "syncnest.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// newAuditStore selects the audit store driver. SQLite is the default; the
// MySQL store exists for deployments that outgrow a single file.
func newAuditStore(cfg *config.Config) (audit.Store, error) {
	if cfg.AuditDriver == "mysql" {
		return audit.NewMySQLStore(cfg.GetDSN())
	}
	return audit.NewSQLiteStore(cfg.AuditDBPath)
}
