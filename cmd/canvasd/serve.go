package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/weftworks/canvasd/internal/config"
	"github.com/weftworks/canvasd/internal/enrich"
	"github.com/weftworks/canvasd/internal/events"
	"github.com/weftworks/canvasd/internal/server"
	"github.com/weftworks/canvasd/internal/store"
	"github.com/weftworks/canvasd/internal/store/file"
	"github.com/weftworks/canvasd/internal/store/postgres"
	canvassync "github.com/weftworks/canvasd/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the canvasd HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Pick the canvas store: postgres when configured, files otherwise.
		var st store.Store
		if cfg.DatabaseURL != "" {
			st, err = postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			logger.Info("using postgres store")
		} else {
			st, err = file.New(cfg.DataDir)
			if err != nil {
				return err
			}
			logger.Info("using file store", "dir", cfg.DataDir)
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (CANVASD_NATS_URL not set)")
		}

		// Vault reader for file node content inlining.
		var reader enrich.ContentReader
		if cfg.VaultDir != "" {
			reader = enrich.NewFSReader(cfg.VaultDir)
			logger.Info("vault configured", "dir", cfg.VaultDir)
		}

		canvasServer := server.NewCanvasServer(st, reader, publisher, logger)

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: canvasServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start sync scheduler if a destination is configured.
		var scheduler *canvassync.Scheduler
		if cfg.SyncInterval > 0 && cfg.SyncS3Bucket != "" {
			s3Dest, err := canvassync.NewS3Destination(
				context.Background(),
				cfg.SyncS3Bucket,
				cfg.SyncS3Prefix,
				cfg.SyncS3Region,
				cfg.SyncS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 sync destination", "err", err)
			} else {
				scheduler = canvassync.NewScheduler(st, []canvassync.Destination{s3Dest}, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "bucket", cfg.SyncS3Bucket, "interval", cfg.SyncInterval)
			}
		}

		logger.Info("canvasd started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
