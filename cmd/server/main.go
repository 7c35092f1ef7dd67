package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certapp/internal/api"
	"github.com/youruser/certapp/internal/batch"
	"github.com/youruser/certapp/internal/config"
	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/logging"
	"github.com/youruser/certapp/internal/records"
)

func main() {
	if err := run(); err != nil {
		logging.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.InitLogger(
		cfg.Logging.File,
		cfg.Logging.MaxSizeMB,
		cfg.Logging.MaxBackups,
		cfg.Logging.MaxAgeDays,
		cfg.Logging.Compress,
		cfg.Logging.Level,
	)
	if cfg.Logging.Level != "debug" && cfg.Logging.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Without a database the record endpoints answer 503; ad hoc batches
	// still work.
	var store api.Store
	if cfg.Database.Enabled() {
		db, err := records.Open(context.Background(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		store = records.NewRepository(db)
	} else {
		logging.Warn("database not configured, record endpoints disabled")
	}

	compositor := imagepkg.NewCompositor(cfg.Assets.Root, cfg.Assets.FontPath, cfg.Assets.MaxBackgroundBytes())
	handler := api.NewHandler(batch.NewArchiver(compositor), store, api.Options{
		FrontendURL:    cfg.Certificates.FrontendURL,
		MediaDir:       cfg.Assets.MediaDir,
		DefaultZipName: cfg.Certificates.DefaultZipName,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}
	return startServer(srv, cfg.Server)
}

// startServer serves until SIGINT or SIGTERM, then drains in-flight
// requests within the configured shutdown timeout.
func startServer(srv *http.Server, cfg config.ServerConfig) error {
	errc := make(chan error, 1)
	go func() {
		logging.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-sigint:
	}

	logging.Warn("shutdown signal received, closing server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logging.Info("server stopped cleanly")
	return nil
}
