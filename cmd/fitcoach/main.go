package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/fitcoach/internal/app"
	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/planstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "logging init failed: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx := context.Background()
	shutdownTracing, err := observability.SetupTracing(ctx, "fitcoach", cfg.TraceExporter)
	if err != nil {
		logging.Fatalf("tracing init failed: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	built, err := app.Build(ctx, cfg)
	if err != nil {
		logging.Fatalf("%v", err)
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			logging.Warnf("cleanup failed: %v", err)
		}
	}()
	logging.Infof("speech provider: %s", built.SpeechProvider.Detail)
	logging.Infof("plan generator: %s", built.PlanGenerator.Detail)
	logging.Infof("plan store: %s", planstore.Backend(built.Store))

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: built.API.Router(),
	}

	go func() {
		logging.Infof("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logging.Infof("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warnf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	logging.Infof("shutdown complete")
}
