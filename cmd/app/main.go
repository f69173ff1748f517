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

	"github.com/chris/spot-booking-ledger/pkg/bootstrap"
	"github.com/chris/spot-booking-ledger/pkg/config"
	"github.com/chris/spot-booking-ledger/pkg/handlers"
	"github.com/chris/spot-booking-ledger/pkg/obs"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.OtelEnabled {
		shutdown, err := obs.InitTracer(ctx, cfg.ServiceName)
		if err != nil {
			log.Fatalf("tracing: %v", err)
		}
		defer shutdown(context.Background())
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	handler := handlers.NewApiHandler(app.Store, app.Ledger, app.Bookings)
	router := handlers.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.HTTPPort, "storage", cfg.StorageBackend, "events", cfg.EventsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
