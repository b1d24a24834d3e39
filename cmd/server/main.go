package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/BlandineRdl/EquimApp-sub001/internal/auth"
	"github.com/BlandineRdl/EquimApp-sub001/internal/config"
	"github.com/BlandineRdl/EquimApp-sub001/internal/server"
	"github.com/BlandineRdl/EquimApp-sub001/internal/service"
	"github.com/BlandineRdl/EquimApp-sub001/internal/storage/sqlite"
	"github.com/BlandineRdl/EquimApp-sub001/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DB.Path)

	metrics := server.NewMetrics()
	hub := server.NewHub(metrics)
	svc := service.NewGroupService(store, hub, cfg.Invites.LinkScheme, cfg.Invites.TTL)
	authn := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	handler := server.New(svc, authn, jwtManager, hub, metrics).Handler()

	corsOptions := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		corsOptions.AllowedOrigins = cfg.HTTP.AllowedOrigins
		corsOptions.AllowCredentials = true
	}
	corsed := cors.New(corsOptions).Handler(handler)

	// h2c allows HTTP/2 without TLS for clients behind a terminating proxy.
	h2cHandler := h2c.NewHandler(corsed, &http2.Server{})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      h2cHandler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
