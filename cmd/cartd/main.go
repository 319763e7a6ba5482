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

	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/api"
	"github.com/jafarshop/cartsync/internal/config"
	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/internal/gateway"
	"github.com/jafarshop/cartsync/internal/logging"
	"github.com/jafarshop/cartsync/internal/repository"
	"github.com/jafarshop/cartsync/internal/repository/postgres"
	"github.com/jafarshop/cartsync/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Session event journal
	repos := repository.NewNopRepositories()
	if cfg.Database.EventsEnabled {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		repos = postgres.NewRepositories(db, logger)
		logger.Info("Session event journal enabled", zap.String("db", cfg.Database.DBName))
	}

	table, err := revealTable(cfg.Promo)
	if err != nil {
		logger.Fatal("Invalid reveal slots", zap.Error(err))
	}

	client := gateway.NewClient(cfg.Backend, cfg.Breaker, gateway.StaticToken(cfg.Backend.Token), logger.Named("gateway"))
	if !client.Authenticated() {
		logger.Warn("BACKEND_TOKEN is not set, cart reads will report unavailable")
	}

	session := service.NewSession(client, table, repos, logger)
	startCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.RequestTimeout)
	if err := session.Start(startCtx); err != nil {
		logger.Warn("Initial sync incomplete", zap.Error(err))
	}
	cancel()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(cfg, session, repos, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("cartd listening", zap.String("port", cfg.Port), zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down cartd...")
	session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("cartd stopped")
}

func revealTable(cfg config.PromoConfig) (*domain.RevealTable, error) {
	if cfg.RevealSlots == "" {
		return domain.DefaultRevealTable(), nil
	}
	slots, err := domain.ParseRevealSlots(cfg.RevealSlots)
	if err != nil {
		return nil, err
	}
	return domain.NewRevealTable(slots)
}
