package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/esantos/venue/internal/config"
	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/engine"
	"github.com/esantos/venue/internal/handler"
	"github.com/esantos/venue/internal/service"
	"github.com/esantos/venue/internal/store"
	"github.com/esantos/venue/internal/stream"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Stores.
	orderStore := store.NewOrderStore()
	ledger := store.NewTradeLedger()

	// Domain.
	symbols := domain.NewSymbolRegistry()

	// Engine.
	books := engine.NewBookManager()
	window := engine.NewWindow(cfg.TrailingWindow)
	matcher := engine.NewMatcher(books, orderStore, ledger, window, symbols)
	sweeper := engine.NewSweeper(cfg.SweepInterval, window)

	// Trade feed.
	hub := stream.NewHub(cfg.StreamSendBuffer)

	// Services.
	orderSvc := service.NewOrderService(matcher, orderStore, hub)
	marketSvc := service.NewMarketService(ledger, books, window, symbols)

	// Router.
	router := handler.NewRouter(orderSvc, marketSvc, hub, symbols, logger)

	// Start window sweeper with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops sweeper).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
