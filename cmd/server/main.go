/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the sprint capacity server: configuration,
  logging, exception-ledger storage, record source, router, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load config.yaml (env vars override)
  2. Build the zap logger
  3. Open the exception store (JSON file or SQLite)
  4. Construct the ledger and, if credentials are configured, the board
     record source
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (overrides config)
  -config   Config file path (default: config.yaml)
  -storage  Exception storage path (overrides config)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the store, exit.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/board"
	"github.com/warp/capacity-engine/config"
	"github.com/warp/capacity-engine/exceptions"
	filestore "github.com/warp/capacity-engine/store/file"
	"github.com/warp/capacity-engine/store/sqlite"
	"github.com/warp/capacity-engine/trello"
)

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	configPath := flag.String("config", "config.yaml", "config file path")
	storagePath := flag.String("storage", "", "exception storage path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *storagePath != "" {
		cfg.StoragePath = *storagePath
	}

	logger, err := buildLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Exception storage
	var store exceptions.Store
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		path := cfg.StoragePath
		if path == "" {
			path = "capacity.db"
		}
		s, err := sqlite.New(path)
		if err != nil {
			logger.Fatal("failed to open exception database", zap.Error(err))
		}
		defer s.Close()
		store = s
	default:
		store = filestore.New(cfg.StoragePath)
	}

	ledger := exceptions.NewLedger(store, logger)

	var source board.Source
	if cfg.HasTrelloCredentials() {
		source = trello.NewClient(cfg.TrelloAPIKey, cfg.TrelloToken, cfg.TrelloBoardID, logger)
		logger.Info("board source configured from config", zap.String("board", cfg.TrelloBoardID))
	}

	handler := api.NewHandler(ledger, source, logger)
	handler.DefaultArchiveListID = cfg.ArchiveListID
	handler.DefaultWorkingDays = cfg.SprintWorkingDays

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}
