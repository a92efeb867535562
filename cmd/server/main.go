package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wildwar/wildwar-server-go/internal/catalog"
	"github.com/wildwar/wildwar-server-go/internal/config"
	"github.com/wildwar/wildwar-server-go/internal/server"
	"github.com/wildwar/wildwar-server-go/internal/store"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting wildwar server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if cfg.Auth.AccessKeyHash == "" {
		logger.Warn("access key not configured; lobby is open to anyone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cat, err := catalog.Load(cfg.Data.Dir)
	if err != nil {
		logger.Fatal("failed to load prototype catalog", zap.Error(err))
	}
	logger.Info("prototype catalog loaded",
		zap.Int("units", len(cat.Units)),
		zap.Int("spells", len(cat.Spells)),
	)

	var results store.Store
	if cfg.Database.Enabled {
		pg, err := store.NewPostgres(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		results = pg
	} else {
		logger.Info("database disabled, keeping match results in memory")
		results = store.NewMemory()
	}
	defer results.Close()

	lobby := server.NewLobby(cfg, cat, results, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: lobby.Handler(),
	}
	go func() {
		logger.Info("starting lobby server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("lobby server error", zap.Error(serveErr))
		}
	}()

	logger.Info("wildwar server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.Int("board_cols", cfg.Game.BoardCols),
		zap.Int("board_rows", cfg.Game.BoardRows),
		zap.Duration("turn_timeout", cfg.Game.TurnTimeout),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("lobby shutdown error", zap.Error(err))
	}

	logger.Info("wildwar server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
