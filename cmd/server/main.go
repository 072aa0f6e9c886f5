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
	"time"

	"github.com/magefree/mage-match-engine/internal/config"
	"github.com/magefree/mage-match-engine/internal/game"
	"github.com/magefree/mage-match-engine/internal/game/catalog"
	"github.com/magefree/mage-match-engine/internal/game/deck"
	"github.com/magefree/mage-match-engine/internal/repository"
	"github.com/magefree/mage-match-engine/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting match server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Load cards and decks
	var (
		cards *catalog.MemoryCatalog
		decks deck.Repository
	)
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}
		cards, err = repository.NewCardStore(db, logger).LoadCatalog(ctx)
		if err != nil {
			logger.Fatal("failed to load card catalog", zap.Error(err))
		}
		decks = repository.NewDeckStore(db, logger)

	default:
		cards, err = catalog.LoadFile(cfg.Catalog.CardsPath)
		if err != nil {
			logger.Fatal("failed to load card catalog", zap.String("path", cfg.Catalog.CardsPath), zap.Error(err))
		}
		lists, err := deck.LoadFile(cfg.Catalog.DecksPath)
		if err != nil {
			logger.Fatal("failed to load decks", zap.String("path", cfg.Catalog.DecksPath), zap.Error(err))
		}
		repo := deck.NewMemoryRepo()
		if err := repo.Seed(ctx, lists); err != nil {
			logger.Fatal("failed to seed decks", zap.Error(err))
		}
		decks = repo
		logger.Info("deck repository initialized", zap.Int("decks", repo.Len()))
	}
	logger.Info("card catalog initialized",
		zap.String("source", cfg.Catalog.Source),
		zap.Int("cards", cards.Len()),
	)

	format, err := cfg.Format.Resolve()
	if err != nil {
		logger.Fatal("invalid format", zap.Error(err))
	}

	// Initialize match constructor
	constructor, err := game.NewConstructor(game.ConstructorConfig{
		Catalog: cards,
		Decks:   decks,
		Format:  format,
		Seed:    cfg.Engine.Seed,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to create match constructor", zap.Error(err))
	}
	logger.Info("match constructor initialized",
		zap.String("format", format.Name),
		zap.Int("min_deck_size", format.MinDeckSize),
		zap.Int("opening_hand", format.OpeningHandSize),
		zap.Bool("fixed_seed", cfg.Engine.Seed != 0),
	)

	var recorder *game.ReplayRecorder
	if cfg.Engine.Replays {
		recorder = game.NewReplayRecorder(logger, cfg.Engine.ReplayDir)
		logger.Info("replay recorder initialized", zap.String("dir", cfg.Engine.ReplayDir))
	}

	// Initialize game manager
	gameMgr := game.NewManager(constructor, recorder, logger)
	logger.Info("game manager initialized")

	hub := server.NewHub(gameMgr, cfg.Server.WebSocket, logger)

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WebSocket.Path, hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok matches=%d clients=%d\n", gameMgr.ActiveCount(), hub.ClientCount())
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.WebSocket.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start WebSocket server
	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(serveErr))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	hub.Close()

	// Abandon running matches and flush their replays
	for _, gameID := range gameMgr.List() {
		if err := gameMgr.Remove(gameID); err != nil {
			logger.Warn("failed to remove match", zap.String("game_id", gameID), zap.Error(err))
		}
	}

	logger.Info("match server stopped")
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
