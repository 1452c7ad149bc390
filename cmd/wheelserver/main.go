// Package main runs the wheel tables: a Telnet server backed by PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheels/internal/config"
	"github.com/cory-johannsen/wheels/internal/frontend/handlers"
	"github.com/cory-johannsen/wheels/internal/frontend/telnet"
	"github.com/cory-johannsen/wheels/internal/game/dice"
	"github.com/cory-johannsen/wheels/internal/game/round"
	"github.com/cory-johannsen/wheels/internal/game/session"
	"github.com/cory-johannsen/wheels/internal/game/wheel"
	"github.com/cory-johannsen/wheels/internal/observability"
	"github.com/cory-johannsen/wheels/internal/server"
	"github.com/cory-johannsen/wheels/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "wheelserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting wheel server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Int("max_sessions", cfg.Telnet.MaxSessions),
	)

	registry, err := loadRegistry(cfg.Game)
	if err != nil {
		logger.Fatal("loading wheels", zap.Error(err), zap.String("wheels_file", cfg.Game.WheelsFile))
	}
	logger.Info("wheels loaded",
		zap.Int("wheels", registry.Len()),
		zap.String("wheels_file", cfg.Game.WheelsFile),
	)

	picker := dice.NewLoggedPicker(dice.NewPicker(newSource(cfg.Game.Seed, logger)), logger)
	engine := round.NewEngine(registry, picker, logger)

	ctx := context.Background()
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	accounts := postgres.NewAccountRepository(pool.DB())
	tables := postgres.NewTableRepository(pool.DB())
	manager := session.NewManager(engine, tables, accounts, logger)
	authHandler := handlers.NewAuthHandler(accounts, accounts, manager, registry,
		handlers.Config{LeaderboardSize: cfg.Game.LeaderboardSize}, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, authHandler, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("postgres-health", &server.PeriodicService{
		Name:     "postgres-health",
		Interval: 30 * time.Second,
		Logger:   logger,
		Fn: func(ctx context.Context) error {
			return pool.Health(ctx, 5*time.Second)
		},
	})
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("wheel server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

// loadRegistry reads the configured wheels file, or the built-in wheels when
// none is configured.
func loadRegistry(cfg config.GameConfig) (*wheel.Registry, error) {
	if cfg.WheelsFile == "" {
		return wheel.DefaultRegistry(), nil
	}
	return wheel.LoadRegistry(cfg.WheelsFile)
}

// newSource returns a reproducible source for a nonzero seed and the
// crypto source otherwise.
func newSource(seed int64, logger *zap.Logger) dice.Source {
	if seed != 0 {
		logger.Warn("using seeded random source; spins are reproducible", zap.Int64("seed", seed))
		return dice.NewSeededSource(seed)
	}
	return dice.NewCryptoSource()
}
