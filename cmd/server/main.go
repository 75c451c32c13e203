package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/challenge"
	"github.com/srujan4705/Code-Battle/internal/config"
	"github.com/srujan4705/Code-Battle/internal/database"
	"github.com/srujan4705/Code-Battle/internal/executor"
	"github.com/srujan4705/Code-Battle/internal/game"
	"github.com/srujan4705/Code-Battle/internal/grading"
	"github.com/srujan4705/Code-Battle/internal/handler/health"
	"github.com/srujan4705/Code-Battle/internal/migrations"
	"github.com/srujan4705/Code-Battle/internal/ratelimit"
	"github.com/srujan4705/Code-Battle/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Challenges ---
	store := challenge.NewStore(db)
	if cfg.SeedChallenges {
		if err := seedChallenges(ctx, logger, store, cfg.ForceSeed); err != nil {
			return err
		}
	}

	sources, err := challengeSources(logger, cfg, store)
	if err != nil {
		return err
	}

	// --- Code runner ---
	runner := executor.New(executor.Config{
		BaseURL:            cfg.Executor.URL,
		CompileTimeout:     cfg.Executor.CompileTimeout,
		RunTimeout:         cfg.Executor.RunTimeout,
		CompileMemoryLimit: cfg.Executor.CompileMemoryLimit,
		RunMemoryLimit:     cfg.Executor.RunMemoryLimit,
		RuntimesTTL:        cfg.Executor.RuntimesTTL,
	}, nil)

	checks := map[string]health.Checker{
		"sqlite":   dbChecker{db},
		"executor": health.Optional(health.CheckFunc(runner.Ping)),
	}

	// --- Rate limiting ---
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.PerMinute, time.Minute)
		checks["redis"] = redisChecker{rdb}
	} else {
		limiter = ratelimit.NewLocal(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	}

	// --- Rooms ---
	rooms := game.NewRegistry(logger, challenge.NewChain(logger, sources...))
	grader := grading.New(runner, rooms, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Rooms:     rooms,
		Grader:    grader,
		Limiter:   limiter,
		Languages: runner,
		Checks:    checks,
		Gateway: server.GatewayOptions{
			OriginPatterns:   cfg.AllowedOrigins,
			GradeConcurrency: cfg.Executor.Concurrency,
		},
		SPADir: cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func seedChallenges(ctx context.Context, logger *slog.Logger, store *challenge.Store, force bool) error {
	cat, err := challenge.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("loading built-in catalog: %w", err)
	}
	n, err := store.Seed(ctx, cat.All(), force)
	if err != nil {
		return fmt.Errorf("seeding challenges: %w", err)
	}
	if n > 0 {
		logger.Info("seeded challenges", "count", n, "force", force)
	}

	counts, err := store.CountByDifficulty(ctx)
	if err != nil {
		return err
	}
	logger.Info("challenge store ready",
		"easy", counts[arena.DifficultyEasy],
		"medium", counts[arena.DifficultyMedium],
		"hard", counts[arena.DifficultyHard],
	)
	return nil
}

// challengeSources returns the sources in the order they are tried: the
// generator when an API key is configured, then the database, then an
// optional catalog file.
func challengeSources(logger *slog.Logger, cfg *config.Config, store *challenge.Store) ([]challenge.Source, error) {
	var sources []challenge.Source
	if cfg.Generator.APIKey != "" {
		logger.Info("challenge generator enabled", "model", cfg.Generator.Model)
		sources = append(sources, challenge.NewGenerator(challenge.GeneratorConfig{
			URL:         cfg.Generator.URL,
			APIKey:      cfg.Generator.APIKey,
			Model:       cfg.Generator.Model,
			Language:    cfg.Generator.Language,
			Temperature: cfg.Generator.Temperature,
			Timeout:     cfg.Generator.Timeout,
		}, nil))
	}
	sources = append(sources, store)

	if cfg.ChallengesFile != "" {
		cat, err := challenge.LoadCatalog(cfg.ChallengesFile)
		if err != nil {
			return nil, fmt.Errorf("loading challenges file: %w", err)
		}
		logger.Info("loaded challenges file", "path", cfg.ChallengesFile, "count", cat.Len())
		sources = append(sources, cat)
	}
	return sources, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
