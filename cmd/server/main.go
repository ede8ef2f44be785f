// Package main is the entry point for the puzzle commitment service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kibi-puzzle/internal/ai"
	"kibi-puzzle/internal/chain"
	"kibi-puzzle/internal/config"
	"kibi-puzzle/internal/pkg/db"
	"kibi-puzzle/internal/pkg/lock"
	"kibi-puzzle/internal/repository"
	"kibi-puzzle/internal/server"
	"kibi-puzzle/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	loc, err := cfg.Daily.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid daily puzzle timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	puzzleRepo := repository.NewPuzzleRepository(dbPool.Pool)
	dailyRepo := repository.NewDailyPuzzleRepository(dbPool.Pool)

	// External collaborators
	generator := ai.NewClient(&cfg.AI)
	chainClient := chain.NewHTTPClient(&cfg.Chain)

	// Initialize services
	accountService := service.NewAccountService(userRepo)
	puzzleService := service.NewPuzzleService(puzzleRepo, userRepo, chainClient)
	dailyService := service.NewDailyService(
		dailyRepo,
		userRepo,
		generator,
		chainClient,
		lock.New(),
		loc,
		cfg.Daily.RewardAmount,
	)
	submitService := service.NewSubmitService(puzzleRepo, dailyRepo, userRepo, chainClient, loc)

	// Build HTTP server
	srv := server.New(accountService, puzzleService, dailyService, submitService, dbPool)
	httpServer := srv.NewHTTPServer(&cfg.Server)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			address TEXT PRIMARY KEY,
			username VARCHAR(30) NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create puzzles table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS puzzles (
			puzzle_id TEXT PRIMARY KEY,
			creator TEXT NOT NULL REFERENCES users(address),
			question TEXT NOT NULL,
			hint TEXT NOT NULL,
			commitment TEXT NOT NULL,
			salt TEXT NOT NULL,
			reward_amount BIGINT NOT NULL CHECK (reward_amount > 0),
			difficulty VARCHAR(10) NOT NULL,
			solved BOOLEAN NOT NULL DEFAULT FALSE,
			solver TEXT REFERENCES users(address),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (NOT solved OR solver IS NOT NULL)
		);
		CREATE INDEX IF NOT EXISTS idx_puzzles_unsolved ON puzzles(created_at DESC) WHERE NOT solved;
		CREATE INDEX IF NOT EXISTS idx_puzzles_solver ON puzzles(solver) WHERE solved;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: puzzles table created")

	// Migration 3: Create daily_puzzles table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_puzzles (
			id UUID PRIMARY KEY,
			user_address TEXT NOT NULL REFERENCES users(address),
			puzzle_date VARCHAR(10) NOT NULL,
			question TEXT NOT NULL,
			hint TEXT NOT NULL,
			commitment TEXT NOT NULL,
			salt TEXT NOT NULL,
			solved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_address, puzzle_date)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_puzzles_user ON daily_puzzles(user_address, puzzle_date DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: daily_puzzles table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
