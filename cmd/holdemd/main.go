package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/courtside/holdem-engine/internal/api"
	"github.com/courtside/holdem-engine/internal/engine"
	"github.com/courtside/holdem-engine/internal/store"
	"github.com/courtside/holdem-engine/internal/table"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides LISTEN_ADDR)")
	flag.Parse()

	// Missing .env is fine; env vars may come from the environment itself.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if *addr != "" {
		listenAddr = *addr
	}
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	cfg := engine.DefaultConfig()
	cfg.SmallBlind = parsePositiveInt64EnvOrDefault(log, "SMALL_BLIND", cfg.SmallBlind)
	cfg.BigBlind = parsePositiveInt64EnvOrDefault(log, "BIG_BLIND", cfg.BigBlind)
	cfg.StartingStack = parsePositiveInt64EnvOrDefault(log, "STARTING_STACK", cfg.StartingStack)
	if ms := parsePositiveInt64EnvOrDefault(log, "ACTION_TIMEOUT_MS", int64(cfg.ActionTimeout/time.Millisecond)); ms > 0 {
		cfg.ActionTimeout = time.Duration(ms) * time.Millisecond
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, cleanup, err := buildRepository(log)
	if err != nil {
		log.Error("repository setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	svc := table.New(repo, cfg, log)
	server := api.NewServer(svc, log)

	log.Info("holdemd listening",
		"addr", listenAddr,
		"small_blind", cfg.SmallBlind,
		"big_blind", cfg.BigBlind,
		"action_timeout", cfg.ActionTimeout,
	)
	if err := http.ListenAndServe(listenAddr, server); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// buildRepository opens Postgres when DATABASE_URL is set and falls back
// to the in-memory store otherwise, which is enough for local play.
func buildRepository(log *slog.Logger) (store.Repository, func(), error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store; state is lost on restart")
		return store.NewMemoryRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(parsePositiveIntEnvOrDefault(log, "DATABASE_MAX_OPEN_CONNS", 10))
	db.SetMaxIdleConns(parsePositiveIntEnvOrDefault(log, "DATABASE_MAX_IDLE_CONNS", 5))
	db.SetConnMaxLifetime(time.Duration(parsePositiveIntEnvOrDefault(log, "DATABASE_CONN_MAX_LIFETIME_SEC", 300)) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database ping: %w", err)
	}
	if err := store.MigratePostgres(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database migration: %w", err)
	}

	return store.NewPostgresRepository(db), func() { db.Close() }, nil
}

func parsePositiveIntEnvOrDefault(log *slog.Logger, key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Error("invalid env value", "key", key, "value", raw)
		os.Exit(1)
	}
	return value
}

func parsePositiveInt64EnvOrDefault(log *slog.Logger, key string, defaultValue int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		log.Error("invalid env value", "key", key, "value", raw)
		os.Exit(1)
	}
	return value
}
