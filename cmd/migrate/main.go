package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joao-fontenele/storefront-checkout/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	source := flag.String("source", envOr("MIGRATIONS_PATH", "file://migrations"), "migration source url")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		logger.Error("usage: migrate [-source url] <up|down|version|force N>")
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.Postgres.URL == "" {
		logger.Error("POSTGRES_URL is required")
		os.Exit(1)
	}

	// The raw URL is used on purpose: the checkout schema does not exist
	// until the first migration creates it.
	m, err := migrate.New(*source, cfg.Postgres.URL)
	if err != nil {
		logger.Error("failed to create migrate instance", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch command := args[0]; command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations")
			return
		}
		if err != nil {
			logger.Error("migration up failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to roll back")
			return
		}
		if err != nil {
			logger.Error("migration down failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error("failed to get version", "error", err)
			os.Exit(1)
		}
		logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	case "force":
		if len(args) < 2 {
			logger.Error("usage: migrate force N")
			os.Exit(1)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Error("invalid version", "version", args[1])
			os.Exit(1)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration version forced", "version", version)

	default:
		logger.Error("unknown command", "command", command)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
