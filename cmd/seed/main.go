// Command seed loads users and villas from a TOML fixture into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/infra/uow"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/password"
)

func main() {
	path := flag.String("file", "seed/villas.toml", "fixture file")
	flag.Parse()

	if err := run(*path); err != nil {
		slog.Error("シードデータの投入に失敗しました", "error", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := middleware.NewLogger(cfg.Log).GetSlogLogger()

	fixture, err := LoadFixture(path)
	if err != nil {
		return err
	}

	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seeder := NewSeeder(uow.NewPostgresUoW(pool, logger), password.HashPassword, logger)
	if err := seeder.Run(ctx, fixture); err != nil {
		return err
	}

	logger.Info("シードデータの投入が完了しました",
		"users", len(fixture.Users),
		"resources", len(fixture.Resources),
	)
	return nil
}
