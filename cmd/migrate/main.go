// cmd/migrate/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"

	"marketplace-core/internal/config"
	"marketplace-core/internal/util"
	"marketplace-core/pkg/db"
)

func main() {
	if err := run(); err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migration run finished successfully")
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	util.InitLogger(cfg.LogLevel)

	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	//nolint:errcheck
	defer database.Close()

	return db.Migrate(database)
}
