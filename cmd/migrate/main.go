package main

import (
	"os"

	"goalgate/backend/internal/config"
	"goalgate/backend/internal/db"
	"goalgate/backend/internal/observability"
)

func main() {
	cfg := config.Load()
	observability.SetLevel(cfg.LogLevel)
	log := observability.Logger()

	database, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}

	log.Info("migrations applied successfully", "driver", cfg.DBDriver, "path", cfg.DBPath)
}
