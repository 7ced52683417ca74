package commands

import (
	"fmt"
	"os"

	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/database"
)

// openDB loads the environment config and connects to Postgres. The returned
// func closes the pool.
func openDB() (*config.Config, *database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return cfg, db, closeFn, nil
}
