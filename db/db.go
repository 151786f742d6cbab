package db

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func Initialize(dbPath string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}
	slog.Info("Initialised DB connection", slog.String("path", dbPath))
	return database, nil
}
