package database

import (
	"fmt"
	"os"
	"path/filepath"

	"photocat/internal/config"
)

// CatalogFileName is the database file inside the catalog directory.
const CatalogFileName = "niepcelibrary.db"

// NewDatabaseFromConfig creates a database based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, catalogDir string) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if catalogDir == "" {
			return nil, fmt.Errorf("catalog_dir required for sqlite database")
		}
		if err := os.MkdirAll(catalogDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(catalogDir, CatalogFileName))
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
