package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"photocat/internal/catalog"
	"photocat/internal/database/migrations"
)

// CurrentSchemaVersion is the catalog schema version this build creates.
const CurrentSchemaVersion = 3

// SchemaManager detects, creates and upgrades the catalog schema.
type SchemaManager struct {
	db     *SQLiteDatabase
	logger catalog.Logger
}

var _ catalog.SchemaManager = (*SchemaManager)(nil)

func NewSchemaManager(db *SQLiteDatabase, logger catalog.Logger) *SchemaManager {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	return &SchemaManager{db: db, logger: logger}
}

// CheckVersion reads the version row of the admin table.
func (m *SchemaManager) CheckVersion(ctx context.Context) (catalog.VersionCheck, error) {
	var tables int
	err := m.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'admin'").Scan(&tables)
	if err != nil {
		return catalog.VersionCheck{}, fmt.Errorf("checking admin table: %w", err)
	}
	if tables == 0 {
		return catalog.VersionCheck{State: catalog.VersionMissing}, nil
	}

	var value sql.NullString
	err = m.db.db.QueryRowContext(ctx, "SELECT value FROM admin WHERE key = 'version'").Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.VersionCheck{State: catalog.VersionMissing}, nil
		}
		return catalog.VersionCheck{}, fmt.Errorf("reading schema version: %w", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(value.String))
	if !value.Valid || err != nil {
		m.logger.Error("corrupt schema version", "value", value.String)
		return catalog.VersionCheck{State: catalog.VersionCorrupt}, nil
	}
	return catalog.VersionCheck{State: catalog.VersionPresent, Version: v}, nil
}

// Init creates the schema of an empty database. The migrations run in a
// transaction each, so a failure leaves no partial schema behind.
func (m *SchemaManager) Init(ctx context.Context) (catalog.SchemaStatus, error) {
	status := catalog.SchemaStatus{Current: CurrentSchemaVersion}

	check, err := m.CheckVersion(ctx)
	if err != nil {
		return status, err
	}

	switch check.State {
	case catalog.VersionCorrupt:
		return status, catalog.ErrCorruptVersion
	case catalog.VersionPresent:
		status.Version = check.Version
		return status, nil
	}

	if err := migrations.MigrateUp(m.db.db); err != nil {
		return status, fmt.Errorf("creating schema: %w", err)
	}
	check, err = m.CheckVersion(ctx)
	if err != nil {
		return status, err
	}
	if check.State != catalog.VersionPresent {
		return status, fmt.Errorf("creating schema: %w", catalog.ErrCorruptVersion)
	}

	m.logger.Info("schema created", "version", check.Version)
	status.Created = true
	status.Version = check.Version
	return status, nil
}

// Upgrade copies a file-backed catalog to "<path>-version_<from>" and then
// migrates it to the current version.
func (m *SchemaManager) Upgrade(ctx context.Context, from int) error {
	if from <= 0 || from > CurrentSchemaVersion {
		return fmt.Errorf("upgrading from version %d: %w", from, catalog.ErrUnsupported)
	}

	if path := m.db.Path(); isFileBacked(path) {
		backup := fmt.Sprintf("%s-version_%d", path, from)
		if _, err := os.Stat(backup); err == nil {
			return fmt.Errorf("backup %s already exists", backup)
		}
		if err := m.db.BackupTo(ctx, backup); err != nil {
			return fmt.Errorf("backing up before upgrade: %w", err)
		}
		m.logger.Info("catalog backed up", "path", backup)
	}

	if err := migrations.MigrateUpFrom(m.db.db, uint(from)); err != nil {
		return fmt.Errorf("upgrading schema: %w", err)
	}
	m.logger.Info("schema upgraded", "from", from, "to", CurrentSchemaVersion)
	return nil
}

func isFileBacked(path string) bool {
	return path != "" && path != ":memory:" && !strings.HasPrefix(path, "file::memory:")
}
