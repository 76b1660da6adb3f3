// Package migrations holds the catalog schema as embedded golang-migrate
// scripts.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var scripts embed.FS

// ErrNoVersion is returned by Status for a catalog that was never migrated.
var ErrNoVersion = errors.New("catalog has no recorded schema version")

// Status returns nil when the catalog schema matches the newest script.
func Status(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}
	// Closing m would close db.

	current, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return ErrNoVersion
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty after a failed migration", current)
	}

	latest, err := LatestVersion()
	if err != nil {
		return err
	}
	switch {
	case current < latest:
		return fmt.Errorf("schema version %d is behind %d", current, latest)
	case current > latest:
		return fmt.Errorf("schema version %d is newer than this binary supports (%d)", current, latest)
	}
	return nil
}

// MigrateUp applies every pending script, each in its own transaction.
func MigrateUp(db *sql.DB) error {
	return run(db, "migrating up", func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateTo moves the schema up or down to version.
func MigrateTo(db *sql.DB, version uint) error {
	return run(db, fmt.Sprintf("migrating to version %d", version), func(m *migrate.Migrate) error {
		return m.Migrate(version)
	})
}

// MigrateUpFrom upgrades a catalog whose schema is at version from. A
// catalog with no migration record is first stamped with that version.
func MigrateUpFrom(db *sql.DB, from uint) error {
	return run(db, fmt.Sprintf("migrating up from version %d", from), func(m *migrate.Migrate) error {
		_, _, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			if err := m.Force(int(from)); err != nil {
				return fmt.Errorf("stamping version %d: %w", from, err)
			}
		} else if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		return m.Up()
	})
}

func run(db *sql.DB, what string, step func(*migrate.Migrate) error) error {
	m, err := open(db)
	if err != nil {
		return err
	}
	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// LatestVersion returns the version of the newest embedded script.
func LatestVersion() (uint, error) {
	src, err := iofs.New(scripts, "files")
	if err != nil {
		return 0, fmt.Errorf("reading migration scripts: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func open(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(scripts, "files")
	if err != nil {
		return nil, fmt.Errorf("reading migration scripts: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("opening migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing migrations: %w", err)
	}
	return m, nil
}

// lastVersion walks the source; Next fails once past the final script.
func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("finding first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
