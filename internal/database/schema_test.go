package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photocat/internal/catalog"
	"photocat/internal/database/migrations"
)

func openDB(t *testing.T, path string) *SQLiteDatabase {
	t.Helper()
	db, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaManager_CheckVersion(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup string
		want  catalog.VersionCheck
	}{
		{
			name: "empty database",
			want: catalog.VersionCheck{State: catalog.VersionMissing},
		},
		{
			name:  "admin table without version row",
			setup: "CREATE TABLE admin (key TEXT NOT NULL PRIMARY KEY, value TEXT)",
			want:  catalog.VersionCheck{State: catalog.VersionMissing},
		},
		{
			name: "valid version",
			setup: `CREATE TABLE admin (key TEXT NOT NULL PRIMARY KEY, value TEXT);
				INSERT INTO admin (key, value) VALUES ('version', '7')`,
			want: catalog.VersionCheck{State: catalog.VersionPresent, Version: 7},
		},
		{
			name: "corrupt version",
			setup: `CREATE TABLE admin (key TEXT NOT NULL PRIMARY KEY, value TEXT);
				INSERT INTO admin (key, value) VALUES ('version', 'seven')`,
			want: catalog.VersionCheck{State: catalog.VersionCorrupt},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t, ":memory:")
			if tt.setup != "" {
				if _, err := db.db.Exec(tt.setup); err != nil {
					t.Fatalf("setup: %v", err)
				}
			}
			got, err := NewSchemaManager(db, nil).CheckVersion(ctx)
			if err != nil {
				t.Fatalf("CheckVersion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckVersion() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSchemaManager_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("creates schema once", func(t *testing.T) {
		db := openDB(t, ":memory:")
		m := NewSchemaManager(db, nil)

		status, err := m.Init(ctx)
		if err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		want := catalog.SchemaStatus{Created: true, Version: CurrentSchemaVersion, Current: CurrentSchemaVersion}
		if status != want {
			t.Errorf("Init() = %+v, want %+v", status, want)
		}

		status, err = m.Init(ctx)
		if err != nil {
			t.Fatalf("second Init() error = %v", err)
		}
		if status.Created || status.NeedsUpgrade() {
			t.Errorf("second Init() = %+v, want existing current schema", status)
		}

		folders, _ := db.GetAllFolders(ctx)
		trash := 0
		for _, f := range folders {
			if f.IsTrash() {
				trash++
			}
		}
		if trash != 1 {
			t.Errorf("trash folders = %d, want 1", trash)
		}
	})

	t.Run("corrupt version creates nothing", func(t *testing.T) {
		db := openDB(t, ":memory:")
		db.db.Exec(`CREATE TABLE admin (key TEXT NOT NULL PRIMARY KEY, value TEXT);
			INSERT INTO admin (key, value) VALUES ('version', 'garbage')`)

		_, err := NewSchemaManager(db, nil).Init(ctx)
		if !errors.Is(err, catalog.ErrCorruptVersion) {
			t.Fatalf("Init() error = %v, want ErrCorruptVersion", err)
		}

		var tables int
		db.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'files'").Scan(&tables)
		if tables != 0 {
			t.Error("Init() created tables for a corrupt catalog")
		}
	})

	t.Run("older version needs upgrade", func(t *testing.T) {
		db := openDB(t, ":memory:")
		if err := migrations.MigrateTo(db.db, 1); err != nil {
			t.Fatalf("MigrateTo(1) error = %v", err)
		}

		status, err := NewSchemaManager(db, nil).Init(ctx)
		if err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if status.Created || status.Version != 1 || !status.NeedsUpgrade() {
			t.Errorf("Init() = %+v, want version 1 needing upgrade", status)
		}
	})
}

func TestSchemaManager_Upgrade(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), CatalogFileName)
	db := openDB(t, path)
	if err := migrations.MigrateTo(db.db, 1); err != nil {
		t.Fatalf("MigrateTo(1) error = %v", err)
	}
	m := NewSchemaManager(db, nil)

	if err := m.Upgrade(ctx, 1); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	check, err := m.CheckVersion(ctx)
	if err != nil {
		t.Fatalf("CheckVersion() error = %v", err)
	}
	if check.Version != CurrentSchemaVersion {
		t.Errorf("version after upgrade = %d, want %d", check.Version, CurrentSchemaVersion)
	}

	backup := path + "-version_1"
	if _, err := os.Stat(backup); err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	old := openDB(t, backup)
	oldCheck, err := NewSchemaManager(old, nil).CheckVersion(ctx)
	if err != nil {
		t.Fatalf("CheckVersion() on backup error = %v", err)
	}
	if oldCheck.Version != 1 {
		t.Errorf("backup version = %d, want 1", oldCheck.Version)
	}

	if err := m.Upgrade(ctx, 1); err == nil {
		t.Error("Upgrade() expected error when the backup already exists")
	}
	if err := m.Upgrade(ctx, 0); !errors.Is(err, catalog.ErrUnsupported) {
		t.Errorf("Upgrade(0) error = %v, want ErrUnsupported", err)
	}
}

func TestCurrentSchemaVersionMatchesMigrations(t *testing.T) {
	latest, err := migrations.LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if latest != CurrentSchemaVersion {
		t.Errorf("latest migration = %d, CurrentSchemaVersion = %d", latest, CurrentSchemaVersion)
	}
}
