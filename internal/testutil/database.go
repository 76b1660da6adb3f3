package testutil

import (
	"context"
	"testing"

	"photocat/internal/catalog"
	"photocat/internal/database"
	"photocat/internal/database/migrations"
	"photocat/internal/xmp"
)

// NewTestDatabase creates a new in-memory SQLite catalog with the current
// schema applied. The database is closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := migrations.MigrateUp(db.DB()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db
}

// Catalog bundles a ready Service with the collaborators a test inspects.
type Catalog struct {
	Service  *catalog.Service
	DB       *database.SQLiteDatabase
	Notifier *RecordingNotifier
	Clock    *StubClock
}

// NewTestCatalog returns an initialized Service over an empty in-memory
// catalog. The notifications posted by Init are cleared.
func NewTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	rec := NewRecordingNotifier()
	clock := FixedClock()
	svc := catalog.NewService(db, database.NewSchemaManager(db, nil), xmp.NewCodec(), NopSynchronizer{}, rec, nil, clock)
	if _, err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	rec.Reset()

	return &Catalog{Service: svc, DB: db, Notifier: rec, Clock: clock}
}

// NopSynchronizer is an XmpSynchronizer that leaves the queue untouched.
type NopSynchronizer struct{}

var _ catalog.XmpSynchronizer = NopSynchronizer{}

func (NopSynchronizer) QueuedIDs(context.Context) ([]catalog.ID, error)     { return nil, nil }
func (NopSynchronizer) RewriteForID(context.Context, catalog.ID, bool) error { return nil }
func (NopSynchronizer) ProcessQueue(context.Context, bool) error             { return nil }
