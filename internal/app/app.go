package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"photocat/internal/catalog"
	"photocat/internal/config"
	"photocat/internal/database"
	"photocat/internal/encryption"
	"photocat/internal/fs"
	"photocat/internal/metrics"
	"photocat/internal/notification"
	"photocat/internal/sidecar"
	"photocat/internal/undo"
	"photocat/internal/vault"
	"photocat/internal/worker"
	"photocat/internal/xmp"
)

// Options tune how an App is built.
type Options struct {
	// Verbose enables debug logging.
	Verbose bool
	// Clock defaults to catalog.RealClock.
	Clock catalog.Clock
	// IDs defaults to catalog.UUIDGenerator.
	IDs catalog.IDGenerator
}

// App is the application layer between the CLI and the catalog Service.
// It constructs all dependencies from config and runs every catalog call on
// a single worker that owns the database connection. The caller must call
// Close when done.
type App struct {
	cfg       *config.Config
	op        *Operation
	clock     catalog.Clock
	ids       catalog.IDGenerator
	logger    catalog.Logger
	logFile   *os.File
	metrics   *metrics.Collector
	db        *database.SQLiteDatabase
	center    *notification.Center
	worker    *worker.Worker
	service   *catalog.Service
	actions   *catalog.Actions
	scanner   *fs.Scanner
	encryptor encryption.Encryptor
	vaults    map[string]vault.Vault

	status   catalog.SchemaStatus
	xmpDirty atomic.Bool
}

// New creates a fully wired App from the given config and initializes the
// catalog, creating it when missing. operation names the CLI command being
// run and params its arguments; both are logged when the App closes.
func New(ctx context.Context, cfg *config.Config, operation string, params []string, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = catalog.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = catalog.UUIDGenerator{}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	op := NewOperation(operation, params, opts.Clock.Now())
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.CatalogDir)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	m := metrics.NewCollector("photocat")
	center := notification.NewCenter(logger, m)
	codec := xmp.NewCodec()
	xsync := sidecar.NewSynchronizer(db, codec, sidecar.Options{
		Backup:           cfg.Xmp.Backup,
		RequeueOnFailure: cfg.Xmp.RequeueOnFailure,
	}, logger, m)
	svc := catalog.NewService(db, database.NewSchemaManager(db, logger), codec, xsync, center, logger, opts.Clock)

	a := &App{
		cfg:       cfg,
		op:        op,
		clock:     opts.Clock,
		ids:       opts.IDs,
		logger:    logger,
		logFile:   logFile,
		metrics:   m,
		db:        db,
		center:    center,
		worker:    worker.New(cfg.Worker.Backlog, logger, m),
		service:   svc,
		actions:   catalog.NewActions(svc, undo.NewHistory()),
		scanner:   fs.NewScanner(cfg.Import.Ignore),
		encryptor: enc,
		vaults:    map[string]vault.Vault{},
	}

	center.SubscribeAll(func(n catalog.Notification) {
		logger.Debug("notification", "kind", n.Kind().String())
	})
	center.Subscribe(catalog.KindXmpNeedsUpdate, func(catalog.Notification) {
		a.xmpDirty.Store(true)
	})

	err = a.run(ctx, "init", func(ctx context.Context) error {
		status, err := svc.Init(ctx)
		a.status = status
		return err
	})
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return a, nil
}

// run executes fn on the worker, recording failures on the operation.
func (a *App) run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return a.op.Fail(a.worker.Run(ctx, name, fn))
}

// Status returns the schema status found when the catalog was opened.
func (a *App) Status() catalog.SchemaStatus { return a.status }

// Operation returns the operation this App runs.
func (a *App) Operation() *Operation { return a.op }

// Center returns the notification center so callers can observe changes.
func (a *App) Center() *notification.Center { return a.center }

// Metrics returns the collector shared by all components.
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// Upgrade migrates an older catalog to the current schema, backing it up first.
func (a *App) Upgrade(ctx context.Context) error {
	return a.run(ctx, "upgrade", a.service.Upgrade)
}

// Folders returns every folder in the catalog.
func (a *App) Folders(ctx context.Context) ([]*catalog.Folder, error) {
	var folders []*catalog.Folder
	err := a.run(ctx, "folders", func(ctx context.Context) error {
		var err error
		folders, err = a.service.GetAllFolders(ctx)
		return err
	})
	return folders, err
}

// FolderContent returns the files of the folder at path.
func (a *App) FolderContent(ctx context.Context, rawPath string) ([]*catalog.File, error) {
	p, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	var files []*catalog.File
	err = a.run(ctx, "folder_content", func(ctx context.Context) error {
		f, err := a.service.GetFolder(ctx, p)
		if err != nil {
			return err
		}
		if f == nil {
			return fmt.Errorf("%s: %w", p, catalog.ErrFolderNotFound)
		}
		files, err = a.service.GetFolderContent(ctx, f.ID)
		return err
	})
	return files, err
}

// KeywordCount is a keyword with the number of files carrying it.
type KeywordCount struct {
	Keyword *catalog.Keyword
	Count   int
}

// Keywords returns every keyword with its file count.
func (a *App) Keywords(ctx context.Context) ([]KeywordCount, error) {
	var out []KeywordCount
	err := a.run(ctx, "keywords", func(ctx context.Context) error {
		kws, err := a.service.GetAllKeywords(ctx)
		if err != nil {
			return err
		}
		for _, k := range kws {
			n, err := a.service.CountKeyword(ctx, k.ID)
			if err != nil {
				return err
			}
			out = append(out, KeywordCount{Keyword: k, Count: n})
		}
		return nil
	})
	return out, err
}

// Labels returns every label.
func (a *App) Labels(ctx context.Context) ([]*catalog.Label, error) {
	var labels []*catalog.Label
	err := a.run(ctx, "labels", func(ctx context.Context) error {
		var err error
		labels, err = a.service.GetAllLabels(ctx)
		return err
	})
	return labels, err
}

// AddLabel creates a label through the undoable action layer.
func (a *App) AddLabel(ctx context.Context, name, color string) (catalog.ID, error) {
	var id catalog.ID
	err := a.run(ctx, "add_label", func(ctx context.Context) error {
		var err error
		id, err = a.actions.AddLabel(ctx, name, color)
		return err
	})
	return id, err
}

// DeleteLabel removes a label through the undoable action layer.
func (a *App) DeleteLabel(ctx context.Context, id catalog.ID) error {
	return a.run(ctx, "delete_label", func(ctx context.Context) error {
		return a.actions.DeleteLabel(ctx, id)
	})
}

// AlbumCount is an album with the number of files in it.
type AlbumCount struct {
	Album *catalog.Album
	Count int
}

// Albums returns every album with its file count.
func (a *App) Albums(ctx context.Context) ([]AlbumCount, error) {
	var out []AlbumCount
	err := a.run(ctx, "albums", func(ctx context.Context) error {
		albums, err := a.service.GetAllAlbums(ctx)
		if err != nil {
			return err
		}
		for _, al := range albums {
			n, err := a.service.CountAlbum(ctx, al.ID)
			if err != nil {
				return err
			}
			out = append(out, AlbumCount{Album: al, Count: n})
		}
		return nil
	})
	return out, err
}

// AddAlbum creates an album under parentID (0 for a root album).
func (a *App) AddAlbum(ctx context.Context, name string, parentID catalog.ID) (*catalog.Album, error) {
	var album *catalog.Album
	err := a.run(ctx, "add_album", func(ctx context.Context) error {
		var err error
		album, err = a.service.AddAlbum(ctx, name, parentID)
		return err
	})
	return album, err
}

// DeleteAlbum removes an album, leaving its files in the catalog.
func (a *App) DeleteAlbum(ctx context.Context, id catalog.ID) error {
	return a.run(ctx, "delete_album", func(ctx context.Context) error {
		return a.service.DeleteAlbum(ctx, id)
	})
}

// AddToAlbum links files to an album through the undoable action layer.
func (a *App) AddToAlbum(ctx context.Context, albumID catalog.ID, fileIDs []catalog.ID) error {
	return a.run(ctx, "add_to_album", func(ctx context.Context) error {
		return a.actions.AddToAlbum(ctx, albumID, fileIDs)
	})
}

// AlbumContent returns the files of an album.
func (a *App) AlbumContent(ctx context.Context, albumID catalog.ID) ([]*catalog.File, error) {
	var files []*catalog.File
	err := a.run(ctx, "album_content", func(ctx context.Context) error {
		var err error
		files, err = a.service.GetAlbumContent(ctx, albumID)
		return err
	})
	return files, err
}

// Metadata returns the metadata view of a file, or nil when it does not exist.
func (a *App) Metadata(ctx context.Context, fileID catalog.ID) (*catalog.Metadata, error) {
	var md *catalog.Metadata
	err := a.run(ctx, "get_metadata", func(ctx context.Context) error {
		var err error
		md, err = a.service.GetMetadata(ctx, fileID)
		return err
	})
	return md, err
}

// SetMetadata parses raw for the named property and stores it on a file.
func (a *App) SetMetadata(ctx context.Context, fileID catalog.ID, property, raw string) error {
	idx, err := catalog.ParsePropertyIndex(property)
	if err != nil {
		return a.op.Fail(err)
	}
	v, err := ParsePropertyValue(idx, raw)
	if err != nil {
		return a.op.Fail(err)
	}
	return a.run(ctx, "set_metadata", func(ctx context.Context) error {
		return a.actions.SetMetadata(ctx, fileID, idx, v)
	})
}

// Undo reverts the last undoable action. It reports false when there is
// nothing to undo.
func (a *App) Undo(ctx context.Context) (bool, error) {
	h := a.actions.History()
	if !h.CanUndo() {
		return false, nil
	}
	return true, a.run(ctx, "undo", h.Undo)
}

// ImportResult summarizes an import.
type ImportResult struct {
	Folder  *catalog.Folder
	Added   []catalog.ID
	Skipped []string
	Failed  map[string]error
}

// Import adds the directory as a folder, creating it when needed, and adds
// every file bundle found in it. Files already in the folder are skipped.
// A bundle that fails does not stop the import.
func (a *App) Import(ctx context.Context, rawDir string) (*ImportResult, error) {
	dir, err := filepath.Abs(rawDir)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("resolving path: %w", err))
	}
	bundles, err := a.scanner.ScanBundles(dir, false)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("scanning %s: %w", dir, err))
	}

	res := &ImportResult{Failed: map[string]error{}}
	err = a.run(ctx, "import", func(ctx context.Context) error {
		folder, err := a.service.GetFolder(ctx, dir)
		if err != nil {
			return err
		}
		if folder == nil {
			if folder, err = a.service.AddFolder(ctx, dir); err != nil {
				return err
			}
		}
		res.Folder = folder

		existing, err := a.service.GetFolderContent(ctx, folder.ID)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(existing))
		for _, f := range existing {
			known[f.Path] = true
		}

		for _, b := range bundles {
			if err := ctx.Err(); err != nil {
				return err
			}
			if known[b.Main] {
				res.Skipped = append(res.Skipped, b.Main)
				continue
			}
			id, err := a.service.AddBundle(ctx, folder.ID, b, catalog.ManagedNo)
			if err != nil {
				res.Failed[b.Main] = err
				continue
			}
			res.Added = append(res.Added, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("import finished", "dir", dir, "added", len(res.Added), "skipped", len(res.Skipped), "failed", len(res.Failed))
	if len(res.Failed) > 0 {
		a.op.Status = "error"
	}
	return res, nil
}

// SyncXmp drains the sidecar queue. Sidecars are written when the config
// enables it, otherwise the queue is discarded.
func (a *App) SyncXmp(ctx context.Context) error {
	err := a.run(ctx, "sync_xmp", func(ctx context.Context) error {
		return a.service.ProcessXmpUpdateQueue(ctx, a.cfg.Xmp.WriteSidecars)
	})
	if err == nil {
		a.xmpDirty.Store(false)
	}
	return err
}

// PendingXmp returns the files waiting for a sidecar rewrite.
func (a *App) PendingXmp(ctx context.Context) ([]catalog.ID, error) {
	var ids []catalog.ID
	err := a.run(ctx, "xmp_queue", func(ctx context.Context) error {
		var err error
		ids, err = a.service.QueuedXmpIDs(ctx)
		return err
	})
	return ids, err
}

// Close drains pending sidecar rewrites when enabled, stops the worker and
// closes all resources.
func (a *App) Close() error {
	var errs []error
	if a.xmpDirty.Load() && a.cfg.Xmp.WriteSidecars {
		if err := a.SyncXmp(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("writing sidecars: %w", err))
		}
	}
	a.logger.Info("operation finished", a.op.LogArgs(a.clock.Now())...)
	if err := a.shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) shutdown() error {
	a.worker.Close()
	a.center.Close()
	var err error
	if cerr := a.db.Close(); cerr != nil {
		err = fmt.Errorf("closing database: %w", cerr)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

func (a *App) now() time.Time { return a.clock.Now() }
