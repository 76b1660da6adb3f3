// Package sidecar writes catalog metadata to XMP sidecar files by
// draining the catalog's rewrite queue.
package sidecar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"photocat/internal/catalog"
	"photocat/internal/fs"
	"photocat/internal/metrics"
)

const sidecarPerms = 0o644

// Backup policies applied before an existing sidecar is replaced.
const (
	BackupNone = "none"
	BackupCopy = "copy"
)

// Queue is the part of the catalog database the synchronizer uses.
type Queue interface {
	QueuedXmpIDs(ctx context.Context) ([]catalog.ID, error)
	DequeueXmp(ctx context.Context, fileID catalog.ID) error
	EnqueueXmp(ctx context.Context, fileID catalog.ID) error
	GetXmpRecord(ctx context.Context, fileID catalog.ID) (*catalog.XmpRecord, error)
	LinkXmpSidecar(ctx context.Context, fileID catalog.ID, path string, write func() error) error
}

// Options control how sidecars are written.
type Options struct {
	// Backup is BackupNone or BackupCopy. BackupCopy keeps the replaced
	// sidecar as "<sidecar>.bak".
	Backup string
	// RequeueOnFailure puts a file back on the queue when its write fails.
	RequeueOnFailure bool
}

// Synchronizer implements catalog.XmpSynchronizer.
type Synchronizer struct {
	queue   Queue
	codec   catalog.MetadataCodec
	opts    Options
	logger  catalog.Logger
	metrics *metrics.Collector
}

var _ catalog.XmpSynchronizer = (*Synchronizer)(nil)

// NewSynchronizer creates a Synchronizer. metrics may be nil.
func NewSynchronizer(queue Queue, codec catalog.MetadataCodec, opts Options, logger catalog.Logger, m *metrics.Collector) *Synchronizer {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	if opts.Backup == "" {
		opts.Backup = BackupNone
	}
	return &Synchronizer{queue: queue, codec: codec, opts: opts, logger: logger, metrics: m}
}

// QueuedIDs returns the files waiting for a rewrite.
func (s *Synchronizer) QueuedIDs(ctx context.Context) ([]catalog.ID, error) {
	ids, err := s.queue.QueuedXmpIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrQueueRead, err)
	}
	return ids, nil
}

// RewriteForID removes id from the queue and, when write is true, writes
// its sidecar. The sidecar is the one registered for the file, or the main
// file name with an .xmp extension. A new sidecar is registered in the
// same transaction as its write.
func (s *Synchronizer) RewriteForID(ctx context.Context, id catalog.ID, write bool) error {
	if err := s.queue.DequeueXmp(ctx, id); err != nil {
		return fmt.Errorf("dequeuing file %d: %w", id, err)
	}
	if !write {
		s.metrics.XmpRewrite("discarded")
		return nil
	}

	rec, err := s.queue.GetXmpRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("reading file %d: %w", id, err)
	}
	if rec == nil {
		s.logger.Warn("queued file no longer exists", "file", id)
		return fmt.Errorf("file %d: %w", id, catalog.ErrFileNotFound)
	}

	path := rec.XmpPath
	if !rec.XmpFile.Valid() || path == "" {
		path = fs.ReplaceExtension(rec.MainPath, ".xmp")
	}
	if path == rec.MainPath {
		return s.failed(ctx, id, path, errors.New("sidecar path is the main file"))
	}

	packet, err := s.codec.Decode(rec.Xmp)
	if err != nil {
		return s.failed(ctx, id, path, fmt.Errorf("decoding metadata: %w", err))
	}
	data, err := s.codec.SidecarPacket(packet)
	if err != nil {
		return s.failed(ctx, id, path, fmt.Errorf("encoding sidecar: %w", err))
	}

	writeFn := func() error { return s.writeSidecar(path, data) }
	if rec.XmpFile.Valid() {
		err = writeFn()
	} else {
		err = s.queue.LinkXmpSidecar(ctx, id, path, writeFn)
	}
	if err != nil {
		return s.failed(ctx, id, path, err)
	}

	s.metrics.XmpRewrite("written")
	s.logger.Debug("sidecar written", "file", id, "path", path)
	return nil
}

// ProcessQueue rewrites every queued file. Files are independent: a
// failure does not stop the others, and all failures are returned
// together. Cancelling ctx skips the files not yet started.
func (s *Synchronizer) ProcessQueue(ctx context.Context, write bool) error {
	ids, err := s.QueuedIDs(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("xmp queue processing cancelled", "remaining", len(ids)-i)
			errs = append(errs, err)
			break
		}
		if err := s.RewriteForID(ctx, id, write); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Info("xmp queue processed", "files", len(ids), "write", write, "failures", len(errs))
	return errors.Join(errs...)
}

func (s *Synchronizer) writeSidecar(path string, data []byte) error {
	if s.opts.Backup == BackupCopy {
		if err := backupFile(path); err != nil {
			return err
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, sidecarPerms)
}

func backupFile(path string) error {
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading sidecar for backup: %w", err)
	}
	if err := atomic.WriteFile(path+".bak", bytes.NewReader(old)); err != nil {
		return fmt.Errorf("writing sidecar backup: %w", err)
	}
	return nil
}

func (s *Synchronizer) failed(ctx context.Context, id catalog.ID, path string, err error) error {
	s.metrics.XmpRewrite("failed")
	s.logger.Error("sidecar write failed", "file", id, "path", path, "error", err)
	if s.opts.RequeueOnFailure {
		if qerr := s.queue.EnqueueXmp(ctx, id); qerr != nil {
			s.logger.Error("requeueing file failed", "file", id, "error", qerr)
		}
	}
	return &catalog.XmpWriteError{FileID: id, Path: path, Err: err}
}
