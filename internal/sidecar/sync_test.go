package sidecar_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"photocat/internal/catalog"
	"photocat/internal/metrics"
	"photocat/internal/sidecar"
	"photocat/internal/xmp"
)

type fakeQueue struct {
	queue   []catalog.ID
	records map[catalog.ID]*catalog.XmpRecord
	linked  map[catalog.ID]string
	readErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{records: map[catalog.ID]*catalog.XmpRecord{}, linked: map[catalog.ID]string{}}
}

func (q *fakeQueue) QueuedXmpIDs(context.Context) ([]catalog.ID, error) {
	if q.readErr != nil {
		return nil, q.readErr
	}
	return append([]catalog.ID(nil), q.queue...), nil
}

func (q *fakeQueue) DequeueXmp(_ context.Context, id catalog.ID) error {
	for i, v := range q.queue {
		if v == id {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			break
		}
	}
	return nil
}

func (q *fakeQueue) EnqueueXmp(_ context.Context, id catalog.ID) error {
	for _, v := range q.queue {
		if v == id {
			return nil
		}
	}
	q.queue = append(q.queue, id)
	return nil
}

func (q *fakeQueue) GetXmpRecord(_ context.Context, id catalog.ID) (*catalog.XmpRecord, error) {
	return q.records[id], nil
}

func (q *fakeQueue) LinkXmpSidecar(_ context.Context, id catalog.ID, path string, write func() error) error {
	if err := write(); err != nil {
		return err
	}
	q.linked[id] = path
	rec := q.records[id]
	rec.XmpFile = 100 + id
	rec.XmpPath = path
	return nil
}

func blob(t *testing.T, rating int) string {
	t.Helper()
	p := xmp.New()
	p.SetInt(xmp.NSXAP, "Rating", rating)
	s, err := xmp.NewCodec().Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return s
}

func readRating(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	p, err := xmp.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r, _ := p.Rating()
	return r
}

func TestRewriteForID_CreatesAndLinksSidecar(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.queue = []catalog.ID{1}
	q.records[1] = &catalog.XmpRecord{FileID: 1, Xmp: blob(t, 4), MainPath: filepath.Join(dir, "img.jpg"), XmpFile: catalog.InvalidID}

	m := metrics.NewCollector("photocat")
	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, m)
	if err := s.RewriteForID(context.Background(), 1, true); err != nil {
		t.Fatalf("RewriteForID() error = %v", err)
	}

	want := filepath.Join(dir, "img.xmp")
	if got := q.linked[1]; got != want {
		t.Errorf("linked sidecar = %q, want %q", got, want)
	}
	if got := readRating(t, want); got != 4 {
		t.Errorf("sidecar rating = %d, want 4", got)
	}
	if len(q.queue) != 0 {
		t.Errorf("queue = %v, want empty", q.queue)
	}
	info, err := os.Stat(want)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("sidecar mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestRewriteForID_ExistingSidecarWithBackup(t *testing.T) {
	dir := t.TempDir()
	xmpPath := filepath.Join(dir, "shot.xmp")
	if err := os.WriteFile(xmpPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	q := newFakeQueue()
	q.queue = []catalog.ID{2}
	q.records[2] = &catalog.XmpRecord{FileID: 2, Xmp: blob(t, 2), MainPath: filepath.Join(dir, "shot.cr2"), XmpFile: 7, XmpPath: xmpPath}

	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{Backup: sidecar.BackupCopy}, nil, nil)
	if err := s.RewriteForID(context.Background(), 2, true); err != nil {
		t.Fatalf("RewriteForID() error = %v", err)
	}

	if _, ok := q.linked[2]; ok {
		t.Error("registered sidecar was linked again")
	}
	if got := readRating(t, xmpPath); got != 2 {
		t.Errorf("sidecar rating = %d, want 2", got)
	}
	old, err := os.ReadFile(xmpPath + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(old) != "old" {
		t.Errorf("backup = %q, want %q", old, "old")
	}
}

func TestRewriteForID_Discard(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.queue = []catalog.ID{3}
	q.records[3] = &catalog.XmpRecord{FileID: 3, Xmp: blob(t, 1), MainPath: filepath.Join(dir, "a.jpg"), XmpFile: catalog.InvalidID}

	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, nil)
	if err := s.RewriteForID(context.Background(), 3, false); err != nil {
		t.Fatalf("RewriteForID() error = %v", err)
	}
	if len(q.queue) != 0 {
		t.Errorf("queue = %v, want empty", q.queue)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.xmp")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("sidecar written on discard: %v", err)
	}
}

func TestRewriteForID_MissingFile(t *testing.T) {
	q := newFakeQueue()
	q.queue = []catalog.ID{9}
	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, nil)

	err := s.RewriteForID(context.Background(), 9, true)
	if !errors.Is(err, catalog.ErrFileNotFound) {
		t.Errorf("RewriteForID() error = %v, want ErrFileNotFound", err)
	}
}

func TestRewriteForID_FailureRequeues(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.queue = []catalog.ID{4}
	// The parent directory does not exist, so the write fails.
	q.records[4] = &catalog.XmpRecord{FileID: 4, Xmp: blob(t, 3), MainPath: filepath.Join(dir, "missing", "b.jpg"), XmpFile: catalog.InvalidID}

	m := metrics.NewCollector("photocat")
	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{RequeueOnFailure: true}, nil, m)
	err := s.RewriteForID(context.Background(), 4, true)
	if !errors.Is(err, catalog.ErrXmpWrite) {
		t.Fatalf("RewriteForID() error = %v, want ErrXmpWrite", err)
	}
	var werr *catalog.XmpWriteError
	if !errors.As(err, &werr) || werr.FileID != 4 {
		t.Errorf("error = %#v, want XmpWriteError for file 4", err)
	}
	if diff := cmp.Diff([]catalog.ID{4}, q.queue); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
	if _, ok := q.linked[4]; ok {
		t.Error("failed sidecar was linked")
	}
}

func TestRewriteForID_FailureWithoutRequeue(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.queue = []catalog.ID{4}
	q.records[4] = &catalog.XmpRecord{FileID: 4, Xmp: blob(t, 3), MainPath: filepath.Join(dir, "missing", "b.jpg"), XmpFile: catalog.InvalidID}

	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, nil)
	if err := s.RewriteForID(context.Background(), 4, true); err == nil {
		t.Fatal("RewriteForID() expected error")
	}
	if len(q.queue) != 0 {
		t.Errorf("queue = %v, want empty", q.queue)
	}
}

func TestQueuedIDs_ReadFailure(t *testing.T) {
	q := newFakeQueue()
	q.readErr = errors.New("disk I/O error")
	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, nil)

	ids, err := s.QueuedIDs(context.Background())
	if !errors.Is(err, catalog.ErrQueueRead) {
		t.Errorf("QueuedIDs() error = %v, want ErrQueueRead", err)
	}
	if ids != nil {
		t.Errorf("QueuedIDs() = %v, want nil", ids)
	}
}

func TestProcessQueue(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.queue = []catalog.ID{1, 2, 3}
	q.records[1] = &catalog.XmpRecord{FileID: 1, Xmp: blob(t, 1), MainPath: filepath.Join(dir, "one.jpg"), XmpFile: catalog.InvalidID}
	q.records[2] = &catalog.XmpRecord{FileID: 2, Xmp: blob(t, 2), MainPath: filepath.Join(dir, "nope", "two.jpg"), XmpFile: catalog.InvalidID}
	q.records[3] = &catalog.XmpRecord{FileID: 3, Xmp: blob(t, 3), MainPath: filepath.Join(dir, "three.jpg"), XmpFile: catalog.InvalidID}

	m := metrics.NewCollector("photocat")
	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, m)
	err := s.ProcessQueue(context.Background(), true)
	if err == nil || !strings.Contains(err.Error(), "two.xmp") {
		t.Fatalf("ProcessQueue() error = %v, want failure for two.xmp", err)
	}

	for id, name := range map[catalog.ID]string{1: "one.xmp", 3: "three.xmp"} {
		if got := readRating(t, filepath.Join(dir, name)); got != int(id) {
			t.Errorf("%s rating = %d, want %d", name, got, id)
		}
	}
	if len(q.queue) != 0 {
		t.Errorf("queue = %v, want empty", q.queue)
	}

	samples, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	var written, failed float64
	for _, s := range samples {
		if s.Name != "photocat_xmp_rewrites_total" {
			continue
		}
		switch s.Labels {
		case `result="written"`:
			written = s.Value
		case `result="failed"`:
			failed = s.Value
		}
	}
	if written != 2 || failed != 1 {
		t.Errorf("rewrites written=%v failed=%v, want 2 and 1", written, failed)
	}
}

func TestProcessQueue_Cancelled(t *testing.T) {
	dir := t.TempDir()
	q := newFakeQueue()
	q.queue = []catalog.ID{1}
	q.records[1] = &catalog.XmpRecord{FileID: 1, Xmp: blob(t, 1), MainPath: filepath.Join(dir, "one.jpg"), XmpFile: catalog.InvalidID}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := sidecar.NewSynchronizer(q, xmp.NewCodec(), sidecar.Options{}, nil, nil)
	if err := s.ProcessQueue(ctx, true); !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessQueue() error = %v, want context.Canceled", err)
	}
	if diff := cmp.Diff([]catalog.ID{1}, q.queue); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
}
