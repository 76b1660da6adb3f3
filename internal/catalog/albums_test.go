package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"photocat/internal/catalog"
	"photocat/internal/testutil"
	"photocat/internal/undo"
)

func TestAlbums(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()
	folder, err := c.Service.AddFolder(ctx, dir)
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	f1 := addImage(t, c, folder.ID, filepath.Join(dir, "a.jpg"), nil)
	f2 := addImage(t, c, folder.ID, filepath.Join(dir, "b.jpg"), nil)

	t.Run("add", func(t *testing.T) {
		var verr *catalog.ValidationError
		if _, err := c.Service.AddAlbum(ctx, "", 0); !errors.As(err, &verr) {
			t.Errorf("AddAlbum(empty) error = %v, want ValidationError", err)
		}
		if _, err := c.Service.AddAlbum(ctx, "Orphan", 42); !errors.Is(err, catalog.ErrAlbumNotFound) {
			t.Errorf("AddAlbum(missing parent) error = %v, want ErrAlbumNotFound", err)
		}

		c.Notifier.Reset()
		a, err := c.Service.AddAlbum(ctx, "Holidays", 0)
		if err != nil {
			t.Fatalf("AddAlbum() error = %v", err)
		}
		if diff := cmp.Diff([]catalog.Notification{catalog.AddedAlbum{Album: *a}}, c.Notifier.All()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
	})

	albums, err := c.Service.GetAllAlbums(ctx)
	if err != nil || len(albums) != 1 {
		t.Fatalf("GetAllAlbums() = %v, %v; want one album", albums, err)
	}
	album := albums[0]

	t.Run("add files", func(t *testing.T) {
		if _, err := c.Service.AddToAlbum(ctx, catalog.InvalidID, []catalog.ID{f1}); !errors.Is(err, catalog.ErrInvalidID) {
			t.Errorf("AddToAlbum(invalid) error = %v, want ErrInvalidID", err)
		}

		c.Notifier.Reset()
		added, err := c.Service.AddToAlbum(ctx, album.ID, []catalog.ID{f1, f2})
		if err != nil {
			t.Fatalf("AddToAlbum() error = %v", err)
		}
		want := []catalog.Notification{
			catalog.AddedToAlbum{AlbumID: album.ID, FileIDs: []catalog.ID{f1, f2}},
			catalog.AlbumCountChanged{Count: catalog.Count{ID: album.ID, Count: 2}},
		}
		if diff := cmp.Diff(want, c.Notifier.All()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
		if len(added) != 2 {
			t.Errorf("added = %v, want 2 ids", added)
		}

		// Files already in the album are skipped silently.
		c.Notifier.Reset()
		if added, err := c.Service.AddToAlbum(ctx, album.ID, []catalog.ID{f1}); err != nil || len(added) != 0 {
			t.Errorf("AddToAlbum(again) = %v, %v", added, err)
		}
		if n := len(c.Notifier.All()); n != 0 {
			t.Errorf("AddToAlbum(again) posted %d notifications", n)
		}
	})

	t.Run("query", func(t *testing.T) {
		c.Notifier.Reset()
		n, err := c.Service.CountAlbum(ctx, album.ID)
		if err != nil || n != 2 {
			t.Errorf("CountAlbum() = %d, %v; want 2", n, err)
		}
		files, err := c.Service.GetAlbumContent(ctx, album.ID)
		if err != nil {
			t.Fatalf("GetAlbumContent() error = %v", err)
		}
		var ids []catalog.ID
		for _, f := range files {
			ids = append(ids, f.ID)
		}
		if diff := cmp.Diff([]catalog.ID{f1, f2}, ids); diff != "" {
			t.Errorf("GetAlbumContent() ids mismatch (-want +got):\n%s", diff)
		}
		want := []catalog.NotificationKind{catalog.KindAlbumCounted, catalog.KindAlbumContentQueried}
		if diff := cmp.Diff(want, c.Notifier.Kinds()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("remove files", func(t *testing.T) {
		c.Notifier.Reset()
		removed, err := c.Service.RemoveFromAlbum(ctx, album.ID, []catalog.ID{f2})
		if err != nil {
			t.Fatalf("RemoveFromAlbum() error = %v", err)
		}
		want := []catalog.Notification{
			catalog.RemovedFromAlbum{AlbumID: album.ID, FileIDs: []catalog.ID{f2}},
			catalog.AlbumCountChanged{Count: catalog.Count{ID: album.ID, Count: -1}},
		}
		if diff := cmp.Diff(want, c.Notifier.All()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
		if len(removed) != 1 {
			t.Errorf("removed = %v", removed)
		}
	})

	t.Run("rename and delete", func(t *testing.T) {
		c.Notifier.Reset()
		if err := c.Service.RenameAlbum(ctx, album.ID, "Summer"); err != nil {
			t.Fatalf("RenameAlbum() error = %v", err)
		}
		if err := c.Service.RenameAlbum(ctx, 999, "Winter"); !errors.Is(err, catalog.ErrAlbumNotFound) {
			t.Errorf("RenameAlbum(missing) error = %v, want ErrAlbumNotFound", err)
		}
		if err := c.Service.DeleteAlbum(ctx, album.ID); err != nil {
			t.Fatalf("DeleteAlbum() error = %v", err)
		}
		want := []catalog.Notification{
			catalog.AlbumRenamed{Album: catalog.Album{ID: album.ID, Name: "Summer"}},
			catalog.AlbumDeleted{ID: album.ID},
		}
		if diff := cmp.Diff(want, c.Notifier.All()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
		if err := c.Service.DeleteAlbum(ctx, album.ID); !errors.Is(err, catalog.ErrAlbumNotFound) {
			t.Errorf("DeleteAlbum(again) error = %v, want ErrAlbumNotFound", err)
		}
		if f, _ := c.Service.GetFile(ctx, f1); f == nil {
			t.Error("deleting the album removed its file")
		}
	})
}

func TestActions_AddToAlbumUndo(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	h := undo.NewHistory()
	a := catalog.NewActions(c.Service, h)

	dir := t.TempDir()
	folder, _ := c.Service.AddFolder(ctx, dir)
	f1 := addImage(t, c, folder.ID, filepath.Join(dir, "a.jpg"), nil)
	f2 := addImage(t, c, folder.ID, filepath.Join(dir, "b.jpg"), nil)
	album, err := c.Service.AddAlbum(ctx, "Picks", 0)
	if err != nil {
		t.Fatalf("AddAlbum() error = %v", err)
	}
	if _, err := c.Service.AddToAlbum(ctx, album.ID, []catalog.ID{f1}); err != nil {
		t.Fatalf("AddToAlbum() error = %v", err)
	}

	count := func() int {
		t.Helper()
		n, err := c.Service.CountAlbum(ctx, album.ID)
		if err != nil {
			t.Fatalf("CountAlbum() error = %v", err)
		}
		return n
	}

	if err := a.AddToAlbum(ctx, album.ID, []catalog.ID{f1, f2}); err != nil {
		t.Fatalf("AddToAlbum() error = %v", err)
	}
	if name := h.NextUndoName(); name != "Add to album" {
		t.Errorf("NextUndoName() = %q", name)
	}
	if n := count(); n != 2 {
		t.Fatalf("count after add = %d, want 2", n)
	}

	// Undo leaves the file that was already there.
	if err := h.Undo(ctx); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if n := count(); n != 1 {
		t.Errorf("count after undo = %d, want 1", n)
	}
	if err := h.Redo(ctx); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if n := count(); n != 2 {
		t.Errorf("count after redo = %d, want 2", n)
	}

	if err := a.AddToAlbum(ctx, album.ID, []catalog.ID{999}); !errors.Is(err, catalog.ErrFileNotFound) {
		t.Errorf("AddToAlbum(missing file) error = %v, want ErrFileNotFound", err)
	}
	if name := h.NextUndoName(); name != "Add to album" {
		t.Errorf("NextUndoName() after failure = %q", name)
	}
}
