package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"photocat/internal/catalog"
	"photocat/internal/database"
	"photocat/internal/sidecar"
	"photocat/internal/testutil"
	"photocat/internal/xmp"
)

func addImage(t *testing.T, c *testutil.Catalog, folderID catalog.ID, path string, p *xmp.Packet) catalog.ID {
	t.Helper()
	testutil.WriteImage(t, path, p)
	id, err := c.Service.AddFile(context.Background(), folderID, path, catalog.ManagedNo)
	if err != nil {
		t.Fatalf("AddFile(%s) error = %v", path, err)
	}
	return id
}

func TestInit_NewCatalog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, database.CatalogFileName)

	db, err := database.NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	defer db.Close()

	rec := testutil.NewRecordingNotifier()
	svc := catalog.NewService(db, database.NewSchemaManager(db, nil), xmp.NewCodec(), testutil.NopSynchronizer{}, rec, nil, testutil.FixedClock())
	status, err := svc.Init(ctx)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !status.Created || !svc.Ready() {
		t.Errorf("Init() status = %+v, ready = %v", status, svc.Ready())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("catalog file missing: %v", err)
	}

	want := []catalog.NotificationKind{catalog.KindNewLibraryCreated, catalog.KindDatabaseReady}
	if diff := cmp.Diff(want, rec.Kinds()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}

	folders, err := svc.GetAllFolders(ctx)
	if err != nil {
		t.Fatalf("GetAllFolders() error = %v", err)
	}
	if len(folders) != 1 || folders[0].Name != catalog.TrashFolderName || !folders[0].IsTrash() {
		t.Errorf("GetAllFolders() = %+v, want only the trash", folders)
	}

	// A second Init on the same catalog creates nothing.
	rec.Reset()
	status, err = svc.Init(ctx)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if status.Created {
		t.Error("second Init() created the schema again")
	}
	if diff := cmp.Diff([]catalog.NotificationKind{catalog.KindDatabaseReady}, rec.Kinds()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
	folders, _ = svc.GetAllFolders(ctx)
	trash := 0
	for _, f := range folders {
		if f.IsTrash() {
			trash++
		}
	}
	if trash != 1 {
		t.Errorf("trash folders = %d, want 1", trash)
	}
}

func TestInit_CorruptVersion(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDatabase(t)
	if _, err := db.DB().Exec("UPDATE admin SET value = 'garbage' WHERE key = 'version'"); err != nil {
		t.Fatal(err)
	}

	svc := catalog.NewService(db, database.NewSchemaManager(db, nil), xmp.NewCodec(), testutil.NopSynchronizer{}, nil, nil, nil)
	if _, err := svc.Init(ctx); !errors.Is(err, catalog.ErrCorruptVersion) {
		t.Fatalf("Init() error = %v, want ErrCorruptVersion", err)
	}
	if svc.Ready() {
		t.Error("service ready after corrupt version")
	}
	if _, err := svc.GetAllFolders(ctx); !errors.Is(err, catalog.ErrNotInitialized) {
		t.Errorf("GetAllFolders() error = %v, want ErrNotInitialized", err)
	}
	if _, err := svc.AddLabel(ctx, "Red", "#FF0000"); !errors.Is(err, catalog.ErrNotInitialized) {
		t.Errorf("AddLabel() error = %v, want ErrNotInitialized", err)
	}
}

func TestNotInitialized(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	svc := catalog.NewService(db, database.NewSchemaManager(db, nil), xmp.NewCodec(), testutil.NopSynchronizer{}, nil, nil, nil)

	n, err := svc.CountFolder(context.Background(), 1)
	if !errors.Is(err, catalog.ErrNotInitialized) || n != -1 {
		t.Errorf("CountFolder() = %d, %v; want -1, ErrNotInitialized", n, err)
	}
}

func TestFsFiles(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)

	id, err := c.Service.AddFsFile(ctx, "/photos/a.jpg")
	if err != nil {
		t.Fatalf("AddFsFile() error = %v", err)
	}
	got, err := c.Service.GetFsFile(ctx, id)
	if err != nil || got != "/photos/a.jpg" {
		t.Errorf("GetFsFile() = %q, %v", got, err)
	}
	got, err = c.Service.GetFsFile(ctx, id+100)
	if err != nil || got != "" {
		t.Errorf("GetFsFile(missing) = %q, %v; want empty", got, err)
	}
	if _, err := c.Service.AddFsFile(ctx, ""); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("AddFsFile(\"\") error = %v, want ErrValidation", err)
	}
}

func TestAddFile(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()

	folder, err := c.Service.AddFolder(ctx, filepath.Join(dir, "2024"))
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	if folder.Name != "2024" || !folder.ID.Valid() {
		t.Errorf("AddFolder() = %+v", folder)
	}
	c.Notifier.Reset()

	path := filepath.Join(dir, "2024", "img1.nef")
	id := addImage(t, c, folder.ID, path, testutil.NewPacket(3, "sunset", "beach"))
	if !id.Valid() {
		t.Fatalf("AddFile() id = %d", id)
	}

	files, err := c.Service.GetFolderContent(ctx, folder.ID)
	if err != nil {
		t.Fatalf("GetFolderContent() error = %v", err)
	}
	if len(files) != 1 || files[0].ID != id {
		t.Fatalf("GetFolderContent() = %+v, want file %d", files, id)
	}
	f := files[0]
	if f.Name != "img1.nef" || f.Type != catalog.FileTypeRaw || f.Rating != 3 || f.Path != path {
		t.Errorf("file = %+v", f)
	}
	if !f.ImportDate.Equal(c.Clock.Now()) {
		t.Errorf("ImportDate = %v, want %v", f.ImportDate, c.Clock.Now())
	}

	want := []catalog.NotificationKind{
		catalog.KindAddedKeyword, catalog.KindAddedKeyword,
		catalog.KindKeywordCountChanged, catalog.KindKeywordCountChanged,
		catalog.KindAddedFile, catalog.KindFolderCountChanged,
		catalog.KindFolderContentQueried,
	}
	if diff := cmp.Diff(want, c.Notifier.Kinds()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}

	keywords, err := c.Service.GetAllKeywords(ctx)
	if err != nil {
		t.Fatalf("GetAllKeywords() error = %v", err)
	}
	var texts []string
	for _, k := range keywords {
		texts = append(texts, k.Keyword)
	}
	if diff := cmp.Diff([]string{"beach", "sunset"}, texts); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}

	n, err := c.Service.CountFolder(ctx, folder.ID)
	if err != nil || n != 1 {
		t.Errorf("CountFolder() = %d, %v; want 1", n, err)
	}
}

func TestAddFile_Validation(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	testutil.WriteImage(t, path, nil)

	if _, err := c.Service.AddFile(ctx, catalog.InvalidID, path, catalog.ManagedNo); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("AddFile(invalid folder) error = %v, want ErrValidation", err)
	}
	if _, err := c.Service.AddFile(ctx, 1, path, catalog.ManagedYes); !errors.Is(err, catalog.ErrUnsupported) {
		t.Errorf("AddFile(managed) error = %v, want ErrUnsupported", err)
	}

	// Malformed metadata stores nothing.
	broken := filepath.Join(dir, "broken.nef")
	testutil.WriteImage(t, broken, nil)
	if err := os.WriteFile(filepath.Join(dir, "broken.xmp"), []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Service.AddFile(ctx, 1, broken, catalog.ManagedNo); err == nil {
		t.Error("AddFile(malformed sidecar) expected error")
	}
	var fsfiles int
	if err := c.DB.DB().QueryRow("SELECT COUNT(*) FROM fsfiles").Scan(&fsfiles); err != nil {
		t.Fatal(err)
	}
	if fsfiles != 0 {
		t.Errorf("fsfiles rows = %d, want 0", fsfiles)
	}
}

func TestAddFile_UnreadableFile(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)

	folder, err := c.Service.AddFolder(ctx, "/photos/2024")
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	id, err := c.Service.AddFile(ctx, folder.ID, "/photos/2024/img1.nef", catalog.ManagedNo)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	if !id.Valid() {
		t.Fatalf("AddFile() id = %d, want > 0", id)
	}

	f, err := c.Service.GetFile(ctx, id)
	if err != nil || f == nil {
		t.Fatalf("GetFile() = %v, %v", f, err)
	}
	if f.Name != "img1.nef" || f.Type != catalog.FileTypeRaw || f.Rating != 0 || f.Orientation != 0 || f.FolderID != folder.ID {
		t.Errorf("file = %+v", f)
	}
	meta, err := c.Service.GetMetadata(ctx, id)
	if err != nil || meta == nil {
		t.Fatalf("GetMetadata() = %v, %v", meta, err)
	}
	if meta.Packet().Len() != 0 {
		t.Errorf("packet has %d properties, want 0", meta.Packet().Len())
	}
}

func TestAddFile_ColourLabel(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDatabase(t)
	logger := testutil.NewRecordingLogger()
	svc := catalog.NewService(db, database.NewSchemaManager(db, nil), xmp.NewCodec(), testutil.NopSynchronizer{}, nil, logger, testutil.FixedClock())
	if _, err := svc.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	dir := t.TempDir()
	folder, err := svc.AddFolder(ctx, dir)
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	p := testutil.NewPacket(2)
	p.Set(xmp.NSXAP, "Label", "Red")
	path := filepath.Join(dir, "red.jpg")
	testutil.WriteImage(t, path, p)

	id, err := svc.AddFile(ctx, folder.ID, path, catalog.ManagedNo)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	f, _ := svc.GetFile(ctx, id)
	if f.LabelID != 0 {
		t.Errorf("LabelID = %d, want 0", f.LabelID)
	}
	if !logger.Contains("DEBUG label is not a label id, not mirrored label=Red") {
		t.Errorf("log lines = %q, want the dropped label reported", logger.Lines())
	}
}

func TestAddBundle(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()

	folder, err := c.Service.AddFolder(ctx, dir)
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}

	raw := filepath.Join(dir, "IMG_1.NEF")
	jpg := filepath.Join(dir, "IMG_1.JPG")
	side := filepath.Join(dir, "IMG_1.xmp")
	embedded := testutil.NewPacket(4)
	embedded.SetInt(xmp.NSTIFF, "Orientation", 6)
	testutil.WriteImage(t, raw, testutil.NewPacket(1))
	testutil.WriteImage(t, jpg, embedded)
	if err := os.WriteFile(side, testutil.NewPacket(5).MarshalSidecar(), 0o644); err != nil {
		t.Fatal(err)
	}

	bundles := catalog.FilterBundles([]string{jpg, side, raw})
	if len(bundles) != 1 {
		t.Fatalf("FilterBundles() = %d bundles, want 1", len(bundles))
	}
	id, err := c.Service.AddBundle(ctx, folder.ID, bundles[0], catalog.ManagedNo)
	if err != nil {
		t.Fatalf("AddBundle() error = %v", err)
	}

	f, err := c.Service.GetFile(ctx, id)
	if err != nil || f == nil {
		t.Fatalf("GetFile() = %v, %v", f, err)
	}
	if f.Type != catalog.FileTypeRawJpeg {
		t.Errorf("Type = %v, want RAW + JPEG", f.Type)
	}
	if f.Rating != 4 || f.Orientation != 6 {
		t.Errorf("Rating, Orientation = %d, %d; want 4, 6 from the JPEG", f.Rating, f.Orientation)
	}
	if !f.XmpFile.Valid() || !f.JpegFile.Valid() {
		t.Errorf("companions not linked: xmp=%d jpeg=%d", f.XmpFile, f.JpegFile)
	}

	meta, err := c.Service.GetMetadata(ctx, id)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if diff := cmp.Diff([]string{side, jpg}, meta.Sidecars); diff != "" {
		t.Errorf("sidecars mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Service.AddBundle(ctx, folder.ID, &catalog.FileBundle{}, catalog.ManagedNo); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("AddBundle(empty) error = %v, want ErrValidation", err)
	}
}

func TestFolders(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()

	parent, err := c.Service.AddFolder(ctx, "/photos")
	if err != nil {
		t.Fatalf("AddFolder() error = %v", err)
	}
	child, err := c.Service.AddFolderWithParent(ctx, "2024", "/photos/2024", parent.ID)
	if err != nil {
		t.Fatalf("AddFolderWithParent() error = %v", err)
	}
	if child.ParentID != parent.ID {
		t.Errorf("ParentID = %d, want %d", child.ParentID, parent.ID)
	}
	if _, err := c.Service.AddFolderWithParent(ctx, "x", "/x", 999); !errors.Is(err, catalog.ErrFolderNotFound) {
		t.Errorf("AddFolderWithParent(missing parent) error = %v, want ErrFolderNotFound", err)
	}

	got, err := c.Service.GetFolder(ctx, "/photos/2024")
	if err != nil || got == nil || got.ID != child.ID {
		t.Errorf("GetFolder() = %+v, %v", got, err)
	}
	got, err = c.Service.GetFolder(ctx, "/nowhere")
	if err != nil || got != nil {
		t.Errorf("GetFolder(missing) = %+v, %v; want nil, nil", got, err)
	}

	if err := c.Service.SetFolderExpanded(ctx, child.ID, true); err != nil {
		t.Fatalf("SetFolderExpanded() error = %v", err)
	}
	got, _ = c.Service.GetFolderByID(ctx, child.ID)
	if !got.Expanded {
		t.Error("folder not expanded")
	}

	n, err := c.Service.CountFolder(ctx, child.ID)
	if err != nil || n != 0 {
		t.Errorf("CountFolder(empty) = %d, %v; want 0", n, err)
	}

	fid := addImage(t, c, child.ID, filepath.Join(dir, "a.jpg"), testutil.NewPacket(1, "gone"))
	c.Notifier.Reset()
	if err := c.Service.DeleteFolder(ctx, child.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}
	if diff := cmp.Diff([]catalog.NotificationKind{catalog.KindFolderDeleted}, c.Notifier.Kinds()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
	if f, _ := c.Service.GetFile(ctx, fid); f != nil {
		t.Errorf("file %d survived its folder", fid)
	}

	folders, _ := c.Service.GetAllFolders(ctx)
	var trash *catalog.Folder
	for _, f := range folders {
		if f.IsTrash() {
			trash = f
		}
	}
	if err := c.Service.DeleteFolder(ctx, trash.ID); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("DeleteFolder(trash) error = %v, want ErrValidation", err)
	}
	if err := c.Service.DeleteFolder(ctx, 999); !errors.Is(err, catalog.ErrFolderNotFound) {
		t.Errorf("DeleteFolder(missing) error = %v, want ErrFolderNotFound", err)
	}
}

func TestKeywords(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()

	t.Run("make keyword twice", func(t *testing.T) {
		c.Notifier.Reset()
		id1, err := c.Service.MakeKeyword(ctx, "sunset")
		if err != nil {
			t.Fatalf("MakeKeyword() error = %v", err)
		}
		id2, err := c.Service.MakeKeyword(ctx, "sunset")
		if err != nil {
			t.Fatalf("MakeKeyword() error = %v", err)
		}
		if id1 != id2 {
			t.Errorf("MakeKeyword() ids = %d, %d; want equal", id1, id2)
		}
		if diff := cmp.Diff([]catalog.NotificationKind{catalog.KindAddedKeyword}, c.Notifier.Kinds()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
		keywords, _ := c.Service.GetAllKeywords(ctx)
		if len(keywords) != 1 || keywords[0].Keyword != "sunset" {
			t.Errorf("GetAllKeywords() = %+v", keywords)
		}
	})

	t.Run("exact match", func(t *testing.T) {
		a, _ := c.Service.MakeKeyword(ctx, "Sunset")
		b, _ := c.Service.MakeKeyword(ctx, "sunset")
		if a == b {
			t.Error("keywords differing in case share an id")
		}
	})

	t.Run("assign twice", func(t *testing.T) {
		folder, _ := c.Service.AddFolder(ctx, dir)
		fid := addImage(t, c, folder.ID, filepath.Join(dir, "k.jpg"), nil)
		kid, _ := c.Service.MakeKeyword(ctx, "sea")

		c.Notifier.Reset()
		for range 2 {
			if err := c.Service.AssignKeyword(ctx, kid, fid); err != nil {
				t.Fatalf("AssignKeyword() error = %v", err)
			}
		}
		if diff := cmp.Diff([]catalog.NotificationKind{catalog.KindKeywordCountChanged}, c.Notifier.Kinds()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
		files, err := c.Service.GetKeywordContent(ctx, kid)
		if err != nil {
			t.Fatalf("GetKeywordContent() error = %v", err)
		}
		if len(files) != 1 || files[0].ID != fid {
			t.Errorf("GetKeywordContent() = %+v, want file %d once", files, fid)
		}
		n, err := c.Service.CountKeyword(ctx, kid)
		if err != nil || n != 1 {
			t.Errorf("CountKeyword() = %d, %v; want 1", n, err)
		}

		if err := c.Service.UnassignAllKeywordsForFile(ctx, fid); err != nil {
			t.Fatalf("UnassignAllKeywordsForFile() error = %v", err)
		}
		n, _ = c.Service.CountKeyword(ctx, kid)
		if n != 0 {
			t.Errorf("CountKeyword() after unassign = %d, want 0", n)
		}
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		padded, err := c.Service.MakeKeyword(ctx, " dunes ")
		if err != nil {
			t.Fatalf("MakeKeyword() error = %v", err)
		}
		plain, _ := c.Service.MakeKeyword(ctx, "dunes")
		if padded != plain {
			t.Errorf("MakeKeyword() ids = %d, %d; want equal", padded, plain)
		}
		if _, err := c.Service.MakeKeyword(ctx, "   "); !errors.Is(err, catalog.ErrValidation) {
			t.Errorf("MakeKeyword(blank) error = %v, want ErrValidation", err)
		}
	})

	t.Run("set keywords mirrors blob", func(t *testing.T) {
		folder, _ := c.Service.AddFolder(ctx, filepath.Join(dir, "mirror"))
		fid := addImage(t, c, folder.ID, filepath.Join(dir, "mirror", "m.jpg"), testutil.NewPacket(0, " tide", "tide "))
		kid, _ := c.Service.MakeKeyword(ctx, " tide")

		meta, _ := c.Service.GetMetadata(ctx, fid)
		if diff := cmp.Diff([]string{"tide"}, meta.Keywords()); diff != "" {
			t.Errorf("imported keywords mismatch (-want +got):\n%s", diff)
		}

		v := catalog.StringArrayValue([]string{" tide", " tide", "", "reef"})
		if err := c.Service.SetMetadata(ctx, fid, catalog.PropKeywords, v); err != nil {
			t.Fatalf("SetMetadata() error = %v", err)
		}
		meta, _ = c.Service.GetMetadata(ctx, fid)
		if diff := cmp.Diff([]string{"tide", "reef"}, meta.Keywords()); diff != "" {
			t.Errorf("blob keywords mismatch (-want +got):\n%s", diff)
		}
		n, err := c.Service.CountKeyword(ctx, kid)
		if err != nil || n != 1 {
			t.Errorf("CountKeyword(tide) = %d, %v; want 1", n, err)
		}
		var rows int
		if err := c.DB.DB().QueryRow("SELECT COUNT(*) FROM keywords WHERE keyword LIKE '%tide%'").Scan(&rows); err != nil {
			t.Fatal(err)
		}
		if rows != 1 {
			t.Errorf("tide keyword rows = %d, want 1", rows)
		}
	})

	t.Run("invalid ids", func(t *testing.T) {
		if err := c.Service.AssignKeyword(ctx, catalog.InvalidID, 1); !errors.Is(err, catalog.ErrInvalidID) {
			t.Errorf("AssignKeyword() error = %v, want ErrInvalidID", err)
		}
		if _, err := c.Service.MakeKeyword(ctx, ""); !errors.Is(err, catalog.ErrValidation) {
			t.Errorf("MakeKeyword(\"\") error = %v, want ErrValidation", err)
		}
	})
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()
	folder, _ := c.Service.AddFolder(ctx, dir)
	fid := addImage(t, c, folder.ID, filepath.Join(dir, "m.jpg"), testutil.NewPacket(1, "old"))

	labelID, err := c.Service.AddLabel(ctx, "Red", "#FF0000")
	if err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}

	sets := []struct {
		idx catalog.PropertyIndex
		v   catalog.PropertyValue
	}{
		{catalog.PropRating, catalog.IntValue(4)},
		{catalog.PropLabel, catalog.IntValue(int(labelID))},
		{catalog.PropOrientation, catalog.IntValue(6)},
		{catalog.PropFlag, catalog.IntValue(catalog.FlagPicked)},
		{catalog.PropHeadline, catalog.StringValue("At the beach")},
		{catalog.PropKeywords, catalog.StringArrayValue([]string{"new", "sea"})},
	}
	for _, s := range sets {
		c.Notifier.Reset()
		if err := c.Service.SetMetadata(ctx, fid, s.idx, s.v); err != nil {
			t.Fatalf("SetMetadata(%s) error = %v", s.idx, err)
		}
		kinds := c.Notifier.Kinds()
		if n := len(kinds); n < 2 || kinds[n-2] != catalog.KindMetadataChanged || kinds[n-1] != catalog.KindXmpNeedsUpdate {
			t.Errorf("SetMetadata(%s) notifications = %v", s.idx, kinds)
		}
	}

	f, err := c.Service.GetFile(ctx, fid)
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if f.Rating != 4 || f.LabelID != labelID || f.Orientation != 6 || f.Flag != catalog.FlagPicked {
		t.Errorf("mirrored columns = rating %d label %d orientation %d flag %d", f.Rating, f.LabelID, f.Orientation, f.Flag)
	}

	meta, err := c.Service.GetMetadata(ctx, fid)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	for _, s := range sets {
		got, ok := meta.Get(s.idx)
		if !ok || !got.Equal(s.v) {
			t.Errorf("Get(%s) = %v, %v; want %v", s.idx, got, ok, s.v)
		}
	}
	if meta.Name != "m.jpg" || meta.Folder != dir {
		t.Errorf("view fields = %q, %q", meta.Name, meta.Folder)
	}

	old, _ := c.Service.MakeKeyword(ctx, "old")
	if n, _ := c.Service.CountKeyword(ctx, old); n != 0 {
		t.Errorf("replaced keyword still assigned %d times", n)
	}

	if err := c.Service.SetMetadata(ctx, fid, catalog.PropRating, catalog.StringValue("five")); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("SetMetadata(string rating) error = %v, want ErrValidation", err)
	}
	if err := c.Service.SetMetadata(ctx, 999, catalog.PropRating, catalog.IntValue(1)); !errors.Is(err, catalog.ErrFileNotFound) {
		t.Errorf("SetMetadata(missing file) error = %v, want ErrFileNotFound", err)
	}
}

func TestMoveFileToFolder(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	dir := t.TempDir()
	a, _ := c.Service.AddFolder(ctx, filepath.Join(dir, "a"))
	b, _ := c.Service.AddFolder(ctx, filepath.Join(dir, "b"))
	fid := addImage(t, c, a.ID, filepath.Join(dir, "a", "x.jpg"), nil)

	c.Notifier.Reset()
	if err := c.Service.MoveFileToFolder(ctx, fid, b.ID); err != nil {
		t.Fatalf("MoveFileToFolder() error = %v", err)
	}
	want := []catalog.Notification{
		catalog.FileMoved{FileID: fid, From: a.ID, To: b.ID},
		catalog.FolderCountChanged{Count: catalog.Count{ID: a.ID, Count: -1}},
		catalog.FolderCountChanged{Count: catalog.Count{ID: b.ID, Count: 1}},
	}
	if diff := cmp.Diff(want, c.Notifier.All()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}

	if err := c.Service.MoveFileToFolder(ctx, fid, 999); !errors.Is(err, catalog.ErrFolderNotFound) {
		t.Errorf("MoveFileToFolder(missing folder) error = %v, want ErrFolderNotFound", err)
	}
	f, _ := c.Service.GetFile(ctx, fid)
	if f.FolderID != b.ID {
		t.Errorf("FolderID = %d, want %d", f.FolderID, b.ID)
	}
}

func TestLabels(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)

	id, err := c.Service.AddLabel(ctx, "Red", "#FF0000")
	if err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}
	if err := c.Service.UpdateLabel(ctx, id, "Crimson", "#DC143C"); err != nil {
		t.Fatalf("UpdateLabel() error = %v", err)
	}
	labels, err := c.Service.GetAllLabels(ctx)
	if err != nil {
		t.Fatalf("GetAllLabels() error = %v", err)
	}
	want := []*catalog.Label{{ID: id, Name: "Crimson", Color: "#DC143C"}}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if err := c.Service.DeleteLabel(ctx, id); err != nil {
		t.Fatalf("DeleteLabel() error = %v", err)
	}
	if err := c.Service.DeleteLabel(ctx, id); !errors.Is(err, catalog.ErrLabelNotFound) {
		t.Errorf("DeleteLabel(again) error = %v, want ErrLabelNotFound", err)
	}
	if err := c.Service.UpdateLabel(ctx, id, "x", ""); !errors.Is(err, catalog.ErrLabelNotFound) {
		t.Errorf("UpdateLabel(missing) error = %v, want ErrLabelNotFound", err)
	}
	if _, err := c.Service.AddLabel(ctx, "", "#000"); !errors.Is(err, catalog.ErrValidation) {
		t.Errorf("AddLabel(\"\") error = %v, want ErrValidation", err)
	}

	kinds := c.Notifier.Kinds()
	wantKinds := []catalog.NotificationKind{catalog.KindAddedLabels, catalog.KindLabelChanged, catalog.KindAddedLabels, catalog.KindLabelDeleted}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestXmpQueueDrain(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db := testutil.NewTestDatabase(t)
	codec := xmp.NewCodec()
	xsync := sidecar.NewSynchronizer(db, codec, sidecar.Options{}, nil, nil)
	svc := catalog.NewService(db, database.NewSchemaManager(db, nil), codec, xsync, nil, nil, testutil.FixedClock())
	if _, err := svc.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	folder, _ := svc.AddFolder(ctx, dir)
	path := filepath.Join(dir, "q.jpg")
	testutil.WriteImage(t, path, nil)
	fid, err := svc.AddFile(ctx, folder.ID, path, catalog.ManagedNo)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	for _, r := range []int{1, 2, 5} {
		if err := svc.SetMetadata(ctx, fid, catalog.PropRating, catalog.IntValue(r)); err != nil {
			t.Fatalf("SetMetadata() error = %v", err)
		}
	}
	ids, err := svc.QueuedXmpIDs(ctx)
	if err != nil {
		t.Fatalf("QueuedXmpIDs() error = %v", err)
	}
	if diff := cmp.Diff([]catalog.ID{fid}, ids); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}

	if err := svc.ProcessXmpUpdateQueue(ctx, true); err != nil {
		t.Fatalf("ProcessXmpUpdateQueue() error = %v", err)
	}
	ids, _ = svc.QueuedXmpIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("queue after drain = %v, want empty", ids)
	}

	data, err := os.ReadFile(filepath.Join(dir, "q.xmp"))
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	p, err := xmp.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if r, _ := p.Rating(); r != 5 {
		t.Errorf("sidecar rating = %d, want 5", r)
	}
	f, _ := svc.GetFile(ctx, fid)
	if !f.XmpFile.Valid() {
		t.Error("sidecar not linked to the file")
	}

	// Discarding drains without writing.
	if err := svc.SetMetadata(ctx, fid, catalog.PropRating, catalog.IntValue(1)); err != nil {
		t.Fatal(err)
	}
	if err := svc.ProcessXmpUpdateQueue(ctx, false); err != nil {
		t.Fatalf("ProcessXmpUpdateQueue(false) error = %v", err)
	}
	ids, _ = svc.QueuedXmpIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("queue after discard = %v, want empty", ids)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "q.xmp"))
	p, _ = xmp.Parse(data)
	if r, _ := p.Rating(); r != 5 {
		t.Errorf("sidecar rewritten on discard: rating = %d", r)
	}

	if err := svc.WriteMetadata(ctx, fid); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "q.xmp"))
	p, _ = xmp.Parse(data)
	if r, _ := p.Rating(); r != 1 {
		t.Errorf("sidecar rating after WriteMetadata = %d, want 1", r)
	}
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestCatalog(t)
	if _, err := c.Service.AddLabel(ctx, "Red", "#FF0000"); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "copy.db")
	if err := c.Service.Backup(ctx, dest); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	copyDB, err := database.NewSQLiteDatabase(dest)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer copyDB.Close()
	labels, err := copyDB.GetAllLabels(ctx)
	if err != nil || len(labels) != 1 {
		t.Errorf("backup labels = %+v, %v", labels, err)
	}
}
