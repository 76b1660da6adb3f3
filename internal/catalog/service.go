package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"photocat/internal/xmp"
)

// Service is the catalog store: every file, folder, keyword, label and
// metadata operation goes through it. Mutations are announced to the
// notifier after they are committed.
//
// Service is not safe for concurrent use. Callers run it on a single
// worker that owns the database connection.
type Service struct {
	db       Database
	schema   SchemaManager
	codec    MetadataCodec
	xsync    XmpSynchronizer
	notifier Notifier
	logger   Logger
	clock    Clock

	ready bool
}

// NewService creates a Service. It must be initialized with Init before use.
func NewService(db Database, schema SchemaManager, codec MetadataCodec, xsync XmpSynchronizer, notifier Notifier, logger Logger, clock Clock) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		db:       db,
		schema:   schema,
		codec:    codec,
		xsync:    xsync,
		notifier: notifier,
		logger:   logger,
		clock:    clock,
	}
}

// Init checks the schema and creates it when missing. A catalog with an
// older schema is usable and announces DatabaseNeedUpgrade. A corrupt
// version leaves the service uninitialized.
func (s *Service) Init(ctx context.Context) (SchemaStatus, error) {
	s.ready = false

	status, err := s.schema.Init(ctx)
	if err != nil {
		return status, s.failed("initializing catalog", err)
	}
	s.ready = true

	if status.Created {
		s.logger.Info("catalog created", "path", s.db.Path(), "version", status.Version)
		s.notifier.Post(NewLibraryCreated{})
	}
	switch {
	case status.NeedsUpgrade():
		s.logger.Warn("catalog needs upgrade", "version", status.Version, "current", status.Current)
		s.notifier.Post(DatabaseNeedUpgrade{Version: status.Version})
	case status.Version > status.Current:
		s.logger.Warn("catalog is newer than this build", "version", status.Version, "current", status.Current)
		s.notifier.Post(DatabaseReady{})
	default:
		s.notifier.Post(DatabaseReady{})
	}
	return status, nil
}

// Ready reports whether Init succeeded.
func (s *Service) Ready() bool { return s.ready }

// Upgrade migrates an older catalog to the current schema after backing
// it up. It is a no-op for a current catalog.
func (s *Service) Upgrade(ctx context.Context) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	check, err := s.schema.CheckVersion(ctx)
	if err != nil {
		return s.failed("checking schema version", err)
	}
	if check.State != VersionPresent {
		return s.failed("upgrading catalog", ErrCorruptVersion)
	}
	status, err := s.schema.Init(ctx)
	if err != nil {
		return s.failed("upgrading catalog", err)
	}
	if !status.NeedsUpgrade() {
		return nil
	}
	if err := s.schema.Upgrade(ctx, check.Version); err != nil {
		return s.failed("upgrading catalog", err, "from", check.Version)
	}
	s.logger.Info("catalog upgraded", "from", check.Version, "to", status.Current)
	s.notifier.Post(DatabaseReady{})
	return nil
}

// AddFsFile records a filesystem path.
func (s *Service) AddFsFile(ctx context.Context, path string) (ID, error) {
	if err := s.checkReady(); err != nil {
		return InvalidID, err
	}
	if path == "" {
		return InvalidID, &ValidationError{Field: "path", Message: "must not be empty"}
	}
	id, err := s.db.AddFsFile(ctx, path)
	if err != nil {
		return InvalidID, s.failed("adding fsfile", err, "path", path)
	}
	return id, nil
}

// GetFsFile returns the path of an FsFile, or "" when it is unknown.
func (s *Service) GetFsFile(ctx context.Context, id ID) (string, error) {
	if err := s.checkReady(); err != nil {
		return "", err
	}
	p, err := s.db.GetFsFile(ctx, id)
	if err != nil {
		return "", s.failed("getting fsfile", err, "id", id)
	}
	if p == "" {
		s.logger.Debug("fsfile not found", "id", id)
	}
	return p, nil
}

// AddFile imports one image into a folder. Its metadata is read from the
// file (or its sidecar) and its keywords are created and assigned. Nothing
// is stored when metadata extraction fails.
func (s *Service) AddFile(ctx context.Context, folderID ID, path string, managed Managed) (ID, error) {
	return s.addFile(ctx, folderID, &FileBundle{Type: FileTypeForPath(path), Main: path}, managed)
}

// AddBundle imports a bundle. The XMP sidecar and the JPEG companion are
// linked onto the file row; a JPEG companion makes the file RAW + JPEG.
func (s *Service) AddBundle(ctx context.Context, folderID ID, b *FileBundle, managed Managed) (ID, error) {
	if b == nil || b.Main == "" {
		return InvalidID, &ValidationError{Field: "bundle", Message: "bundle has no main file"}
	}
	return s.addFile(ctx, folderID, b, managed)
}

func (s *Service) addFile(ctx context.Context, folderID ID, b *FileBundle, managed Managed) (ID, error) {
	if err := s.checkReady(); err != nil {
		return InvalidID, err
	}
	if !folderID.Valid() {
		return InvalidID, &ValidationError{Field: "folder_id", Message: fmt.Sprintf("invalid folder id %d", folderID)}
	}
	if managed != ManagedNo {
		return InvalidID, fmt.Errorf("managed import: %w", ErrUnsupported)
	}

	ftype := b.Type
	source, raw := b.Main, ftype == FileTypeRaw || ftype == FileTypeRawJpeg
	if b.Jpeg != "" {
		// A RAW file carries little metadata: the JPEG companion is read instead.
		ftype = FileTypeRawJpeg
		source, raw = b.Jpeg, false
	}

	packet, err := s.codec.ExtractFromFile(source, raw)
	if err != nil {
		return InvalidID, s.failed("extracting metadata", err, "path", source)
	}
	if kws := packet.Keywords(); len(kws) > 0 {
		packet.SetKeywords(NormalizeKeywords(kws))
	}
	blob, err := s.codec.Encode(packet)
	if err != nil {
		return InvalidID, s.failed("encoding metadata", err, "path", b.Main)
	}

	nf := s.newFileFromPacket(packet)
	nf.FolderID = folderID
	nf.Path = b.Main
	nf.Name = filepath.Base(b.Main)
	nf.Type = ftype
	nf.ImportDate = s.clock.Now()
	nf.Xmp = blob
	nf.XmpPath = b.XmpSidecar
	nf.JpegPath = b.Jpeg
	nf.Sidecars = b.Sidecars

	res, err := s.db.AddFile(ctx, nf)
	if err != nil {
		return InvalidID, s.failed("adding file", err, "path", b.Main, "folder", folderID)
	}
	s.logger.Debug("file added", "id", res.FileID, "path", b.Main, "type", ftype)

	for _, k := range res.CreatedKeywords {
		s.notifier.Post(AddedKeyword{Keyword: k})
	}
	for _, kid := range res.AssignedKeywords {
		s.notifier.Post(KeywordCountChanged{Count: Count{ID: kid, Count: 1}})
	}
	s.notifier.Post(AddedFile{FileID: res.FileID, FolderID: folderID})
	s.notifier.Post(FolderCountChanged{Count: Count{ID: folderID, Count: 1}})
	return res.FileID, nil
}

func (s *Service) newFileFromPacket(p *xmp.Packet) *NewFile {
	nf := &NewFile{Keywords: p.Keywords()}
	if v, ok := p.Rating(); ok {
		nf.Rating = v
	}
	if v, ok := p.Orientation(); ok {
		nf.Orientation = v
	}
	if v, ok := p.Flag(); ok {
		nf.Flag = v
	}
	if v, ok := p.Label(); ok {
		if id, err := strconv.Atoi(v); err == nil {
			nf.LabelID = ID(id)
		} else {
			s.logger.Debug("label is not a label id, not mirrored", "label", v)
		}
	}
	if t, ok := p.CreationDate(); ok {
		nf.FileDate = t
	}
	return nf
}

// GetFile returns a file, or nil when it does not exist.
func (s *Service) GetFile(ctx context.Context, id ID) (*File, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	f, err := s.db.GetFile(ctx, id)
	if err != nil {
		return nil, s.failed("getting file", err, "id", id)
	}
	if f == nil {
		s.logger.Debug("file not found", "id", id)
	}
	return f, nil
}

// AddFolder creates a root folder named after the last element of path.
func (s *Service) AddFolder(ctx context.Context, path string) (*Folder, error) {
	return s.AddFolderWithParent(ctx, filepath.Base(path), path, 0)
}

// AddFolderWithParent creates a folder under parentID (0 for a root folder).
func (s *Service) AddFolderWithParent(ctx context.Context, name, path string, parentID ID) (*Folder, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	if path == "" || name == "" {
		return nil, &ValidationError{Field: "path", Message: "folder path and name must not be empty"}
	}
	if parentID != 0 {
		parent, err := s.db.GetFolder(ctx, parentID)
		if err != nil {
			return nil, s.failed("getting parent folder", err, "id", parentID)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent %d: %w", parentID, ErrFolderNotFound)
		}
	}

	f, err := s.db.AddFolder(ctx, name, path, parentID)
	if err != nil {
		return nil, s.failed("adding folder", err, "path", path)
	}
	s.logger.Debug("folder added", "id", f.ID, "path", path)
	s.notifier.Post(AddedFolder{Folder: *f})
	return f, nil
}

// GetFolder returns the folder with exactly this path, or nil.
func (s *Service) GetFolder(ctx context.Context, path string) (*Folder, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	f, err := s.db.GetFolderByPath(ctx, path)
	if err != nil {
		return nil, s.failed("getting folder", err, "path", path)
	}
	if f == nil {
		s.logger.Debug("folder not found", "path", path)
	}
	return f, nil
}

// GetFolderByID returns a folder, or nil.
func (s *Service) GetFolderByID(ctx context.Context, id ID) (*Folder, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	f, err := s.db.GetFolder(ctx, id)
	if err != nil {
		return nil, s.failed("getting folder", err, "id", id)
	}
	if f == nil {
		s.logger.Debug("folder not found", "id", id)
	}
	return f, nil
}

// GetAllFolders returns every folder, the trash included.
func (s *Service) GetAllFolders(ctx context.Context) ([]*Folder, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	folders, err := s.db.GetAllFolders(ctx)
	if err != nil {
		return nil, s.failed("listing folders", err)
	}
	return folders, nil
}

// GetFolderContent returns the files of a folder.
func (s *Service) GetFolderContent(ctx context.Context, folderID ID) ([]*File, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	files, err := s.db.GetFolderContent(ctx, folderID)
	if err != nil {
		return nil, s.failed("getting folder content", err, "folder", folderID)
	}
	s.notifier.Post(FolderContentQueried{FolderID: folderID, Files: files})
	return files, nil
}

// CountFolder returns the number of files in a folder, or -1 on error.
func (s *Service) CountFolder(ctx context.Context, folderID ID) (int, error) {
	if err := s.checkReady(); err != nil {
		return -1, err
	}
	n, err := s.db.CountFolder(ctx, folderID)
	if err != nil {
		return -1, s.failed("counting folder", err, "folder", folderID)
	}
	s.notifier.Post(FolderCounted{Count: Count{ID: folderID, Count: n}})
	return n, nil
}

// DeleteFolder removes a folder and the files it holds. The trash folder
// cannot be deleted.
func (s *Service) DeleteFolder(ctx context.Context, id ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	f, err := s.db.GetFolder(ctx, id)
	if err != nil {
		return s.failed("getting folder", err, "id", id)
	}
	if f == nil {
		return fmt.Errorf("folder %d: %w", id, ErrFolderNotFound)
	}
	if f.IsTrash() {
		return &ValidationError{Field: "folder_id", Message: "the trash folder cannot be deleted"}
	}
	if err := s.db.DeleteFolder(ctx, id); err != nil {
		return s.failed("deleting folder", err, "id", id)
	}
	s.logger.Info("folder deleted", "id", id, "path", f.Path)
	s.notifier.Post(FolderDeleted{ID: id})
	return nil
}

// SetFolderExpanded stores the expansion state of a folder.
func (s *Service) SetFolderExpanded(ctx context.Context, id ID, expanded bool) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.db.SetFolderExpanded(ctx, id, expanded); err != nil {
		return s.failed("setting folder expanded", err, "id", id)
	}
	return nil
}

// MakeKeyword returns the id of keyword text, creating it when needed.
func (s *Service) MakeKeyword(ctx context.Context, text string) (ID, error) {
	if err := s.checkReady(); err != nil {
		return InvalidID, err
	}
	text = NormalizeKeyword(text)
	if text == "" {
		return InvalidID, &ValidationError{Field: "keyword", Message: "must not be empty"}
	}
	id, created, err := s.db.MakeKeyword(ctx, text)
	if err != nil {
		return InvalidID, s.failed("making keyword", err, "keyword", text)
	}
	if created {
		s.notifier.Post(AddedKeyword{Keyword: Keyword{ID: id, Keyword: text}})
	}
	return id, nil
}

// AssignKeyword links a keyword to a file. Assigning twice is a no-op.
func (s *Service) AssignKeyword(ctx context.Context, keywordID, fileID ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if !keywordID.Valid() || !fileID.Valid() {
		return fmt.Errorf("assigning keyword %d to file %d: %w", keywordID, fileID, ErrInvalidID)
	}
	added, err := s.db.AssignKeyword(ctx, keywordID, fileID)
	if err != nil {
		return s.failed("assigning keyword", err, "keyword", keywordID, "file", fileID)
	}
	if added {
		s.notifier.Post(KeywordCountChanged{Count: Count{ID: keywordID, Count: 1}})
	}
	return nil
}

// UnassignAllKeywordsForFile removes every keyword of a file.
func (s *Service) UnassignAllKeywordsForFile(ctx context.Context, fileID ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	removed, err := s.db.UnassignAllKeywordsForFile(ctx, fileID)
	if err != nil {
		return s.failed("unassigning keywords", err, "file", fileID)
	}
	for _, kid := range removed {
		s.notifier.Post(KeywordCountChanged{Count: Count{ID: kid, Count: -1}})
	}
	return nil
}

// GetAllKeywords returns every keyword ordered by text.
func (s *Service) GetAllKeywords(ctx context.Context) ([]*Keyword, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	keywords, err := s.db.GetAllKeywords(ctx)
	if err != nil {
		return nil, s.failed("listing keywords", err)
	}
	return keywords, nil
}

// GetKeywordContent returns the files a keyword is assigned to.
func (s *Service) GetKeywordContent(ctx context.Context, keywordID ID) ([]*File, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	files, err := s.db.GetKeywordContent(ctx, keywordID)
	if err != nil {
		return nil, s.failed("getting keyword content", err, "keyword", keywordID)
	}
	s.notifier.Post(KeywordContentQueried{KeywordID: keywordID, Files: files})
	return files, nil
}

// CountKeyword returns the number of files a keyword is assigned to, or -1 on error.
func (s *Service) CountKeyword(ctx context.Context, keywordID ID) (int, error) {
	if err := s.checkReady(); err != nil {
		return -1, err
	}
	n, err := s.db.CountKeyword(ctx, keywordID)
	if err != nil {
		return -1, s.failed("counting keyword", err, "keyword", keywordID)
	}
	s.notifier.Post(KeywordCounted{Count: Count{ID: keywordID, Count: n}})
	return n, nil
}

// GetMetadata loads the metadata of a file, or nil when it does not exist.
func (s *Service) GetMetadata(ctx context.Context, fileID ID) (*Metadata, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	meta, err := s.loadMetadata(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		s.logger.Debug("file not found", "id", fileID)
		return nil, nil
	}
	s.notifier.Post(MetadataQueried{Metadata: meta.Clone()})
	return meta, nil
}

func (s *Service) loadMetadata(ctx context.Context, fileID ID) (*Metadata, error) {
	rec, err := s.db.GetMetadataRecord(ctx, fileID)
	if err != nil {
		return nil, s.failed("getting metadata", err, "file", fileID)
	}
	if rec == nil {
		return nil, nil
	}
	packet, err := s.codec.Decode(rec.Xmp)
	if err != nil {
		return nil, s.failed("decoding metadata", err, "file", fileID)
	}
	meta := NewMetadata(fileID, packet)
	meta.Name = rec.Name
	meta.Folder = rec.Folder
	meta.FileType = rec.FileType
	meta.Sidecars = rec.Sidecars
	return meta, nil
}

// SetMetadata changes one property of a file. Rating, label, orientation
// and flag are mirrored into their columns and keywords into the keyword
// links, in the same transaction as the XMP blob.
func (s *Service) SetMetadata(ctx context.Context, fileID ID, idx PropertyIndex, v PropertyValue) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	u := &MetadataUpdate{FileID: fileID}
	if col, ok := idx.Column(); ok {
		i, isInt := v.Int()
		if !isInt && !v.IsEmpty() {
			return &ValidationError{Field: idx.String(), Message: "value must be an integer"}
		}
		u.Column = col
		u.ColumnValue = i
	}
	if idx == PropKeywords {
		kws, isArray := v.Strings()
		if !isArray && !v.IsEmpty() {
			return &ValidationError{Field: idx.String(), Message: "value must be a string list"}
		}
		kws = NormalizeKeywords(kws)
		if len(kws) == 0 {
			v = EmptyValue()
		} else {
			v = StringArrayValue(kws)
		}
		u.ReplaceKeywords = true
		u.Keywords = kws
	}

	meta, err := s.loadMetadata(ctx, fileID)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("file %d: %w", fileID, ErrFileNotFound)
	}
	if err := meta.Set(idx, v); err != nil {
		return err
	}
	meta.Touch(s.clock.Now())
	if u.Xmp, err = s.codec.Encode(meta.Packet()); err != nil {
		return s.failed("encoding metadata", err, "file", fileID)
	}

	res, err := s.db.UpdateMetadata(ctx, u)
	if err != nil {
		return s.failed("setting metadata", err, "file", fileID, "property", idx)
	}

	for _, k := range res.CreatedKeywords {
		s.notifier.Post(AddedKeyword{Keyword: k})
	}
	for _, kid := range res.Unassigned {
		s.notifier.Post(KeywordCountChanged{Count: Count{ID: kid, Count: -1}})
	}
	for _, kid := range res.Assigned {
		s.notifier.Post(KeywordCountChanged{Count: Count{ID: kid, Count: 1}})
	}
	s.notifier.Post(MetadataChanged{FileID: fileID, Property: idx, Value: v})
	s.notifier.Post(XmpNeedsUpdate{})
	return nil
}

// MoveFileToFolder moves a file to an existing folder.
func (s *Service) MoveFileToFolder(ctx context.Context, fileID, folderID ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if !fileID.Valid() || !folderID.Valid() {
		return fmt.Errorf("moving file %d to folder %d: %w", fileID, folderID, ErrInvalidID)
	}
	from, err := s.db.MoveFileToFolder(ctx, fileID, folderID)
	if err != nil {
		return s.failed("moving file", err, "file", fileID, "folder", folderID)
	}
	if from == folderID {
		return nil
	}
	s.notifier.Post(FileMoved{FileID: fileID, From: from, To: folderID})
	s.notifier.Post(FolderCountChanged{Count: Count{ID: from, Count: -1}})
	s.notifier.Post(FolderCountChanged{Count: Count{ID: folderID, Count: 1}})
	return nil
}

// GetAllLabels returns every label and announces them.
func (s *Service) GetAllLabels(ctx context.Context) ([]*Label, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	labels, err := s.db.GetAllLabels(ctx)
	if err != nil {
		return nil, s.failed("listing labels", err)
	}
	if len(labels) > 0 {
		out := make([]Label, 0, len(labels))
		for _, l := range labels {
			out = append(out, *l)
		}
		s.notifier.Post(AddedLabels{Labels: out})
	}
	return labels, nil
}

// GetLabel returns a label, or nil.
func (s *Service) GetLabel(ctx context.Context, id ID) (*Label, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	l, err := s.db.GetLabel(ctx, id)
	if err != nil {
		return nil, s.failed("getting label", err, "id", id)
	}
	return l, nil
}

// AddLabel creates a label.
func (s *Service) AddLabel(ctx context.Context, name, color string) (ID, error) {
	if err := s.checkReady(); err != nil {
		return InvalidID, err
	}
	if name == "" {
		return InvalidID, &ValidationError{Field: "name", Message: "label name must not be empty"}
	}
	id, err := s.db.AddLabel(ctx, name, color)
	if err != nil {
		return InvalidID, s.failed("adding label", err, "name", name)
	}
	s.notifier.Post(AddedLabels{Labels: []Label{{ID: id, Name: name, Color: color}}})
	return id, nil
}

// RestoreLabel puts a deleted label back under its old id.
func (s *Service) RestoreLabel(ctx context.Context, l Label) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if !l.ID.Valid() {
		return fmt.Errorf("restoring label: %w", ErrInvalidID)
	}
	if err := s.db.RestoreLabel(ctx, l); err != nil {
		return s.failed("restoring label", err, "id", l.ID)
	}
	s.notifier.Post(AddedLabels{Labels: []Label{l}})
	return nil
}

// UpdateLabel changes the name and colour of a label.
func (s *Service) UpdateLabel(ctx context.Context, id ID, name, color string) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if name == "" {
		return &ValidationError{Field: "name", Message: "label name must not be empty"}
	}
	if err := s.db.UpdateLabel(ctx, id, name, color); err != nil {
		return s.failed("updating label", err, "id", id)
	}
	s.notifier.Post(LabelChanged{Label: Label{ID: id, Name: name, Color: color}})
	return nil
}

// DeleteLabel removes a label.
func (s *Service) DeleteLabel(ctx context.Context, id ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.db.DeleteLabel(ctx, id); err != nil {
		return s.failed("deleting label", err, "id", id)
	}
	s.notifier.Post(LabelDeleted{ID: id})
	return nil
}

// WriteMetadata rewrites the sidecar of one file now.
func (s *Service) WriteMetadata(ctx context.Context, fileID ID) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.xsync.RewriteForID(ctx, fileID, true); err != nil {
		return s.failed("writing metadata", err, "file", fileID)
	}
	return nil
}

// ProcessXmpUpdateQueue drains the sidecar rewrite queue. With write
// false the pending rewrites are discarded.
func (s *Service) ProcessXmpUpdateQueue(ctx context.Context, write bool) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.xsync.ProcessQueue(ctx, write); err != nil {
		return s.failed("processing xmp queue", err, "write", write)
	}
	return nil
}

// QueuedXmpIDs returns the files waiting for a sidecar rewrite.
func (s *Service) QueuedXmpIDs(ctx context.Context) ([]ID, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	ids, err := s.xsync.QueuedIDs(ctx)
	if err != nil {
		return nil, s.failed("reading xmp queue", err)
	}
	return ids, nil
}

// Backup writes a consistent copy of the catalog database to destPath.
func (s *Service) Backup(ctx context.Context, destPath string) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.db.BackupTo(ctx, destPath); err != nil {
		return s.failed("backing up catalog", err, "dest", destPath)
	}
	return nil
}

func (s *Service) checkReady() error {
	if !s.ready {
		return ErrNotInitialized
	}
	return nil
}

// failed logs err and wraps it with op.
func (s *Service) failed(op string, err error, args ...any) error {
	s.logger.Error(op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}
