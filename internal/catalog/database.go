package catalog

import (
	"context"
	"time"
)

// Database provides the relational store behind the catalog.
// Multi-row mutations are applied in a single transaction.
type Database interface {
	// FsFile operations

	// AddFsFile records a raw filesystem path and returns its id.
	AddFsFile(ctx context.Context, path string) (ID, error)

	// GetFsFile returns the path of an FsFile, or "" when it does not exist.
	GetFsFile(ctx context.Context, id ID) (string, error)

	// File operations

	// AddFile inserts the FsFile, File, sidecar and keyword rows for a new
	// file in one transaction.
	AddFile(ctx context.Context, nf *NewFile) (*AddFileResult, error)

	// GetFile returns a file, or nil when it does not exist.
	GetFile(ctx context.Context, id ID) (*File, error)

	// MoveFileToFolder changes a file's folder and returns the previous one.
	// Returns ErrFolderNotFound or ErrFileNotFound when either side is missing.
	MoveFileToFolder(ctx context.Context, fileID, folderID ID) (ID, error)

	// Folder operations

	// AddFolder creates a folder.
	AddFolder(ctx context.Context, name, path string, parentID ID) (*Folder, error)

	// GetFolder returns a folder by id, or nil when it does not exist.
	GetFolder(ctx context.Context, id ID) (*Folder, error)

	// GetFolderByPath returns a folder with an exact path match, or nil.
	GetFolderByPath(ctx context.Context, path string) (*Folder, error)

	// GetAllFolders returns every folder ordered by id.
	GetAllFolders(ctx context.Context) ([]*Folder, error)

	// GetFolderContent returns the files of a folder.
	GetFolderContent(ctx context.Context, folderID ID) ([]*File, error)

	// CountFolder returns the number of files in a folder.
	CountFolder(ctx context.Context, folderID ID) (int, error)

	// DeleteFolder removes a folder; its files go with it.
	DeleteFolder(ctx context.Context, id ID) error

	// SetFolderExpanded stores the UI expansion state of a folder.
	SetFolderExpanded(ctx context.Context, id ID, expanded bool) error

	// Keyword operations

	// MakeKeyword returns the id of the keyword with exactly this text,
	// creating it when needed. created reports whether a row was inserted.
	MakeKeyword(ctx context.Context, text string) (id ID, created bool, err error)

	// AssignKeyword links a keyword to a file. Assigning an existing pair
	// is a no-op; added reports whether a row was inserted.
	AssignKeyword(ctx context.Context, keywordID, fileID ID) (added bool, err error)

	// UnassignAllKeywordsForFile removes every keyword of a file and
	// returns the ids that were unlinked.
	UnassignAllKeywordsForFile(ctx context.Context, fileID ID) ([]ID, error)

	// GetAllKeywords returns every keyword ordered by text.
	GetAllKeywords(ctx context.Context) ([]*Keyword, error)

	// GetKeywordContent returns the files a keyword is assigned to.
	GetKeywordContent(ctx context.Context, keywordID ID) ([]*File, error)

	// CountKeyword returns the number of files a keyword is assigned to.
	CountKeyword(ctx context.Context, keywordID ID) (int, error)

	// Metadata operations

	// GetMetadataRecord returns the stored XMP blob of a file with its
	// display fields, or nil when the file does not exist.
	GetMetadataRecord(ctx context.Context, fileID ID) (*MetadataRecord, error)

	// UpdateMetadata applies a metadata change in one transaction: the
	// mirrored column, the keyword links and the XMP blob.
	UpdateMetadata(ctx context.Context, u *MetadataUpdate) (*MetadataUpdateResult, error)

	// Label operations

	// GetAllLabels returns every label ordered by id.
	GetAllLabels(ctx context.Context) ([]*Label, error)

	// GetLabel returns a label, or nil when it does not exist.
	GetLabel(ctx context.Context, id ID) (*Label, error)

	// AddLabel creates a label and returns its id.
	AddLabel(ctx context.Context, name, color string) (ID, error)

	// UpdateLabel renames or recolours a label. Returns ErrLabelNotFound
	// when no row was changed.
	UpdateLabel(ctx context.Context, id ID, name, color string) error

	// DeleteLabel removes a label. Returns ErrLabelNotFound when no row was removed.
	DeleteLabel(ctx context.Context, id ID) error

	// RestoreLabel inserts a label under its previous id.
	RestoreLabel(ctx context.Context, l Label) error

	// Album operations

	// AddAlbum creates an album under parentID (0 for a root album).
	AddAlbum(ctx context.Context, name string, parentID ID) (*Album, error)

	// GetAlbum returns an album, or nil when it does not exist.
	GetAlbum(ctx context.Context, id ID) (*Album, error)

	// GetAllAlbums returns every album ordered by id.
	GetAllAlbums(ctx context.Context) ([]*Album, error)

	// RenameAlbum renames an album. Returns ErrAlbumNotFound when no row was changed.
	RenameAlbum(ctx context.Context, id ID, name string) error

	// DeleteAlbum removes an album and its file links. Returns
	// ErrAlbumNotFound when no row was removed.
	DeleteAlbum(ctx context.Context, id ID) error

	// AddToAlbum links files to an album in one transaction and returns the
	// ids that were not linked before. Returns ErrAlbumNotFound or
	// ErrFileNotFound when either side is missing.
	AddToAlbum(ctx context.Context, albumID ID, fileIDs []ID) ([]ID, error)

	// RemoveFromAlbum unlinks files from an album and returns the ids that
	// were linked.
	RemoveFromAlbum(ctx context.Context, albumID ID, fileIDs []ID) ([]ID, error)

	// GetAlbumContent returns the files of an album.
	GetAlbumContent(ctx context.Context, albumID ID) ([]*File, error)

	// CountAlbum returns the number of files in an album.
	CountAlbum(ctx context.Context, albumID ID) (int, error)

	// XMP queue operations

	// QueuedXmpIDs returns the ids of files waiting for a sidecar rewrite.
	QueuedXmpIDs(ctx context.Context) ([]ID, error)

	// DequeueXmp removes a file from the rewrite queue.
	DequeueXmp(ctx context.Context, fileID ID) error

	// EnqueueXmp adds a file to the rewrite queue; present ids are kept once.
	EnqueueXmp(ctx context.Context, fileID ID) error

	// GetXmpRecord returns what a sidecar rewrite needs, or nil when the
	// file does not exist.
	GetXmpRecord(ctx context.Context, fileID ID) (*XmpRecord, error)

	// LinkXmpSidecar registers path as the file's sidecar. write is called
	// inside the transaction; its failure rolls the link back.
	LinkXmpSidecar(ctx context.Context, fileID ID, path string, write func() error) error

	// Maintenance

	// Path returns the database file path ("" or ":memory:" when not file backed).
	Path() string

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(ctx context.Context, destPath string) error

	// Close closes the database connection.
	Close() error
}

// SidecarType classifies files attached to a main file.
type SidecarType int

const (
	SidecarLive      SidecarType = 1
	SidecarThumbnail SidecarType = 2
	SidecarXmp       SidecarType = 3
	SidecarJpeg      SidecarType = 4
)

// Sidecar is a companion file of a bundle.
type Sidecar struct {
	Type SidecarType
	Path string
}

// NewFile describes a file to insert.
type NewFile struct {
	FolderID    ID
	Path        string
	Name        string
	Type        FileType
	Orientation int
	Rating      int
	LabelID     ID
	Flag        int
	FileDate    time.Time
	ImportDate  time.Time
	Xmp         string
	Keywords    []string

	// XmpPath and JpegPath link companion files onto the File row.
	XmpPath  string
	JpegPath string
	// Sidecars are other companions, recorded in the sidecar registry.
	Sidecars []Sidecar
}

// AddFileResult reports the rows created by AddFile.
type AddFileResult struct {
	FileID          ID
	CreatedKeywords []Keyword
	// AssignedKeywords are the keyword ids linked to the new file.
	AssignedKeywords []ID
}

// MetadataRecord is the stored metadata of one file.
type MetadataRecord struct {
	FileID   ID
	Xmp      string
	Name     string
	Folder   string
	FileType FileType
	Sidecars []string
}

// MetadataUpdate is one metadata write.
type MetadataUpdate struct {
	FileID ID
	// Column, when set, is the mirrored files column receiving ColumnValue.
	Column      string
	ColumnValue int
	// ReplaceKeywords replaces the keyword links with Keywords.
	ReplaceKeywords bool
	Keywords        []string
	Xmp             string
}

// MetadataUpdateResult reports keyword changes made by UpdateMetadata.
type MetadataUpdateResult struct {
	CreatedKeywords []Keyword
	Unassigned      []ID
	Assigned        []ID
}

// XmpRecord is what the synchronizer reads to rewrite a sidecar.
type XmpRecord struct {
	FileID   ID
	Xmp      string
	MainPath string
	XmpFile  ID
	XmpPath  string
}
