package catalog

// NotificationKind tags a Notification.
type NotificationKind int

const (
	KindNewLibraryCreated NotificationKind = iota + 1
	KindDatabaseReady
	KindDatabaseNeedUpgrade
	KindAddedFolder
	KindFolderDeleted
	KindFolderCounted
	KindFolderCountChanged
	KindFolderContentQueried
	KindAddedFile
	KindFileMoved
	KindAddedKeyword
	KindKeywordCounted
	KindKeywordCountChanged
	KindKeywordContentQueried
	KindAddedLabels
	KindLabelChanged
	KindLabelDeleted
	KindMetadataQueried
	KindMetadataChanged
	KindXmpNeedsUpdate
	KindAddedAlbum
	KindAlbumRenamed
	KindAlbumDeleted
	KindAddedToAlbum
	KindRemovedFromAlbum
	KindAlbumCounted
	KindAlbumCountChanged
	KindAlbumContentQueried
)

var kindNames = map[NotificationKind]string{
	KindNewLibraryCreated:     "NewLibraryCreated",
	KindDatabaseReady:         "DatabaseReady",
	KindDatabaseNeedUpgrade:   "DatabaseNeedUpgrade",
	KindAddedFolder:           "AddedFolder",
	KindFolderDeleted:         "FolderDeleted",
	KindFolderCounted:         "FolderCounted",
	KindFolderCountChanged:    "FolderCountChanged",
	KindFolderContentQueried:  "FolderContentQueried",
	KindAddedFile:             "AddedFile",
	KindFileMoved:             "FileMoved",
	KindAddedKeyword:          "AddedKeyword",
	KindKeywordCounted:        "KeywordCounted",
	KindKeywordCountChanged:   "KeywordCountChanged",
	KindKeywordContentQueried: "KeywordContentQueried",
	KindAddedLabels:           "AddedLabels",
	KindLabelChanged:          "LabelChanged",
	KindLabelDeleted:          "LabelDeleted",
	KindMetadataQueried:       "MetadataQueried",
	KindMetadataChanged:       "MetadataChanged",
	KindXmpNeedsUpdate:        "XmpNeedsUpdate",
	KindAddedAlbum:            "AddedAlbum",
	KindAlbumRenamed:          "AlbumRenamed",
	KindAlbumDeleted:          "AlbumDeleted",
	KindAddedToAlbum:          "AddedToAlbum",
	KindRemovedFromAlbum:      "RemovedFromAlbum",
	KindAlbumCounted:          "AlbumCounted",
	KindAlbumCountChanged:     "AlbumCountChanged",
	KindAlbumContentQueried:   "AlbumContentQueried",
}

func (k NotificationKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Notification is an event published by the catalog. Each concrete type
// below is one variant; Kind identifies it without a type switch.
type Notification interface {
	Kind() NotificationKind
}

// Notifier receives notifications from the catalog.
type Notifier interface {
	Post(n Notification)
}

type NewLibraryCreated struct{}

type DatabaseReady struct{}

type DatabaseNeedUpgrade struct{ Version int }

type AddedFolder struct{ Folder Folder }

type FolderDeleted struct{ ID ID }

type FolderCounted struct{ Count Count }

// FolderCountChanged carries a delta, not a total.
type FolderCountChanged struct{ Count Count }

type FolderContentQueried struct {
	FolderID ID
	Files    []*File
}

type AddedFile struct {
	FileID   ID
	FolderID ID
}

type FileMoved struct {
	FileID ID
	From   ID
	To     ID
}

type AddedKeyword struct{ Keyword Keyword }

type KeywordCounted struct{ Count Count }

// KeywordCountChanged carries a delta, not a total.
type KeywordCountChanged struct{ Count Count }

type KeywordContentQueried struct {
	KeywordID ID
	Files     []*File
}

type AddedLabels struct{ Labels []Label }

type LabelChanged struct{ Label Label }

type LabelDeleted struct{ ID ID }

type MetadataQueried struct{ Metadata *Metadata }

type MetadataChanged struct {
	FileID   ID
	Property PropertyIndex
	Value    PropertyValue
}

type XmpNeedsUpdate struct{}

type AddedAlbum struct{ Album Album }

type AlbumRenamed struct{ Album Album }

type AlbumDeleted struct{ ID ID }

// AddedToAlbum lists the files newly linked to the album.
type AddedToAlbum struct {
	AlbumID ID
	FileIDs []ID
}

// RemovedFromAlbum lists the files whose link was removed.
type RemovedFromAlbum struct {
	AlbumID ID
	FileIDs []ID
}

type AlbumCounted struct{ Count Count }

// AlbumCountChanged carries a delta, not a total.
type AlbumCountChanged struct{ Count Count }

type AlbumContentQueried struct {
	AlbumID ID
	Files   []*File
}

func (NewLibraryCreated) Kind() NotificationKind     { return KindNewLibraryCreated }
func (DatabaseReady) Kind() NotificationKind         { return KindDatabaseReady }
func (DatabaseNeedUpgrade) Kind() NotificationKind   { return KindDatabaseNeedUpgrade }
func (AddedFolder) Kind() NotificationKind           { return KindAddedFolder }
func (FolderDeleted) Kind() NotificationKind         { return KindFolderDeleted }
func (FolderCounted) Kind() NotificationKind         { return KindFolderCounted }
func (FolderCountChanged) Kind() NotificationKind    { return KindFolderCountChanged }
func (FolderContentQueried) Kind() NotificationKind  { return KindFolderContentQueried }
func (AddedFile) Kind() NotificationKind             { return KindAddedFile }
func (FileMoved) Kind() NotificationKind             { return KindFileMoved }
func (AddedKeyword) Kind() NotificationKind          { return KindAddedKeyword }
func (KeywordCounted) Kind() NotificationKind        { return KindKeywordCounted }
func (KeywordCountChanged) Kind() NotificationKind   { return KindKeywordCountChanged }
func (KeywordContentQueried) Kind() NotificationKind { return KindKeywordContentQueried }
func (AddedLabels) Kind() NotificationKind           { return KindAddedLabels }
func (LabelChanged) Kind() NotificationKind          { return KindLabelChanged }
func (LabelDeleted) Kind() NotificationKind          { return KindLabelDeleted }
func (MetadataQueried) Kind() NotificationKind       { return KindMetadataQueried }
func (MetadataChanged) Kind() NotificationKind       { return KindMetadataChanged }
func (XmpNeedsUpdate) Kind() NotificationKind        { return KindXmpNeedsUpdate }
func (AddedAlbum) Kind() NotificationKind            { return KindAddedAlbum }
func (AlbumRenamed) Kind() NotificationKind          { return KindAlbumRenamed }
func (AlbumDeleted) Kind() NotificationKind          { return KindAlbumDeleted }
func (AddedToAlbum) Kind() NotificationKind          { return KindAddedToAlbum }
func (RemovedFromAlbum) Kind() NotificationKind      { return KindRemovedFromAlbum }
func (AlbumCounted) Kind() NotificationKind          { return KindAlbumCounted }
func (AlbumCountChanged) Kind() NotificationKind     { return KindAlbumCountChanged }
func (AlbumContentQueried) Kind() NotificationKind   { return KindAlbumContentQueried }

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Post(Notification) {}
