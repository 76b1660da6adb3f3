package catalog

import "time"

// ID identifies a row in the catalog. Values <= 0 never identify an entity.
type ID int64

// InvalidID is the "none" identifier.
const InvalidID ID = -1

// Valid reports whether id can refer to an entity.
func (id ID) Valid() bool { return id > 0 }

// FolderVirtualType distinguishes real folders from virtual ones.
type FolderVirtualType int

const (
	FolderVirtualNone  FolderVirtualType = 0
	FolderVirtualTrash FolderVirtualType = 1
)

// TrashFolderName is the name of the folder created with every catalog.
const TrashFolderName = "Trash"

// Folder is a node of the folder tree. Root folders have ParentID 0.
type Folder struct {
	ID          ID
	Path        string
	Name        string
	VaultID     ID
	Locked      bool
	VirtualType FolderVirtualType
	Expanded    bool
	ParentID    ID
}

// IsTrash reports whether f is the catalog's trash folder.
func (f *Folder) IsTrash() bool { return f.VirtualType == FolderVirtualTrash }

// FsFile is a raw filesystem path known to the catalog.
type FsFile struct {
	ID   ID
	Path string
}

// FileType classifies an image file.
type FileType int

const (
	FileTypeUnknown FileType = 0
	FileTypeRaw     FileType = 1
	FileTypeRawJpeg FileType = 2
	FileTypeImage   FileType = 3
	FileTypeVideo   FileType = 4
)

func (t FileType) String() string {
	switch t {
	case FileTypeRaw:
		return "RAW"
	case FileTypeRawJpeg:
		return "RAW + JPEG"
	case FileTypeImage:
		return "Image"
	case FileTypeVideo:
		return "Video"
	default:
		return "Unknown"
	}
}

// Flag values.
const (
	FlagRejected = -1
	FlagNone     = 0
	FlagPicked   = 1
)

// File is a logical image in the catalog. MainFile, XmpFile and JpegFile
// reference FsFile rows; XmpFile and JpegFile are 0 when absent.
type File struct {
	ID          ID
	MainFile    ID
	Path        string
	Name        string
	FolderID    ID
	Orientation int
	Type        FileType
	FileDate    time.Time
	Rating      int
	LabelID     ID
	Flag        int
	ImportDate  time.Time
	ModDate     time.Time
	XmpDate     time.Time
	XmpFile     ID
	JpegFile    ID
}

// Keyword is a tag that can be assigned to files.
type Keyword struct {
	ID       ID
	Keyword  string
	ParentID ID
}

// Label is a named colour preset.
type Label struct {
	ID    ID
	Name  string
	Color string
}

// Album is a user collection of files. Root albums have ParentID 0.
type Album struct {
	ID       ID
	Name     string
	ParentID ID
}

// Count is a per-entity count carried by counting notifications.
type Count struct {
	ID    ID
	Count int
}

// Managed selects whether an import copies files into catalog ownership.
type Managed int

const (
	ManagedNo Managed = iota
	ManagedYes
)
