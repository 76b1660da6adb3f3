package catalog

import (
	"mime"
	"path/filepath"
	"strings"
)

var rawExtensions = map[string]bool{
	".3fr": true, ".arw": true, ".cr2": true, ".cr3": true, ".crw": true,
	".dcr": true, ".dng": true, ".erf": true, ".iiq": true, ".kdc": true,
	".mef": true, ".mos": true, ".mrw": true, ".nef": true, ".nrw": true,
	".orf": true, ".pef": true, ".raf": true, ".raw": true, ".rw2": true,
	".rwl": true, ".sr2": true, ".srf": true, ".srw": true, ".x3f": true,
}

var videoExtensions = map[string]bool{
	".avi": true, ".m4v": true, ".mkv": true, ".mov": true, ".mp4": true,
	".mts": true, ".mpg": true, ".webm": true,
}

// mediaKind is the coarse classification used for bundling.
type mediaKind int

const (
	mediaOther mediaKind = iota
	mediaRaw
	mediaImage
	mediaVideo
	mediaXmp
	mediaThumbnail
)

func classify(path string) mediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".xmp":
		return mediaXmp
	case ext == ".thm":
		return mediaThumbnail
	case rawExtensions[ext]:
		return mediaRaw
	case videoExtensions[ext]:
		return mediaVideo
	}
	mt := mime.TypeByExtension(ext)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return mediaImage
	case strings.HasPrefix(mt, "video/"):
		return mediaVideo
	}
	return mediaOther
}

// FileTypeForPath guesses the file type from the file name.
func FileTypeForPath(path string) FileType {
	switch classify(path) {
	case mediaRaw:
		return FileTypeRaw
	case mediaImage:
		return FileTypeImage
	case mediaVideo:
		return FileTypeVideo
	}
	return FileTypeUnknown
}
