package catalog

import (
	"path/filepath"
	"slices"
	"strings"
)

// FileBundle groups an image with its companions: a raw file with its
// processed JPEG, an XMP sidecar, a live video or a thumbnail.
type FileBundle struct {
	Type       FileType
	Main       string
	XmpSidecar string
	Jpeg       string
	Sidecars   []Sidecar
}

// Add places path into the bundle according to its media type. It reports
// false for files that have no place in a bundle.
func (b *FileBundle) Add(path string) bool {
	switch classify(path) {
	case mediaRaw:
		if b.Main != "" && b.Jpeg == "" {
			b.Jpeg = b.Main
			b.Type = FileTypeRawJpeg
		} else {
			b.Type = FileTypeRaw
		}
		b.Main = path
	case mediaImage:
		if b.Main != "" {
			b.Jpeg = path
			b.Type = FileTypeRawJpeg
		} else {
			b.Main = path
			b.Type = FileTypeImage
		}
	case mediaXmp:
		b.XmpSidecar = path
	case mediaVideo:
		switch b.Type {
		case FileTypeUnknown:
			b.Main = path
			b.Type = FileTypeVideo
		case FileTypeImage:
			b.Sidecars = append(b.Sidecars, Sidecar{Type: SidecarLive, Path: path})
		default:
			return false
		}
	case mediaThumbnail:
		b.Sidecars = append(b.Sidecars, Sidecar{Type: SidecarThumbnail, Path: path})
	default:
		return false
	}
	return true
}

// FilterBundles groups paths sharing a base name into bundles. Files that
// fit no bundle, and bundles without a main file, are dropped.
func FilterBundles(paths []string) []*FileBundle {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	var bundles []*FileBundle
	var current *FileBundle
	currentBase := ""

	for _, p := range sorted {
		base := stem(p)
		for base != currentBase {
			next := stem(base)
			if next == base {
				break
			}
			base = next
		}
		if current != nil && base == currentBase {
			current.Add(p)
			continue
		}
		if current != nil {
			bundles = append(bundles, current)
		}
		b := &FileBundle{}
		if b.Add(p) {
			current, currentBase = b, base
		} else {
			current, currentBase = nil, ""
		}
	}
	if current != nil {
		bundles = append(bundles, current)
	}

	return slices.DeleteFunc(bundles, func(b *FileBundle) bool { return b.Main == "" })
}

func stem(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p))
}
