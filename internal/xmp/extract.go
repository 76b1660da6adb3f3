package xmp

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

var packetMarkers = []struct{ open, close string }{
	{"<x:xmpmeta", "</x:xmpmeta>"},
	{"<rdf:RDF", "</rdf:RDF>"},
}

// ExtractFromFile builds a packet for an image file. It uses, in order of
// preference, a sidecar next to the file (preferred for raw files) or the
// packet embedded in the file, then fills orientation, creation date and
// camera fields from EXIF when the packet lacks them.
//
// A file that is missing or unreadable is treated as having no embedded
// metadata, so it yields its sidecar or an empty packet. Metadata that is
// present but malformed is an error.
func ExtractFromFile(path string, raw bool) (*Packet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		data = nil
	}

	var p *Packet
	sidecar, err := readSidecar(path)
	if err != nil {
		return nil, err
	}
	embedded, err := parseEmbedded(data)
	if err != nil {
		return nil, fmt.Errorf("embedded packet in %s: %w", path, err)
	}

	switch {
	case raw && sidecar != nil:
		p = sidecar
	case embedded != nil:
		p = embedded
	case sidecar != nil:
		p = sidecar
	default:
		p = New()
	}

	mergeExif(p, data)
	return p, nil
}

// SidecarPath returns the conventional sidecar path for an image: the image
// path with its extension replaced by .xmp.
func SidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".xmp"
}

func readSidecar(path string) (*Packet, error) {
	sp := SidecarPath(path)
	if sp == path {
		return nil, nil
	}
	data, err := os.ReadFile(sp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sidecar %s: %w", sp, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("sidecar %s: %w", sp, err)
	}
	return p, nil
}

func parseEmbedded(data []byte) (*Packet, error) {
	for _, m := range packetMarkers {
		start := bytes.Index(data, []byte(m.open))
		if start < 0 {
			continue
		}
		end := bytes.Index(data[start:], []byte(m.close))
		if end < 0 {
			continue
		}
		return Parse(data[start : start+end+len(m.close)])
	}
	return nil, nil
}

func mergeExif(p *Packet, data []byte) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	if _, ok := p.Orientation(); !ok {
		if tag, err := x.Get(exif.Orientation); err == nil {
			if v, err := tag.Int(0); err == nil {
				p.SetInt(NSTIFF, "Orientation", v)
			}
		}
	}
	if _, ok := p.CreationDate(); !ok {
		if t, err := x.DateTime(); err == nil {
			p.SetDate(NSEXIF, "DateTimeOriginal", t)
		}
	}
	for _, f := range []struct {
		field exif.FieldName
		name  string
	}{{exif.Make, "Make"}, {exif.Model, "Model"}} {
		if _, ok := p.Get(NSTIFF, f.name); ok {
			continue
		}
		if tag, err := x.Get(f.field); err == nil {
			if s, err := tag.StringVal(); err == nil {
				p.Set(NSTIFF, f.name, strings.TrimSpace(s))
			}
		}
	}
}
