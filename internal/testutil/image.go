package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"photocat/internal/xmp"
)

// WriteImage writes a fake image file at path whose body embeds p as an
// XMP packet. A nil packet writes a file without metadata. Parent
// directories are created.
func WriteImage(t *testing.T, path string, p *xmp.Packet) {
	t.Helper()

	body := []byte("IMGDATA-HEADER\n")
	if p != nil {
		body = append(body, p.MarshalSidecar()...)
	}
	body = append(body, []byte("\nIMGDATA-TRAILER\n")...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// NewPacket returns a packet with the given rating and keywords.
func NewPacket(rating int, keywords ...string) *xmp.Packet {
	p := xmp.New()
	p.SetInt(xmp.NSXAP, "Rating", rating)
	if len(keywords) > 0 {
		p.SetArray(xmp.NSDC, "subject", xmp.Bag, keywords)
	}
	return p
}
