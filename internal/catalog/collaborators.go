package catalog

import (
	"context"

	"photocat/internal/xmp"
)

// MetadataCodec converts between XMP packets and their stored forms.
type MetadataCodec interface {
	// Decode parses the inline blob stored in the catalog.
	Decode(blob string) (*xmp.Packet, error)
	// Encode produces the inline blob for a packet.
	Encode(p *xmp.Packet) (string, error)
	// ExtractFromFile reads the metadata of an image file.
	ExtractFromFile(path string, raw bool) (*xmp.Packet, error)
	// SidecarPacket produces the on-disk sidecar document.
	SidecarPacket(p *xmp.Packet) ([]byte, error)
}

// XmpSynchronizer drains the XMP rewrite queue into sidecar files.
type XmpSynchronizer interface {
	// QueuedIDs returns the pending file ids. A read failure is an error
	// wrapping ErrQueueRead, never an empty list.
	QueuedIDs(ctx context.Context) ([]ID, error)
	// RewriteForID dequeues one file and, when write is true, writes its sidecar.
	RewriteForID(ctx context.Context, id ID, write bool) error
	// ProcessQueue calls RewriteForID for every pending id.
	ProcessQueue(ctx context.Context, write bool) error
}

// VersionState is the outcome of a schema version check.
type VersionState int

const (
	VersionMissing VersionState = iota
	VersionPresent
	VersionCorrupt
)

// VersionCheck is the result of SchemaManager.CheckVersion.
type VersionCheck struct {
	State   VersionState
	Version int
}

// SchemaStatus is the result of SchemaManager.Init.
type SchemaStatus struct {
	// Created is true when Init built a new schema.
	Created bool
	// Version is the schema version found or created.
	Version int
	// Current is the version this build expects.
	Current int
}

// NeedsUpgrade reports whether the stored schema is older than expected.
func (s SchemaStatus) NeedsUpgrade() bool { return s.Version < s.Current }

// SchemaManager owns schema version detection, creation and upgrade.
type SchemaManager interface {
	CheckVersion(ctx context.Context) (VersionCheck, error)
	// Init creates the schema when it is missing. A corrupt version fails
	// with ErrCorruptVersion and creates nothing.
	Init(ctx context.Context) (SchemaStatus, error)
	// Upgrade backs the database up and migrates it from the given version.
	Upgrade(ctx context.Context, from int) error
}
