// Package vault stores catalog snapshots outside the catalog directory.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when a snapshot does not exist in a vault.
var ErrNotFound = errors.New("snapshot not found")

// Vault is a storage backend for catalog snapshots. Snapshots are grouped
// by catalog id so several catalogs can share one vault.
type Vault interface {
	// Name returns the configured vault name.
	Name() string

	// Put stores a snapshot. size is the number of bytes that will be read
	// from r. Storing the same name twice replaces the first copy.
	Put(ctx context.Context, catalogID, name string, r io.Reader, size int64) error

	// Get writes a snapshot to w. Returns ErrNotFound when it does not exist.
	Get(ctx context.Context, catalogID, name string, w io.Writer) error

	// List returns the snapshot names of a catalog in lexical order.
	List(ctx context.Context, catalogID string) ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}

// sizeReader fails at EOF when the number of bytes read differs from size.
type sizeReader struct {
	r    io.Reader
	size int64
	n    int64
}

func (s *sizeReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.n += int64(n)
	if errors.Is(err, io.EOF) && s.n != s.size {
		return n, &SizeMismatchError{Expected: s.size, Got: s.n}
	}
	return n, err
}

// SizeMismatchError reports a snapshot whose length differs from the
// announced size.
type SizeMismatchError struct {
	Expected int64
	Got      int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch: expected %d bytes, got %d", e.Expected, e.Got)
}
