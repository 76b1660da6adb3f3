package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

// FileSystemVault stores snapshots as files in a directory structure:
//
//	<root>/
//	  <catalogID>/
//	    <name>     (one file per snapshot)
type FileSystemVault struct {
	name string
	root string
}

var _ Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) Name() string { return v.name }

func (v *FileSystemVault) path(catalogID, name string) (string, error) {
	for _, part := range []string{catalogID, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid snapshot path element %q", part)
		}
	}
	return filepath.Join(v.root, catalogID, name), nil
}

// Put writes the snapshot atomically (temp file + rename).
func (v *FileSystemVault) Put(_ context.Context, catalogID, name string, r io.Reader, size int64) error {
	dest, err := v.path(catalogID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	body := &sizeReader{r: r, size: size}
	if err := atomic.WriteFile(dest, body); err != nil {
		// atomic does not wrap the reader's error.
		if body.n != size {
			return fmt.Errorf("failed to write snapshot: %w", &SizeMismatchError{Expected: size, Got: body.n})
		}
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Get copies a snapshot file to w.
func (v *FileSystemVault) Get(_ context.Context, catalogID, name string, w io.Writer) error {
	src, err := v.path(catalogID, name)
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s for catalog %s: %w", name, catalogID, ErrNotFound)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// List returns the snapshot files of a catalog. Hidden files are skipped.
func (v *FileSystemVault) List(_ context.Context, catalogID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(v.root, catalogID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies that the vault root is an accessible directory.
func (v *FileSystemVault) ValidateSetup(context.Context) error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	return nil
}
