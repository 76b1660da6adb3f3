// Package fs holds the filesystem helpers of the catalog: path helpers
// and the import scanner that groups image files into bundles.
package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Basename returns the last element of path.
func Basename(path string) string { return filepath.Base(path) }

// Dirname returns all but the last element of path.
func Dirname(path string) string { return filepath.Dir(path) }

// ReplaceExtension swaps the extension of path for ext, which includes
// its leading dot. A path without extension gets ext appended.
func ReplaceExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
