package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"photocat/internal/catalog"
)

// Scanner finds importable files under a directory.
type Scanner struct {
	patterns []string
}

// NewScanner creates a scanner with extra ignore patterns on top of the
// directory's ignore file.
func NewScanner(patterns []string) *Scanner {
	return &Scanner{patterns: patterns}
}

// FindFiles returns the regular files under dir that are not ignored,
// sorted. Subdirectories are walked when recursive is true.
func (s *Scanner) FindFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	fromFile, err := ParseIgnoreFile(filepath.Join(dir, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := NewIgnoreMatcher(append(append([]string{}, s.patterns...), fromFile...))

	var paths []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == dir {
				return nil
			}
			if !recursive || matcher.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.Match(rel) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ScanBundles groups the files of dir into bundles ready for import.
func (s *Scanner) ScanBundles(dir string, recursive bool) ([]*catalog.FileBundle, error) {
	paths, err := s.FindFiles(dir, recursive)
	if err != nil {
		return nil, err
	}
	return catalog.FilterBundles(paths), nil
}
