package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It is useful for testing. This implementation is safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string][]byte // "catalogID/name" -> content
	mu        sync.RWMutex
}

var _ Vault = (*MemoryVault)(nil)

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
	}
}

func snapshotKey(catalogID, name string) string {
	return catalogID + "/" + name
}

func (m *MemoryVault) Name() string { return m.name }

// Put stores a snapshot in memory.
func (m *MemoryVault) Put(_ context.Context, catalogID, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(&sizeReader{r: r, size: size})
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshotKey(catalogID, name)] = data
	return nil
}

// Get writes a stored snapshot to w.
func (m *MemoryVault) Get(_ context.Context, catalogID, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.snapshots[snapshotKey(catalogID, name)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s for catalog %s: %w", name, catalogID, ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// List returns the snapshot names stored for a catalog.
func (m *MemoryVault) List(_ context.Context, catalogID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := catalogID + "/"
	var names []string
	for key := range m.snapshots {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(context.Context) error {
	return nil
}
