package timer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the locally persisted copy of runtime timer state. It is
// written on every state change and lets a restarted process pick up where
// it left off, crediting time elapsed while the process was down to a
// running session.
type Snapshot struct {
	IsWorking        bool      `json:"is_working"`
	Seconds          int       `json:"seconds"`
	CurrentSessionID string    `json:"current_session_id,omitempty"`
	SavedAt          time.Time `json:"saved_at"`
}

// SnapshotStore persists timer snapshots across restarts.
type SnapshotStore interface {
	// Load returns the stored snapshot, or (nil, nil) when none exists.
	Load() (*Snapshot, error)
	Save(Snapshot) error
	Clear() error
}

// FileSnapshots stores the snapshot as a JSON file.
type FileSnapshots struct {
	path string
}

func NewFileSnapshots(path string) *FileSnapshots {
	return &FileSnapshots{path: path}
}

func (f *FileSnapshots) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (f *FileSnapshots) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileSnapshots) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemorySnapshots keeps the snapshot in memory, for tests.
type MemorySnapshots struct {
	snap *Snapshot
}

func (m *MemorySnapshots) Load() (*Snapshot, error) {
	if m.snap == nil {
		return nil, nil
	}
	copied := *m.snap
	return &copied, nil
}

func (m *MemorySnapshots) Save(snap Snapshot) error {
	m.snap = &snap
	return nil
}

func (m *MemorySnapshots) Clear() error {
	m.snap = nil
	return nil
}
