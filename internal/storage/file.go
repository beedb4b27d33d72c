package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// SnapshotFile is the name of the snapshot inside the data directory
const SnapshotFile = "events.json"

// FileStore is a MemoryStore persisted to a JSON snapshot after every write.
// One process at a time may own a data directory.
type FileStore struct {
	*MemoryStore
	dataDir string
}

// NewFileStore opens or creates the snapshot under dataDir
func NewFileStore(dataDir string, opts ...Option) (*FileStore, error) {
	dir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &FileStore{dataDir: dir}
	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	s.MemoryStore = newMemoryStore(snap, opts)
	s.MemoryStore.persist = s.save
	return s, nil
}

// expandHome expands a leading ~/ to the home directory
func expandHome(dir string) (string, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}

// Path returns the snapshot file path
func (s *FileStore) Path() string {
	return filepath.Join(s.dataDir, SnapshotFile)
}

func (s *FileStore) load() (*event.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, start empty
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap event.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

// save writes the snapshot to a temp file and renames it into place so a
// crash never leaves a truncated snapshot behind
func (s *FileStore) save(snap *event.Snapshot) error {
	snap.UpdatedAt = s.opts.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, SnapshotFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        // nolint:errcheck
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
