package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is one satellite in a snapshot, shaped exactly like the listing
// response.
type Entry struct {
	NoradID  string  `json:"norad_id"`
	Name     string  `json:"name"`
	Line1    string  `json:"line1"`
	Line2    string  `json:"line2"`
	Epoch    string  `json:"epoch"`
	AgeHours float64 `json:"age_hours"`
	AgeDays  float64 `json:"age_days"`
	IsStale  bool    `json:"is_stale"`
}

// Snapshot is the single persisted cache document: a cached-at timestamp
// plus the ordered satellite entries. Whole snapshots are replaced, never
// merged.
type Snapshot struct {
	CachedAt   time.Time `json:"cached_at"`
	Satellites []Entry   `json:"satellites"`
}

// Store persists catalog snapshots. Implementations must make Save an
// atomic replace so concurrent writers can only produce last-writer-wins,
// never a torn document.
type Store interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot. A missing or corrupt file is an error; the
// caller treats either as a cache miss.
func (s *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// Save writes the snapshot atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (s *FileStore) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
