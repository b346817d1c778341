package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"GradeSentinel/internal/model"
)

// ErrNoSnapshot is returned by Load when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no saved snapshot")

// Store keeps the last saved snapshot in a JSON file. It assumes exclusive
// access; callers must not run two cycles against the same file at once.
type Store struct {
	Path string
	Now  func() time.Time
}

// NewStore creates a Store backed by the given file.
func NewStore(path string) *Store {
	return &Store{Path: path, Now: time.Now}
}

// Load reads the saved snapshot. It returns ErrNoSnapshot if the file is
// missing and a wrapped error if it cannot be parsed.
func (s *Store) Load() (*model.Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.Path, err)
	}
	return &snap, nil
}

// LoadPrevious returns the baseline for the next diff, or nil when there is
// none. A missing or unreadable file is never an error.
func (s *Store) LoadPrevious() *model.Snapshot {
	snap, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			log.Printf("[WARN] ignoring previous snapshot: %v", err)
		}
		return nil
	}
	return snap
}

// SaveCurrent overwrites the stored snapshot with snap, stamped with the
// save time. The write goes through a temp file and a rename so a failed
// save leaves the old baseline intact.
func (s *Store) SaveCurrent(snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("save snapshot: nil snapshot")
	}
	record := *snap
	record.Timestamp = s.now()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return writeFileAtomic(s.Path, data)
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
