// Package restore persists scroll restoration records and height snapshots
// for virtual lists.
package restore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/HamStudy/feedview/internal/components/virtual"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// fileVersion is written to every state file
const fileVersion = 1

// MemoryStore keeps restoration state for the lifetime of the process.
type MemoryStore struct {
	mu           sync.RWMutex
	records      map[string]virtual.RestorationRecord
	measurements map[string]map[string]int
}

var (
	_ virtual.RestorationStore = (*MemoryStore)(nil)
	_ virtual.MeasurementStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:      make(map[string]virtual.RestorationRecord),
		measurements: make(map[string]map[string]int),
	}
}

// GetItem returns the record stored under key
func (s *MemoryStore) GetItem(key string) (virtual.RestorationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// SetItem stores rec under key
func (s *MemoryStore) SetItem(key string, rec virtual.RestorationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
}

// GetMeasurements returns a copy of the height snapshot stored under key
func (s *MemoryStore) GetMeasurements(key string) (map[string]int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.measurements[key]
	if !ok {
		return nil, false
	}
	return copyHeights(m), true
}

// SetMeasurements stores a copy of heights under key
func (s *MemoryStore) SetMeasurements(key string, heights map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements[key] = copyHeights(heights)
}

// Len returns how many records are stored
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// document is the on-disk layout of a FileStore
type document struct {
	Version      int                                  `json:"version"`
	Records      map[string]virtual.RestorationRecord `json:"records"`
	Measurements map[string]map[string]int            `json:"measurements,omitempty"`
}

// FileStore is a MemoryStore backed by a JSON file. The file may contain
// comments and trailing commas. Writes replace the file atomically.
type FileStore struct {
	*MemoryStore
	path string
}

// NewFileStore creates a store for path. Call Load to read existing state.
func NewFileStore(path string) *FileStore {
	return &FileStore{MemoryStore: NewMemoryStore(), path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load replaces the in-memory state with the file contents. A missing file
// leaves the store empty.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read restoration state: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid restoration state %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return fmt.Errorf("invalid restoration state %s: %w", s.path, err)
	}
	if doc.Version > fileVersion {
		return fmt.Errorf("restoration state %s has unsupported version %d", s.path, doc.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]virtual.RestorationRecord, len(doc.Records))
	for k, rec := range doc.Records {
		s.records[k] = rec
	}
	s.measurements = make(map[string]map[string]int, len(doc.Measurements))
	for k, m := range doc.Measurements {
		s.measurements[k] = copyHeights(m)
	}
	return nil
}

// Flush writes the current state to the file
func (s *FileStore) Flush() error {
	s.mu.RLock()
	doc := document{
		Version:      fileVersion,
		Records:      s.records,
		Measurements: s.measurements,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode restoration state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("failed to write restoration state: %w", err)
	}
	return nil
}

func copyHeights(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
