package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// JSONStore keeps results in a local JSON file. An empty path keeps them in memory only.
type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

// NewJSONStore creates a JSON result store, loading existing records from filePath
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		records:  make(map[string]*Record),
	}
	if filePath == "" {
		return store, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		var records []*Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to load results file: %w", err)
		}
		for _, r := range records {
			store.records[r.ID] = r
		}
	case os.IsNotExist(err):
		if err := store.flush(); err != nil {
			return nil, fmt.Errorf("failed to create results file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	return store, nil
}

// Save stores a record and rewrites the file
func (s *JSONStore) Save(r *Record) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("result must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r
	return s.flush()
}

// Get returns a record by ID
func (s *JSONStore) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return r, nil
}

// List returns records newest first
func (s *JSONStore) List(limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(limit), nil
}

// Close is a no-op, every Save is already on disk
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) sorted(limit int) []*Record {
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// flush writes all records. Callers hold the lock.
func (s *JSONStore) flush() error {
	if s.filePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.sorted(0), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename results file: %w", err)
	}
	return nil
}
