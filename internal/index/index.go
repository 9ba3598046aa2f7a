package index

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dongurihub/uploadhub/internal/models"
)

// Index is the whole persisted document: token -> record.
type Index = map[string]models.FileRecord

// Store persists the file index as a single JSON document on disk. Every
// mutation goes through Update so concurrent handlers never interleave a
// load-modify-save pair and drop one another's entries.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the whole index. A missing or unparsable file yields an
// empty index; callers never have to care why.
func (s *Store) Load() Index {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Index{}
	}
	idx := Index{}
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}
	}
	return idx
}

// Update applies fn to the current index and persists the result. An
// error from fn aborts without writing.
func (s *Store) Update(fn func(Index) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.Load()
	if err := fn(idx); err != nil {
		return err
	}
	return s.save(idx)
}

// save writes the document via a temp file + rename so a crash mid-write
// never leaves a truncated index behind.
func (s *Store) save(idx Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to rename index file: %w", err)
	}
	return nil
}

// Get returns the record for token, if any.
func (s *Store) Get(token string) (models.FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.Load()[token]
	return rec, ok
}

// Snapshot returns the current index for read-only use. Readers may see
// slightly stale data; there is no cross-record consistency requirement.
func (s *Store) Snapshot() Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Load()
}

// Insert commits one record under token.
func (s *Store) Insert(token string, rec models.FileRecord) error {
	return s.Update(func(idx Index) error {
		idx[token] = rec
		return nil
	})
}

// Delete removes token from the index, reporting whether it was present.
func (s *Store) Delete(token string) (bool, error) {
	found := false
	err := s.Update(func(idx Index) error {
		_, found = idx[token]
		delete(idx, token)
		return nil
	})
	return found, err
}
