package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dongurihub/uploadhub/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "file_index.json"))
}

func record(ip string, size int64) models.FileRecord {
	return models.FileRecord{
		Filename:  "a.txt",
		SavedName: "tok-a.txt",
		Size:      size,
		Timestamp: 1700000000,
		IP:        ip,
		Uploader:  "web",
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.Load())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewStore(path)
	assert.Empty(t, s.Load())
}

func TestInsertGetDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Insert("tok1", record("1.2.3.4", 10)))

	rec, ok := s.Get("tok1")
	require.True(t, ok)
	assert.Equal(t, int64(10), rec.Size)
	assert.Equal(t, "1.2.3.4", rec.IP)

	_, ok = s.Get("nope")
	assert.False(t, ok)

	found, err := s.Delete("tok1")
	require.NoError(t, err)
	assert.True(t, found)

	// Second delete reports not-found without erroring.
	found, err = s.Delete("tok1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file_index.json")

	s := NewStore(path)
	require.NoError(t, s.Insert("tok1", record("1.2.3.4", 42)))

	reopened := NewStore(path)
	rec, ok := reopened.Get("tok1")
	require.True(t, ok)
	assert.Equal(t, int64(42), rec.Size)
}

func TestUpdateErrorAbortsSave(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert("tok1", record("1.2.3.4", 1)))

	err := s.Update(func(idx Index) error {
		delete(idx, "tok1")
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	_, ok := s.Get("tok1")
	assert.True(t, ok, "failed update must not persist its mutation")
}

func TestConcurrentUpdatesLoseNothing(t *testing.T) {
	s := newTestStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("tok%02d", i)
			assert.NoError(t, s.Insert(token, record("1.2.3.4", int64(i))))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Snapshot(), n)
}
