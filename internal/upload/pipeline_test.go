package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dongurihub/uploadhub/internal/index"
	"github.com/dongurihub/uploadhub/internal/models"
	"github.com/dongurihub/uploadhub/internal/quota"
)

func newTestPipeline(t *testing.T, limit int64, chunkSize int) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	return &Pipeline{
		Dir:       dir,
		ChunkSize: chunkSize,
		Index:     index.NewStore(filepath.Join(dir, "index.json")),
		Quota:     quota.Tracker{Limit: limit},
	}
}

// uploadedFiles lists the data files in the pipeline dir, ignoring the
// index document kept alongside for the tests.
func uploadedFiles(t *testing.T, p *Pipeline) []string {
	t.Helper()
	entries, err := os.ReadDir(p.Dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Name() == "index.json" || e.Name() == "index.json.tmp" {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

// countingReader records whether any byte was ever handed out.
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestNewToken(t *testing.T) {
	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := NewToken()
		assert.Regexp(t, hex32, tok)
		assert.False(t, seen[tok], "token repeated")
		seen[tok] = true
	}
}

func TestStoreSuccess(t *testing.T) {
	p := newTestPipeline(t, 0, 0)

	result, err := p.Store(context.Background(), strings.NewReader("0123456789"), "a.txt", "1.2.3.4")
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.Size)
	assert.Equal(t, result.Token+"-a.txt", result.SavedName)

	data, err := os.ReadFile(filepath.Join(p.Dir, result.SavedName))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	rec, ok := p.Index.Get(result.Token)
	require.True(t, ok)
	assert.Equal(t, models.FileRecord{
		Filename:  "a.txt",
		SavedName: result.SavedName,
		Size:      10,
		Timestamp: rec.Timestamp,
		IP:        "1.2.3.4",
		Uploader:  "web",
	}, rec)
	assert.NotZero(t, rec.Timestamp)
}

func TestStorePreflightRejectsWithoutReading(t *testing.T) {
	p := newTestPipeline(t, 5, 0)
	require.NoError(t, p.Index.Insert("existing", models.FileRecord{
		Filename: "old", SavedName: "existing-old", Size: 5, IP: "1.2.3.4",
	}))

	body := &countingReader{r: strings.NewReader("0123456789")}
	_, err := p.Store(context.Background(), body, "a.txt", "1.2.3.4")

	var qerr *quota.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, int64(5), qerr.Limit)
	assert.Equal(t, int64(5), qerr.Used)
	assert.Equal(t, int64(0), qerr.Remaining)
	assert.Zero(t, body.reads, "pre-flight rejection must not read the stream")
	assert.Empty(t, uploadedFiles(t, p))
}

func TestStoreMidStreamAbort(t *testing.T) {
	p := newTestPipeline(t, 5, 4)

	_, err := p.Store(context.Background(), strings.NewReader("0123456789"), "a.txt", "1.2.3.4")

	var qerr *quota.Error
	require.ErrorAs(t, err, &qerr)
	assert.Empty(t, uploadedFiles(t, p), "partial file must be removed")
	assert.Empty(t, p.Index.Snapshot(), "no index entry on abort")
}

func TestStoreQuotaFromOtherIPUnaffected(t *testing.T) {
	p := newTestPipeline(t, 5, 0)
	require.NoError(t, p.Index.Insert("existing", models.FileRecord{
		Filename: "old", SavedName: "existing-old", Size: 5, IP: "9.9.9.9",
	}))

	result, err := p.Store(context.Background(), strings.NewReader("abc"), "b.txt", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Size)
}

func TestStoreOvershootBounded(t *testing.T) {
	const limit, chunk = 100, 8
	p := newTestPipeline(t, limit, chunk)

	payload := strings.Repeat("z", 10)
	for i := 0; i < 30; i++ {
		if _, err := p.Store(context.Background(), strings.NewReader(payload), "f.bin", "1.2.3.4"); err != nil {
			var qerr *quota.Error
			require.ErrorAs(t, err, &qerr)
			break
		}
	}

	committed := quota.Usage(p.Index.Snapshot(), "1.2.3.4")
	assert.LessOrEqual(t, committed, int64(limit+chunk), "committed bytes may overshoot by less than one chunk only")
	assert.Positive(t, committed)
}

func TestStoreCancellationCleansUp(t *testing.T) {
	p := newTestPipeline(t, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Store(ctx, strings.NewReader("0123456789"), "a.txt", "1.2.3.4")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, uploadedFiles(t, p))
	assert.Empty(t, p.Index.Snapshot())
}

func TestStoreReadErrorCleansUp(t *testing.T) {
	p := newTestPipeline(t, 0, 4)

	broken := io.MultiReader(strings.NewReader("0123"), &failingReader{})
	_, err := p.Store(context.Background(), broken, "a.txt", "1.2.3.4")
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*quota.Error)))
	assert.Empty(t, uploadedFiles(t, p))
	assert.Empty(t, p.Index.Snapshot())
}

type failingReader struct{}

func (f *failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}
