package upload

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dongurihub/uploadhub/internal/index"
	"github.com/dongurihub/uploadhub/internal/models"
	"github.com/dongurihub/uploadhub/internal/quota"
)

// DefaultChunkSize is how much of the request body moves to disk per
// write. The mid-stream quota checkpoint runs once per chunk, so this is
// also the worst-case quota overshoot.
const DefaultChunkSize = 64 << 10

// Pipeline streams uploads to disk and commits them to the index only
// after the file write has fully succeeded. Any failure along the way
// removes the partial file and leaves no index entry.
type Pipeline struct {
	Dir       string
	ChunkSize int
	Index     *index.Store
	Quota     quota.Tracker
}

// Result describes one committed upload.
type Result struct {
	Token     string
	SavedName string
	Size      int64
}

// NewToken mints the opaque 128-bit identifier for one upload, rendered
// as 32 lowercase hex characters. There is no uniqueness check against
// the index: detecting a collision would need the index held locked for
// the whole upload, and the probability is negligible.
func NewToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Store streams r to disk under a fresh token and records the upload.
func (p *Pipeline) Store(ctx context.Context, r io.Reader, filename, clientIP string) (*Result, error) {
	used := quota.Usage(p.Index.Snapshot(), clientIP)
	if p.Quota.AtCapacity(used) {
		return nil, p.Quota.NewError(used)
	}

	token := NewToken()
	savedName := token + "-" + filename
	dest := filepath.Join(p.Dir, savedName)

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", savedName, err)
	}

	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var size int64
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, p.discard(f, dest, err)
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return nil, p.discard(f, dest, fmt.Errorf("failed to write chunk: %w", err))
			}
			size += int64(n)
			if p.Quota.Exceeded(used, size) {
				return nil, p.discard(f, dest, p.Quota.NewError(used))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, p.discard(f, dest, fmt.Errorf("failed to read upload stream: %w", readErr))
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("failed to close %s: %w", savedName, err)
	}

	rec := models.FileRecord{
		Filename:  filename,
		SavedName: savedName,
		Size:      size,
		Timestamp: time.Now().Unix(),
		IP:        clientIP,
		Uploader:  "web",
	}
	if err := p.Index.Insert(token, rec); err != nil {
		// The index is the liveness authority; without an entry the file
		// is unreachable, so drop it rather than strand an orphan.
		os.Remove(dest)
		return nil, fmt.Errorf("failed to commit index entry: %w", err)
	}

	return &Result{Token: token, SavedName: savedName, Size: size}, nil
}

// discard closes and removes a partial file, keeping the caller's error.
func (p *Pipeline) discard(f *os.File, path string, err error) error {
	f.Close()
	os.Remove(path)
	return err
}
