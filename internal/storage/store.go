// Package storage provides durable, range-readable binary storage for audio
// blobs. The primary backend is MongoDB GridFS; a legacy filesystem backend
// serves clips uploaded before GridFS existed.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/Shalmalsakpal31/Whisper-tags/pkg/httprange"
)

// BlobInfo describes a stored blob without transferring its bytes.
type BlobInfo struct {
	ID          string
	Length      int64
	ContentType string
	Filename    string
	UploadedAt  time.Time
}

// ContentStore is the blob storage contract shared by the GridFS and legacy
// filesystem backends.
//
// Delete is idempotent: removing an absent blob succeeds, because metadata
// and blob lifecycles can desynchronize after a partial failure and cleanup
// must be retryable.
type ContentStore interface {
	// Put writes a complete buffer as a new blob and returns the assigned
	// id and stored length.
	Put(ctx context.Context, data []byte, filename string, metadata map[string]string) (string, int64, error)

	// Info reports existence and size without reading the blob.
	Info(ctx context.Context, id string) (*BlobInfo, error)

	// OpenRead returns a reader over the blob, restricted to rng when one
	// is given. Closing the reader releases the underlying handle; callers
	// must close it even when the copy aborts early.
	OpenRead(ctx context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error)

	// Delete removes the blob. Absent blobs are treated as already deleted.
	Delete(ctx context.Context, id string) error
}

// rangeReader restricts an underlying stream to a byte window while keeping
// the original close semantics.
type rangeReader struct {
	io.Reader
	closer io.Closer
}

func (r *rangeReader) Close() error {
	return r.closer.Close()
}
