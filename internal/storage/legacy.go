package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/httprange"
)

// LegacyStore serves audio files stored directly on the local filesystem.
// Blob ids are file paths, resolved under the base directory when relative.
// It exists for clips that predate the GridFS store; new uploads never land
// here, but the full ContentStore contract is kept so both backends are
// interchangeable at the call sites.
type LegacyStore struct {
	baseDir string
}

// NewLegacyStore ensures the base directory exists and returns a handle.
func NewLegacyStore(baseDir string) (*LegacyStore, error) {
	if baseDir == "" {
		baseDir = "./uploads/audio"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create legacy audio directory: %w", err)
	}
	return &LegacyStore{baseDir: baseDir}, nil
}

// Put writes the buffer to a file under the base directory.
func (s *LegacyStore) Put(_ context.Context, data []byte, filename string, _ map[string]string) (string, int64, error) {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, appErrors.ErrStorageWrite.Message)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, appErrors.ErrStorageWrite.Message)
	}
	return path, int64(len(data)), nil
}

// Info stats the file without opening it.
func (s *LegacyStore) Info(_ context.Context, id string) (*BlobInfo, error) {
	path := s.resolve(id)
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.ErrContentMissing
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}
	return &BlobInfo{
		ID:         id,
		Length:     stat.Size(),
		Filename:   filepath.Base(path),
		UploadedAt: stat.ModTime(),
	}, nil
}

// OpenRead opens the file, seeking to the range start when one is requested.
func (s *LegacyStore) OpenRead(_ context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error) {
	path := s.resolve(id)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.ErrContentMissing
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}

	if rng == nil {
		return file, nil
	}

	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrStorageRead.Code, appErrors.ErrStorageRead.Status, appErrors.ErrStorageRead.Message)
	}

	return &rangeReader{
		Reader: io.LimitReader(file, rng.Length()),
		closer: file,
	}, nil
}

// Delete removes the file if present; a missing file counts as deleted.
func (s *LegacyStore) Delete(_ context.Context, id string) error {
	path := s.resolve(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, "failed to delete audio file")
	}
	return nil
}

func (s *LegacyStore) resolve(id string) string {
	if filepath.IsAbs(id) {
		return id
	}
	return filepath.Join(s.baseDir, id)
}
