package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/storage"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/httprange"
)

// stubRepo is an in-memory ClipRepository used across the service tests.
type stubRepo struct {
	mu    sync.Mutex
	clips map[string]*models.Clip

	createErr     error
	touchErr      error
	softDeleteErr error
	touchCalls    int
	softDeleted   []string
	hardDeleted   []string
}

func newStubRepo(clips ...*models.Clip) *stubRepo {
	r := &stubRepo{clips: make(map[string]*models.Clip)}
	for _, c := range clips {
		r.clips[c.ID] = c
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, clip *models.Clip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if clip.ID == "" {
		clip.ID = uuid.New().String()
	}
	cp := *clip
	r.clips[clip.ID] = &cp
	return nil
}

func (r *stubRepo) FindActiveByID(_ context.Context, id string) (*models.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clip, ok := r.clips[id]
	if !ok || !clip.IsActive {
		return nil, sql.ErrNoRows
	}
	cp := *clip
	return &cp, nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*models.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clip, ok := r.clips[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *clip
	return &cp, nil
}

func (r *stubRepo) List(_ context.Context) ([]models.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Clip, 0, len(r.clips))
	for _, c := range r.clips {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubRepo) ListDeleted(_ context.Context) ([]models.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Clip, 0)
	for _, c := range r.clips {
		if !c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubRepo) TouchAccess(_ context.Context, id string, accessedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchCalls++
	if r.touchErr != nil {
		return 0, r.touchErr
	}
	clip, ok := r.clips[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	clip.AccessCount++
	ts := accessedAt
	clip.LastAccessedAt = &ts
	return clip.AccessCount, nil
}

func (r *stubRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.softDeleteErr != nil {
		return r.softDeleteErr
	}
	clip, ok := r.clips[id]
	if !ok || !clip.IsActive {
		return sql.ErrNoRows
	}
	clip.IsActive = false
	r.softDeleted = append(r.softDeleted, id)
	return nil
}

func (r *stubRepo) HardDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clips, id)
	r.hardDeleted = append(r.hardDeleted, id)
	return nil
}

// memStore is an in-memory ContentStore.
type memStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	infos   map[string]storage.BlobInfo
	nextID  int
	putErr  error
	deleted []string
	delErr  error
}

func newMemStore() *memStore {
	return &memStore{
		blobs: make(map[string][]byte),
		infos: make(map[string]storage.BlobInfo),
	}
}

func (m *memStore) seed(id string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = data
	m.infos[id] = storage.BlobInfo{
		ID:          id,
		Length:      int64(len(data)),
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}
}

func (m *memStore) Put(_ context.Context, data []byte, filename string, metadata map[string]string) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", 0, m.putErr
	}
	m.nextID++
	id := fmt.Sprintf("blob-%d", m.nextID)
	m.blobs[id] = data
	m.infos[id] = storage.BlobInfo{
		ID:          id,
		Length:      int64(len(data)),
		ContentType: metadata["contentType"],
		Filename:    filename,
		UploadedAt:  time.Now().UTC(),
	}
	return id, int64(len(data)), nil
}

func (m *memStore) Info(_ context.Context, id string) (*storage.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.infos[id]
	if !ok {
		return nil, appErrors.ErrContentMissing
	}
	return &info, nil
}

func (m *memStore) OpenRead(_ context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[id]
	if !ok {
		return nil, appErrors.ErrContentMissing
	}
	if rng != nil {
		data = data[rng.Start : rng.End+1]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.blobs, id)
	delete(m.infos, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func strPtr(s string) *string { return &s }
