package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/dto"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/middleware"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/service"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/storage"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/httprange"
)

type fakeClipSrv struct {
	clip      *models.Clip
	uploadErr error
	info      *dto.ClipInfo
	getErr    error
	clips     []models.Clip
	deleteErr error
	deleted   []string
}

func (f *fakeClipSrv) Upload(context.Context, *dto.CreateClipRequest, string, string, []byte) (*models.Clip, error) {
	return f.clip, f.uploadErr
}

func (f *fakeClipSrv) Get(context.Context, string) (*dto.ClipInfo, error) {
	return f.info, f.getErr
}

func (f *fakeClipSrv) List(context.Context) ([]models.Clip, error) {
	return f.clips, nil
}

func (f *fakeClipSrv) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAccessSrv struct {
	resp *dto.VerifyResponse
	err  error
}

func (f *fakeAccessSrv) Verify(context.Context, string, string) (*dto.VerifyResponse, error) {
	return f.resp, f.err
}

// fakeClipRepo backs a real StreamService in the streaming tests.
type fakeClipRepo struct {
	clip *models.Clip
}

func (f *fakeClipRepo) Create(context.Context, *models.Clip) error { return nil }

func (f *fakeClipRepo) FindActiveByID(_ context.Context, id string) (*models.Clip, error) {
	if f.clip == nil || f.clip.ID != id || !f.clip.IsActive {
		return nil, sql.ErrNoRows
	}
	cp := *f.clip
	return &cp, nil
}

func (f *fakeClipRepo) FindByID(_ context.Context, id string) (*models.Clip, error) {
	return f.FindActiveByID(context.Background(), id)
}

func (f *fakeClipRepo) List(context.Context) ([]models.Clip, error)        { return nil, nil }
func (f *fakeClipRepo) ListDeleted(context.Context) ([]models.Clip, error) { return nil, nil }

func (f *fakeClipRepo) TouchAccess(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeClipRepo) SoftDelete(context.Context, string) error { return nil }
func (f *fakeClipRepo) HardDelete(context.Context, string) error { return nil }

type fakeBlobStore struct {
	blobs map[string][]byte
}

func (f *fakeBlobStore) Put(context.Context, []byte, string, map[string]string) (string, int64, error) {
	return "", 0, appErrors.ErrStorageWrite
}

func (f *fakeBlobStore) Info(_ context.Context, id string) (*storage.BlobInfo, error) {
	data, ok := f.blobs[id]
	if !ok {
		return nil, appErrors.ErrContentMissing
	}
	return &storage.BlobInfo{ID: id, Length: int64(len(data)), ContentType: "audio/mpeg"}, nil
}

func (f *fakeBlobStore) OpenRead(_ context.Context, id string, rng *httprange.ByteRange) (io.ReadCloser, error) {
	data, ok := f.blobs[id]
	if !ok {
		return nil, appErrors.ErrContentMissing
	}
	if rng != nil {
		data = data[rng.Start : rng.End+1]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(context.Context, string) error { return nil }

func streamTestHandler(t *testing.T, size int) (*ClipHandler, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	blobID := "b1"
	repo := &fakeClipRepo{clip: &models.Clip{
		ID:           "c1",
		Title:        "memo",
		Filename:     "memo.mp3",
		GridFSFileID: &blobID,
		FileSize:     int64(size),
		MimeType:     "audio/mpeg",
		IsActive:     true,
	}}
	store := &fakeBlobStore{blobs: map[string][]byte{"b1": data}}
	streams := service.NewStreamService(repo, service.ContentStores{GridFS: store}, nil, zap.NewNop())
	return NewClipHandler(&fakeClipSrv{}, &fakeAccessSrv{}, streams, nil), data
}

func newStreamRouter(h *ClipHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/clips/:id/stream/:token", h.Stream)
	return r
}

func TestClipHandlerStreamFull(t *testing.T) {
	h, data := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/c1/stream/tok", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestClipHandlerStreamPartial(t *testing.T) {
	h, data := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/c1/stream/tok", nil)
	req.Header.Set("Range", "bytes=500-599")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 500-599/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, data[500:600], rec.Body.Bytes())
}

func TestClipHandlerStreamOpenEndedRange(t *testing.T) {
	h, data := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/c1/stream/tok", nil)
	req.Header.Set("Range", "bytes=900-")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 900-999/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, data[900:], rec.Body.Bytes())
}

func TestClipHandlerStreamClampsOvershoot(t *testing.T) {
	h, _ := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/c1/stream/tok", nil)
	req.Header.Set("Range", "bytes=990-2000")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 990-999/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
}

func TestClipHandlerStreamUnsatisfiableRange(t *testing.T) {
	h, _ := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/c1/stream/tok", nil)
	req.Header.Set("Range", "bytes=1000-")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestClipHandlerStreamMalformedRange(t *testing.T) {
	h, _ := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	for _, header := range []string{"bytes=abc-", "bytes=-1-5", "bytes=0-10,20-30", "items=0-5"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/c1/stream/tok", nil)
		req.Header.Set("Range", header)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "header %q", header)
	}
}

func TestClipHandlerStreamUnknownClip(t *testing.T) {
	h, _ := streamTestHandler(t, 1000)
	r := newStreamRouter(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clips/ghost/stream/tok", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClipHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{info: &dto.ClipInfo{ID: "c1", Title: "memo"}}, &fakeAccessSrv{}, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/clips/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memo"`)
}

func TestClipHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{getErr: appErrors.ErrNotFound}, &fakeAccessSrv{}, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/clips/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClipHandlerVerifySuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{}, &fakeAccessSrv{resp: &dto.VerifyResponse{
		Success:     true,
		Clip:        dto.VerifiedClip{ID: "c1", Title: "memo"},
		StreamToken: "tok123",
	}}, nil, nil)

	body := bytes.NewBufferString(`{"password":"secret99"}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/clips/c1/verify", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.Verify(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "tok123", resp.StreamToken)
}

func TestClipHandlerVerifyWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{}, &fakeAccessSrv{err: appErrors.ErrInvalidPassword}, nil, nil)

	body := bytes.NewBufferString(`{"password":"wrong"}`)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/clips/c1/verify", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.Verify(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClipHandlerVerifyMissingPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{}, &fakeAccessSrv{}, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/clips/c1/verify", bytes.NewBufferString(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.Verify(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func adminContext(rec *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Role: models.RoleAdmin})
	return c, r
}

func TestClipHandlerUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{clip: &models.Clip{ID: "c1", Title: "memo"}}, &fakeAccessSrv{}, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "memo"))
	require.NoError(t, mw.WriteField("password", "secret99"))
	part, err := mw.CreateFormFile("audio", "memo.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("mp3 bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	c, _ := adminContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/clips", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	h.Upload(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"c1"`)
}

func TestClipHandlerUploadRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{}, &fakeAccessSrv{}, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/clips", nil)

	h.Upload(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClipHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClipHandler(&fakeClipSrv{}, &fakeAccessSrv{}, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "memo"))
	require.NoError(t, mw.WriteField("password", "secret99"))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	c, _ := adminContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/clips", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClipHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeClipSrv{}
	h := NewClipHandler(srv, &fakeAccessSrv{}, nil, nil)

	rec := httptest.NewRecorder()
	c, _ := adminContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/clips/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"c1"}, srv.deleted)
}
