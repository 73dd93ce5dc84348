package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/dto"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/config"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/jobs"
)

// JobReclaimBlob is the job kind used to reclaim orphaned audio blobs after
// a clip is soft deleted.
const JobReclaimBlob = "reclaim_blob"

// ReclaimPayload identifies the clip and blob a reclaim job should remove.
type ReclaimPayload struct {
	ClipID string
	Ref    models.ContentRef
}

// ReclaimQueue is the slice of jobs.Queue the clip service needs.
type ReclaimQueue interface {
	Enqueue(job jobs.Job) error
}

// ClipService owns the clip lifecycle: upload, public metadata reads, listing
// for admins, and the two-phase delete.
type ClipService struct {
	repo     ClipRepository
	stores   ContentStores
	cache    *CacheService
	metrics  *MetricsService
	reclaim  ReclaimQueue
	uploads  config.UploadConfig
	cacheTTL time.Duration
	validate *validator.Validate
	logger   *zap.Logger
}

func NewClipService(
	repo ClipRepository,
	stores ContentStores,
	cache *CacheService,
	metrics *MetricsService,
	reclaim ReclaimQueue,
	uploads config.UploadConfig,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ClipService {
	return &ClipService{
		repo:     repo,
		stores:   stores,
		cache:    cache,
		metrics:  metrics,
		reclaim:  reclaim,
		uploads:  uploads,
		cacheTTL: cacheTTL,
		validate: validator.New(),
		logger:   logger,
	}
}

func clipCacheKey(id string) string { return "clip:" + id }

// Upload validates the request, stores the audio bytes, then records the clip.
// If the metadata insert fails the freshly written blob is deleted so the
// store does not accumulate orphans.
func (s *ClipService) Upload(ctx context.Context, req *dto.CreateClipRequest, filename, mimeType string, data []byte) (*models.Clip, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if !s.mimeAllowed(mimeType) {
		return nil, appErrors.ErrUnsupportedMimeType
	}
	if s.uploads.MaxFileSizeBytes > 0 && int64(len(data)) > s.uploads.MaxFileSizeBytes {
		return nil, appErrors.ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	start := time.Now()
	blobID, size, err := s.stores.GridFS.Put(ctx, data, filename, map[string]string{
		"contentType": mimeType,
		"title":       req.Title,
	})
	if s.metrics != nil {
		s.metrics.ObserveStorageOp("gridfs", "put", time.Since(start))
	}
	if err != nil {
		s.logger.Error("failed to store audio blob", zap.String("filename", filename), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, appErrors.ErrStorageWrite.Message)
	}

	clip := &models.Clip{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Filename:     filename,
		GridFSFileID: &blobID,
		FileSize:     size,
		MimeType:     mimeType,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, clip); err != nil {
		s.logger.Error("failed to record clip, reclaiming blob",
			zap.String("blob_id", blobID), zap.Error(err))
		if delErr := s.stores.GridFS.Delete(ctx, blobID); delErr != nil {
			s.logger.Error("compensating blob delete failed",
				zap.String("blob_id", blobID), zap.Error(delErr))
		}
		return nil, appErrors.FromError(err)
	}

	s.logger.Info("clip uploaded",
		zap.String("clip_id", clip.ID),
		zap.String("filename", filename),
		zap.Int64("size", size))
	return clip, nil
}

// Get returns the public, password-free view of an active clip.
func (s *ClipService) Get(ctx context.Context, id string) (*dto.ClipInfo, error) {
	key := clipCacheKey(id)
	var cached dto.ClipInfo
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	clip, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Error("failed to load clip", zap.String("clip_id", id), zap.Error(err))
		return nil, appErrors.FromError(err)
	}

	info := &dto.ClipInfo{
		ID:        clip.ID,
		Title:     clip.Title,
		FileSize:  clip.FileSize,
		MimeType:  clip.MimeType,
		CreatedAt: clip.CreatedAt,
	}
	_ = s.cache.Set(ctx, key, info, s.cacheTTL)
	return info, nil
}

// List returns all active clips, newest first, for the admin surface.
func (s *ClipService) List(ctx context.Context) ([]models.Clip, error) {
	clips, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list clips", zap.Error(err))
		return nil, appErrors.FromError(err)
	}
	return clips, nil
}

// Delete removes a clip in two phases. The clip row is soft deleted
// synchronously, which takes it out of every read path at once. Blob removal
// and the final hard delete run on the reclaim queue, where retries are safe
// because blob deletes are idempotent. Deleting an absent clip succeeds.
func (s *ClipService) Delete(ctx context.Context, id string) error {
	clip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.FromError(err)
	}

	if clip.IsActive {
		if err := s.repo.SoftDelete(ctx, id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("failed to soft delete clip", zap.String("clip_id", id), zap.Error(err))
			return appErrors.FromError(err)
		}
	}
	_ = s.cache.Invalidate(ctx, clipCacheKey(id))

	ref, hasContent := clip.ContentRef()
	payload := ReclaimPayload{ClipID: id}
	if hasContent {
		payload.Ref = ref
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("%s/%s", JobReclaimBlob, id),
		Kind:    JobReclaimBlob,
		Payload: payload,
	}
	if err := s.reclaim.Enqueue(job); err != nil {
		// The clip is already invisible; reclaim will be retried by the
		// startup sweep over soft-deleted rows.
		s.logger.Error("failed to enqueue blob reclaim", zap.String("clip_id", id), zap.Error(err))
	}

	s.logger.Info("clip deleted", zap.String("clip_id", id))
	return nil
}

// ReclaimHandler returns the jobs.Handler that finishes a delete: it removes
// the blob from its store and then hard deletes the clip row. Every step is
// idempotent so the queue can retry freely.
func (s *ClipService) ReclaimHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(ReclaimPayload)
		if !ok {
			s.logger.Error("reclaim job carries unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		if payload.Ref.Kind != 0 {
			store, err := s.stores.ForRef(payload.Ref)
			if err != nil {
				return err
			}
			start := time.Now()
			err = store.Delete(ctx, payload.Ref.Value)
			if s.metrics != nil {
				s.metrics.ObserveStorageOp(backendLabel(payload.Ref.Kind), "delete", time.Since(start))
			}
			if err != nil {
				return fmt.Errorf("delete blob %s: %w", payload.Ref.Value, err)
			}
		}
		if err := s.repo.HardDelete(ctx, payload.ClipID); err != nil {
			return fmt.Errorf("hard delete clip %s: %w", payload.ClipID, err)
		}
		return nil
	}
}

// SweepDeleted enqueues reclaim jobs for clips that were soft deleted but
// never cleaned up, typically because the process died mid-delete.
func (s *ClipService) SweepDeleted(ctx context.Context) error {
	clips, err := s.repo.ListDeleted(ctx)
	if err != nil {
		return appErrors.FromError(err)
	}
	for _, clip := range clips {
		payload := ReclaimPayload{ClipID: clip.ID}
		if ref, ok := clip.ContentRef(); ok {
			payload.Ref = ref
		}
		job := jobs.Job{
			ID:      fmt.Sprintf("%s/%s", JobReclaimBlob, clip.ID),
			Kind:    JobReclaimBlob,
			Payload: payload,
		}
		if err := s.reclaim.Enqueue(job); err != nil {
			s.logger.Error("failed to enqueue reclaim during sweep",
				zap.String("clip_id", clip.ID), zap.Error(err))
		}
	}
	if len(clips) > 0 {
		s.logger.Info("queued pending blob reclaims", zap.Int("count", len(clips)))
	}
	return nil
}

func (s *ClipService) mimeAllowed(mimeType string) bool {
	for _, allowed := range s.uploads.AllowedMIMEs {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

func backendLabel(kind models.RefKind) string {
	if kind == models.RefKindLegacyPath {
		return "legacy"
	}
	return "gridfs"
}
