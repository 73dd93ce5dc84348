package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/dto"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
)

// AccessService performs password verification and mints stream tokens.
type AccessService struct {
	repo   ClipRepository
	stores ContentStores
	logger *zap.Logger
}

func NewAccessService(repo ClipRepository, stores ContentStores, logger *zap.Logger) *AccessService {
	return &AccessService{
		repo:   repo,
		stores: stores,
		logger: logger,
	}
}

// Verify checks the clip password and, on success, bumps the access counter
// and returns the clip details together with a fresh stream token.
//
// Existence of the audio blob is confirmed before the password is checked, so
// a clip whose content went missing reports the same not-found shape whether
// or not the caller knows the password.
func (s *AccessService) Verify(ctx context.Context, id, password string) (*dto.VerifyResponse, error) {
	clip, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Error("failed to load clip", zap.String("clip_id", id), zap.Error(err))
		return nil, appErrors.FromError(err)
	}

	ref, ok := clip.ContentRef()
	if !ok {
		s.logger.Warn("clip has no content reference", zap.String("clip_id", id))
		return nil, appErrors.ErrContentMissing
	}
	store, err := s.stores.ForRef(ref)
	if err != nil {
		return nil, err
	}
	if _, err := store.Info(ctx, ref.Value); err != nil {
		s.logger.Warn("clip content missing from store",
			zap.String("clip_id", id), zap.Error(err))
		return nil, appErrors.ErrContentMissing
	}

	if err := bcrypt.CompareHashAndPassword([]byte(clip.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidPassword
	}

	accessCount, err := s.repo.TouchAccess(ctx, id, time.Now().UTC())
	if err != nil {
		// The caller already proved knowledge of the password; a failed
		// counter bump should not block playback.
		s.logger.Error("failed to record access", zap.String("clip_id", id), zap.Error(err))
		accessCount = clip.AccessCount + 1
	}

	token, err := mintStreamToken(id)
	if err != nil {
		s.logger.Error("failed to mint stream token", zap.String("clip_id", id), zap.Error(err))
		return nil, appErrors.FromError(err)
	}

	return &dto.VerifyResponse{
		Success: true,
		Clip: dto.VerifiedClip{
			ID:          clip.ID,
			Title:       clip.Title,
			Filename:    clip.Filename,
			MimeType:    clip.MimeType,
			FileSize:    clip.FileSize,
			AccessCount: accessCount,
		},
		StreamToken: token,
	}, nil
}

var streamTokenStrip = strings.NewReplacer("+", "", "/", "", "=", "")

// mintStreamToken produces an opaque URL-safe token binding a clip id to the
// issue time plus random padding. Tokens are single-audience hints rather
// than credentials; the stream endpoint does not verify them server side.
func mintStreamToken(clipID string) (string, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	seed := fmt.Sprintf("%s-%d-%s", clipID, time.Now().UnixMilli(), hex.EncodeToString(nonce))
	return streamTokenStrip.Replace(base64.StdEncoding.EncodeToString([]byte(seed))), nil
}
