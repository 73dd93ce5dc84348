package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
)

const clipColumns = `id, title, filename, gridfs_file_id, file_path, file_size,
       mime_type, password_hash, access_count, last_accessed_at, is_active, created_at`

// ClipRepository handles clip metadata persistence.
type ClipRepository struct {
	db *sqlx.DB
}

// NewClipRepository constructs the repository.
func NewClipRepository(db *sqlx.DB) *ClipRepository {
	return &ClipRepository{db: db}
}

// Create stores metadata for an uploaded clip.
func (r *ClipRepository) Create(ctx context.Context, clip *models.Clip) error {
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = time.Now().UTC()
	}
	clip.IsActive = true
	const query = `INSERT INTO clips
	(id, title, filename, gridfs_file_id, file_path, file_size, mime_type, password_hash, access_count, last_accessed_at, is_active, created_at)
	VALUES (:id, :title, :filename, :gridfs_file_id, :file_path, :file_size, :mime_type, :password_hash, :access_count, :last_accessed_at, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, clip); err != nil {
		return fmt.Errorf("create clip: %w", err)
	}
	return nil
}

// FindActiveByID retrieves one clip, excluding soft-deleted rows. External
// callers cannot tell an inactive clip from one that never existed.
func (r *ClipRepository) FindActiveByID(ctx context.Context, id string) (*models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE id = $1 AND is_active = TRUE`
	var clip models.Clip
	if err := r.db.GetContext(ctx, &clip, query, id); err != nil {
		return nil, err
	}
	return &clip, nil
}

// FindByID retrieves one clip regardless of the active flag. Used by the
// admin delete path, which must still resolve the blob of a soft-deleted row.
func (r *ClipRepository) FindByID(ctx context.Context, id string) (*models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE id = $1`
	var clip models.Clip
	if err := r.db.GetContext(ctx, &clip, query, id); err != nil {
		return nil, err
	}
	return &clip, nil
}

// List returns active clips, newest first.
func (r *ClipRepository) List(ctx context.Context) ([]models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE is_active = TRUE ORDER BY created_at DESC`
	var clips []models.Clip
	if err := r.db.SelectContext(ctx, &clips, query); err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	return clips, nil
}

// ListDeleted returns soft-deleted clips awaiting blob reclaim. Used by the
// startup sweep to finish deletes interrupted by a crash.
func (r *ClipRepository) ListDeleted(ctx context.Context) ([]models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE is_active = FALSE`
	var clips []models.Clip
	if err := r.db.SelectContext(ctx, &clips, query); err != nil {
		return nil, fmt.Errorf("list deleted clips: %w", err)
	}
	return clips, nil
}

// TouchAccess atomically increments the access counter and stamps the access
// time, returning the post-increment count. The single UPDATE keeps the
// counter correct under concurrent verification attempts on the same clip.
func (r *ClipRepository) TouchAccess(ctx context.Context, id string, accessedAt time.Time) (int64, error) {
	const query = `UPDATE clips
	SET access_count = access_count + 1, last_accessed_at = $2
	WHERE id = $1 AND is_active = TRUE
	RETURNING access_count`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, id, accessedAt); err != nil {
		return 0, err
	}
	return count, nil
}

// SoftDelete marks a clip inactive. Returns sql.ErrNoRows when the clip is
// already inactive or absent.
func (r *ClipRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE clips SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete clip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check clip delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HardDelete removes the row. Deleting an already-removed row is not an
// error; blob and record cleanup must stay independently retryable.
func (r *ClipRepository) HardDelete(ctx context.Context, id string) error {
	const query = `DELETE FROM clips WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("hard delete clip: %w", err)
	}
	return nil
}
