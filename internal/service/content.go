package service

import (
	"context"
	"time"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/storage"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
)

// ClipRepository is the persistence surface the services need. Implemented by
// repository.ClipRepository; narrowed here so tests can stub it.
type ClipRepository interface {
	Create(ctx context.Context, clip *models.Clip) error
	FindActiveByID(ctx context.Context, id string) (*models.Clip, error)
	FindByID(ctx context.Context, id string) (*models.Clip, error)
	List(ctx context.Context) ([]models.Clip, error)
	ListDeleted(ctx context.Context) ([]models.Clip, error)
	TouchAccess(ctx context.Context, id string, accessedAt time.Time) (int64, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

// ContentStores bundles the storage backends keyed by reference kind. New
// uploads always land in GridFS; Legacy only serves reads and deletes for
// clips recorded with an on-disk path.
type ContentStores struct {
	GridFS storage.ContentStore
	Legacy storage.ContentStore
}

// ForRef picks the backend that holds the referenced blob.
func (s ContentStores) ForRef(ref models.ContentRef) (storage.ContentStore, error) {
	switch ref.Kind {
	case models.RefKindGridFS:
		if s.GridFS == nil {
			return nil, appErrors.ErrContentMissing
		}
		return s.GridFS, nil
	case models.RefKindLegacyPath:
		if s.Legacy == nil {
			return nil, appErrors.ErrContentMissing
		}
		return s.Legacy, nil
	default:
		return nil, appErrors.ErrContentMissing
	}
}
