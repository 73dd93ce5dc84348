package models

import "time"

// RefKind discriminates where a clip's audio bytes live.
type RefKind int

const (
	// RefKindGridFS points at a blob in the GridFS content store.
	RefKindGridFS RefKind = iota + 1
	// RefKindLegacyPath points at a file on the local filesystem, used by
	// clips uploaded before the content store existed. No new clips are
	// created with this kind.
	RefKindLegacyPath
)

// ContentRef is a closed tagged reference to a clip's audio bytes. Exactly
// one kind is populated per servable clip.
type ContentRef struct {
	Kind  RefKind
	Value string
}

// Clip represents one password-protected audio item. PasswordHash is
// write-only from the API surface and is never copied into response DTOs.
type Clip struct {
	ID             string     `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Filename       string     `db:"filename" json:"filename"`
	GridFSFileID   *string    `db:"gridfs_file_id" json:"-"`
	FilePath       *string    `db:"file_path" json:"-"`
	FileSize       int64      `db:"file_size" json:"fileSize"`
	MimeType       string     `db:"mime_type" json:"mimeType"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	AccessCount    int64      `db:"access_count" json:"accessCount"`
	LastAccessedAt *time.Time `db:"last_accessed_at" json:"lastAccessedAt,omitempty"`
	IsActive       bool       `db:"is_active" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// ContentRef resolves which storage backend holds the clip's bytes. It
// returns ok=false when neither reference is populated, which makes the clip
// unservable.
func (c *Clip) ContentRef() (ContentRef, bool) {
	if c.GridFSFileID != nil && *c.GridFSFileID != "" {
		return ContentRef{Kind: RefKindGridFS, Value: *c.GridFSFileID}, true
	}
	if c.FilePath != nil && *c.FilePath != "" {
		return ContentRef{Kind: RefKindLegacyPath, Value: *c.FilePath}, true
	}
	return ContentRef{}, false
}
