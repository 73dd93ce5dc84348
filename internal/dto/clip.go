package dto

import "time"

// CreateClipRequest carries the metadata fields submitted alongside an
// uploaded audio file.
type CreateClipRequest struct {
	Title    string `form:"title" json:"title" validate:"required"`
	Password string `form:"password" json:"password" validate:"required,min=4"`
}

// VerifyRequest is the body of a password verification attempt.
type VerifyRequest struct {
	Password string `json:"password" binding:"required" validate:"required"`
}

// ClipInfo is the public, password-free view of a clip.
type ClipInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FileSize  int64     `json:"fileSize"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

// VerifiedClip is the richer view returned once the password checks out.
type VerifiedClip struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mimeType"`
	FileSize    int64  `json:"fileSize"`
	AccessCount int64  `json:"accessCount"`
}

// VerifyResponse bundles the verified clip with its stream token.
type VerifyResponse struct {
	Success     bool         `json:"success"`
	Clip        VerifiedClip `json:"clip"`
	StreamToken string       `json:"streamToken"`
}
