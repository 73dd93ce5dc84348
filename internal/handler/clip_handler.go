package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/dto"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/service"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/httprange"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/response"
)

type clipService interface {
	Upload(ctx context.Context, req *dto.CreateClipRequest, filename, mimeType string, data []byte) (*models.Clip, error)
	Get(ctx context.Context, id string) (*dto.ClipInfo, error)
	List(ctx context.Context) ([]models.Clip, error)
	Delete(ctx context.Context, id string) error
}

type accessService interface {
	Verify(ctx context.Context, id, password string) (*dto.VerifyResponse, error)
}

type streamService interface {
	Resolve(ctx context.Context, id, token string) (*service.StreamSource, error)
}

// ClipHandler manages clip HTTP endpoints: public metadata and verification,
// the streaming route, and the admin upload/list/delete surface.
type ClipHandler struct {
	clips   clipService
	access  accessService
	streams streamService
	metrics *service.MetricsService
}

// NewClipHandler constructs the handler.
func NewClipHandler(clips clipService, access accessService, streams streamService, metrics *service.MetricsService) *ClipHandler {
	return &ClipHandler{clips: clips, access: access, streams: streams, metrics: metrics}
}

// Get godoc
// @Summary Get public clip metadata
// @Tags Clips
// @Produce json
// @Param id path string true "Clip ID"
// @Success 200 {object} response.Envelope
// @Router /clips/{id} [get]
func (h *ClipHandler) Get(c *gin.Context) {
	info, err := h.clips.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Verify godoc
// @Summary Verify a clip password and mint a stream token
// @Tags Clips
// @Accept json
// @Produce json
// @Param id path string true "Clip ID"
// @Param payload body dto.VerifyRequest true "Clip password"
// @Success 200 {object} dto.VerifyResponse
// @Router /clips/{id}/verify [post]
func (h *ClipHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "password is required"))
		return
	}

	resp, err := h.access.Verify(c.Request.Context(), c.Param("id"), req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	// The verify response keeps the original flat shape for player clients
	// instead of the envelope used elsewhere.
	c.JSON(http.StatusOK, resp)
}

// Stream godoc
// @Summary Stream clip audio, honoring single byte ranges
// @Tags Clips
// @Produce octet-stream
// @Param id path string true "Clip ID"
// @Param token path string true "Stream token"
// @Param Range header string false "Byte range, e.g. bytes=0-1023"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Router /clips/{id}/stream/{token} [get]
func (h *ClipHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	src, err := h.streams.Resolve(ctx, c.Param("id"), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		h.streamFull(c, src)
		return
	}

	rng, err := httprange.Parse(rangeHeader, src.Size)
	if err != nil {
		if errors.Is(err, httprange.ErrUnsatisfiable) {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", src.Size))
			response.Error(c, appErrors.ErrRangeNotSatisfiable)
			return
		}
		response.Error(c, appErrors.ErrInvalidRange)
		return
	}

	rc, err := src.Open(ctx, &rng)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close() //nolint:errcheck

	if h.metrics != nil {
		h.metrics.ObserveStreamRequest(true, rng.Length())
	}
	c.Header("Content-Range", rng.ContentRange(src.Size))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "no-cache")
	c.DataFromReader(http.StatusPartialContent, rng.Length(), src.MimeType, rc, nil)
}

func (h *ClipHandler) streamFull(c *gin.Context, src *service.StreamSource) {
	rc, err := src.Open(c.Request.Context(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close() //nolint:errcheck

	if h.metrics != nil {
		h.metrics.ObserveStreamRequest(false, src.Size)
	}
	c.Header("Accept-Ranges", "bytes")
	c.DataFromReader(http.StatusOK, src.Size, src.MimeType, rc, nil)
}

// Upload godoc
// @Summary Upload a password-protected audio clip
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param password formData string true "Clip password"
// @Param audio formData file true "Audio file"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/clips [post]
func (h *ClipHandler) Upload(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateClipRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "title and password are required"))
		return
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "audio file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	clip, err := h.clips.Upload(c.Request.Context(), &req,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, clip, nil)
}

// List godoc
// @Summary List active clips
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/clips [get]
func (h *ClipHandler) List(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	clips, err := h.clips.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clips, nil)
}

// Delete godoc
// @Summary Delete a clip and reclaim its audio
// @Tags Admin
// @Produce json
// @Param id path string true "Clip ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/clips/{id} [delete]
func (h *ClipHandler) Delete(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.clips.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
