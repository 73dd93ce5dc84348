package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/dto"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/response"
)

type authService interface {
	Login(password string) (string, int64, error)
}

// AuthHandler exposes the single-admin login endpoint.
type AuthHandler struct {
	service authService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Admin credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "password is required"))
		return
	}

	token, expiresIn, err := h.service.Login(req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	}, nil)
}
