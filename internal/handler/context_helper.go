package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/middleware"
	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
