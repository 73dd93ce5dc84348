package service

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shalmalsakpal31/Whisper-tags/internal/models"
	"github.com/Shalmalsakpal31/Whisper-tags/pkg/config"
	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
)

// AuthService authenticates the single admin account and issues the JWTs
// that guard upload and delete endpoints.
type AuthService struct {
	jwtCfg   config.JWTConfig
	adminCfg config.AdminConfig
	logger   *zap.Logger
}

func NewAuthService(jwtCfg config.JWTConfig, adminCfg config.AdminConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtCfg:   jwtCfg,
		adminCfg: adminCfg,
		logger:   logger,
	}
}

// Login checks the admin password and returns a signed token with its
// lifetime in seconds. ADMIN_PASSWORD_HASH takes precedence over the
// plaintext ADMIN_PASSWORD fallback.
func (s *AuthService) Login(password string) (string, int64, error) {
	if !s.checkPassword(password) {
		s.logger.Warn("admin login rejected")
		return "", 0, appErrors.ErrInvalidPassword
	}

	token, err := s.issueToken()
	if err != nil {
		s.logger.Error("failed to sign admin token", zap.Error(err))
		return "", 0, appErrors.FromError(err)
	}
	return token, int64(s.jwtCfg.Expiration.Seconds()), nil
}

// ValidateToken parses and verifies an admin access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	return claims, nil
}

func (s *AuthService) checkPassword(password string) bool {
	if s.adminCfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.adminCfg.PasswordHash), []byte(password)) == nil
	}
	if s.adminCfg.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.adminCfg.Password), []byte(password)) == 1
}

func (s *AuthService) issueToken() (string, error) {
	now := time.Now()
	claims := models.JWTClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   models.RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}
