package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/Shalmalsakpal31/Whisper-tags/pkg/errors"
)

type fakeAuthSrv struct {
	token string
	err   error
}

func (f *fakeAuthSrv) Login(string) (string, int64, error) {
	return f.token, 3600, f.err
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&fakeAuthSrv{token: "jwt123"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"password":"admin-pass"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jwt123")
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&fakeAuthSrv{err: appErrors.ErrInvalidPassword})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"password":"wrong"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLoginMissingBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&fakeAuthSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
