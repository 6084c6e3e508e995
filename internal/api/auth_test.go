package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/internal/adapters/config"
	"fincopilot/internal/repository/memstore"
	"fincopilot/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(memstore.NewUserRepository(), config.AuthConfig{
		JWTSecret:   "test-secret",
		TokenExpiry: time.Hour,
	})
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	u, err := auth.Register(ctx, "Alice@Example.com", "Alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	token, err := auth.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := auth.verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestAuth_RegisterValidation(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	_, err := auth.Register(ctx, "", "", "longenough")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = auth.Register(ctx, "bob@example.com", "Bob", "short")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = auth.Register(ctx, "bob@example.com", "Bob", "longenough")
	require.NoError(t, err)

	// Duplicate emails are rejected regardless of case
	_, err = auth.Register(ctx, "BOB@example.com", "Bob", "longenough")
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestAuth_LoginFailures(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	_, err := auth.Register(ctx, "carol@example.com", "Carol", "password123")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "carol@example.com", "wrong-password")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = auth.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestAuth_VerifyRejectsForeignToken(t *testing.T) {
	auth := newTestAuthService()
	other := NewAuthService(memstore.NewUserRepository(), config.AuthConfig{
		JWTSecret:   "different-secret",
		TokenExpiry: time.Hour,
	})

	ctx := context.Background()
	_, err := other.Register(ctx, "dave@example.com", "Dave", "password123")
	require.NoError(t, err)

	token, err := other.Login(ctx, "dave@example.com", "password123")
	require.NoError(t, err)

	_, err = auth.verify(token)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestAuth_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth := newTestAuthService()
	ctx := context.Background()

	u, err := auth.Register(ctx, "eve@example.com", "Eve", "password123")
	require.NoError(t, err)
	token, err := auth.Login(ctx, "eve@example.com", "password123")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", auth.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": currentUserID(c).String()})
	})

	// No token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID.String())
}
