package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fincopilot/internal/adapters/config"
	"fincopilot/internal/domain/user"
	"fincopilot/pkg/errors"
)

const userIDKey = "user_id"

// AuthService issues and verifies JWT tokens for API access.
type AuthService struct {
	users  user.Repository
	secret []byte
	expiry time.Duration
}

// NewAuthService creates the auth service
func NewAuthService(users user.Repository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.TokenExpiry,
	}
}

// Register creates a user with a bcrypt password hash
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "email and password are required")
	}
	if len(password) < 8 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "email %s", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Login verifies credentials and returns a signed JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.ID.String(),
		"exp": time.Now().UTC().Add(s.expiry).Unix(),
		"iat": time.Now().UTC().Unix(),
	})
	return token.SignedString(s.secret)
}

// verify parses a token and returns the user ID claim
func (s *AuthService) verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.Wrap(errors.ErrUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.Wrap(errors.ErrUnauthorized, "invalid claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.Wrap(errors.ErrUnauthorized, "invalid subject")
	}
	return id, nil
}

// Middleware authenticates requests via the Authorization header
func (s *AuthService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := s.verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID reads the authenticated user from the gin context
func currentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, isUUID := v.(uuid.UUID); isUUID {
			return id
		}
	}
	return uuid.Nil
}
