package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fincopilot/internal/domain/user"
	"fincopilot/pkg/errors"
)

// Compile-time check that we implement the interface
var _ user.Repository = (*UserRepository)(nil)

// UserRepository is an in-memory user.Repository used in tests and local
// development.
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*user.User)}
}

// Create stores a user
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return errors.Wrapf(errors.ErrAlreadyExists, "email %s", u.Email)
		}
	}

	clone := *u
	r.users[u.ID] = &clone
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	clone := *u
	return &clone, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, errors.Wrap(errors.ErrNotFound, "user not found")
}

// UpdateRiskProfile stores the questionnaire result
func (r *UserRepository) UpdateRiskProfile(_ context.Context, id uuid.UUID, profile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "user not found")
	}
	u.RiskProfile = profile
	return nil
}
