package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"fincopilot/internal/domain/user"
	"fincopilot/pkg/errors"
)

// Compile-time check that we implement the interface
var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository using sqlx
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, risk_profile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, u.RiskProfile, u.CreatedAt,
	)
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User

	query := `
		SELECT id, email, name, password_hash, risk_profile, created_at
		FROM users
		WHERE id = $1`

	err := r.db.GetContext(ctx, &u, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User

	query := `
		SELECT id, email, name, password_hash, risk_profile, created_at
		FROM users
		WHERE email = $1`

	err := r.db.GetContext(ctx, &u, query, email)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateRiskProfile stores the questionnaire result
func (r *UserRepository) UpdateRiskProfile(ctx context.Context, id uuid.UUID, profile string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET risk_profile = $2 WHERE id = $1`,
		id, profile,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrap(errors.ErrNotFound, "user not found")
	}
	return nil
}
