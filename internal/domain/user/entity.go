package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an account that owns portfolios.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RiskProfile  string    `db:"risk_profile" json:"risk_profile"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Repository abstracts user persistence.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateRiskProfile(ctx context.Context, id uuid.UUID, profile string) error
}
