package portfolio

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository abstracts portfolio persistence. The orchestration layer only
// reads portfolios and refreshes holding prices; it never mutates positions.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Portfolio, error)
	Create(ctx context.Context, p *Portfolio) error
	Update(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddHolding(ctx context.Context, portfolioID uuid.UUID, h *Holding) error
	RemoveHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) error
	UpdateHoldingPrices(ctx context.Context, portfolioID uuid.UUID, prices map[string]decimal.Decimal) error
}
