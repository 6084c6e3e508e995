package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

// Compile-time check that we implement the interface
var _ portfolio.Repository = (*PortfolioRepository)(nil)

// PortfolioRepository implements portfolio.Repository using sqlx
type PortfolioRepository struct {
	db DBTX
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db DBTX) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetByID retrieves a portfolio with its holdings
func (r *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	var p portfolio.Portfolio

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM portfolios
		WHERE id = $1`

	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", id)
	}
	if err != nil {
		return nil, err
	}

	holdings, err := r.holdingsFor(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load holdings")
	}
	p.Holdings = holdings

	return &p, nil
}

// ListByUser retrieves all portfolios owned by a user, newest first
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*portfolio.Portfolio, error) {
	var portfolios []*portfolio.Portfolio

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &portfolios, query, userID); err != nil {
		return nil, err
	}

	for _, p := range portfolios {
		holdings, err := r.holdingsFor(ctx, p.ID)
		if err != nil {
			return nil, errors.Wrap(err, "load holdings")
		}
		p.Holdings = holdings
	}

	return portfolios, nil
}

// Create inserts a new portfolio and its holdings
func (r *PortfolioRepository) Create(ctx context.Context, p *portfolio.Portfolio) error {
	query := `
		INSERT INTO portfolios (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range p.Holdings {
		if err := r.AddHolding(ctx, p.ID, &p.Holdings[i]); err != nil {
			return err
		}
	}
	return nil
}

// Update renames a portfolio and bumps its updated_at
func (r *PortfolioRepository) Update(ctx context.Context, p *portfolio.Portfolio) error {
	query := `
		UPDATE portfolios
		SET name = $2, updated_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, p.ID, p.Name, time.Now().UTC())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", p.ID)
	}
	return nil
}

// Delete removes a portfolio; holdings cascade at the schema level
func (r *PortfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", id)
	}
	return nil
}

// AddHolding inserts a holding, replacing any existing position in the same
// symbol
func (r *PortfolioRepository) AddHolding(ctx context.Context, portfolioID uuid.UUID, h *portfolio.Holding) error {
	query := `
		INSERT INTO holdings (
			id, portfolio_id, symbol, asset_type, quantity, avg_cost, current_price, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (portfolio_id, symbol) DO UPDATE
		SET asset_type = EXCLUDED.asset_type,
		    quantity = EXCLUDED.quantity,
		    avg_cost = EXCLUDED.avg_cost,
		    current_price = EXCLUDED.current_price,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, portfolioID, h.Symbol, h.AssetType, h.Quantity, h.AvgCost, h.CurrentPrice, h.UpdatedAt,
	)
	return err
}

// RemoveHolding deletes a position by symbol
func (r *PortfolioRepository) RemoveHolding(ctx context.Context, portfolioID uuid.UUID, symbol string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM holdings WHERE portfolio_id = $1 AND symbol = $2`,
		portfolioID, symbol,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Wrapf(errors.ErrNotFound, "holding %s", symbol)
	}
	return nil
}

// UpdateHoldingPrices refreshes current prices for the given symbols
func (r *PortfolioRepository) UpdateHoldingPrices(ctx context.Context, portfolioID uuid.UUID, prices map[string]decimal.Decimal) error {
	query := `
		UPDATE holdings
		SET current_price = $3, updated_at = $4
		WHERE portfolio_id = $1 AND symbol = $2`

	now := time.Now().UTC()
	for symbol, price := range prices {
		if _, err := r.db.ExecContext(ctx, query, portfolioID, symbol, price, now); err != nil {
			return errors.Wrapf(err, "update price for %s", symbol)
		}
	}
	return nil
}

func (r *PortfolioRepository) holdingsFor(ctx context.Context, portfolioID uuid.UUID) ([]portfolio.Holding, error) {
	var holdings []portfolio.Holding

	query := `
		SELECT id, portfolio_id, symbol, asset_type, quantity, avg_cost, current_price, updated_at
		FROM holdings
		WHERE portfolio_id = $1
		ORDER BY symbol`

	if err := r.db.SelectContext(ctx, &holdings, query, portfolioID); err != nil {
		return nil, err
	}
	return holdings, nil
}
