package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

// Compile-time check that we implement the interface
var _ portfolio.Repository = (*PortfolioRepository)(nil)

// PortfolioRepository is an in-memory portfolio.Repository used in tests
// and local development.
type PortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]*portfolio.Portfolio
}

// NewPortfolioRepository creates an empty in-memory repository
func NewPortfolioRepository() *PortfolioRepository {
	return &PortfolioRepository{
		portfolios: make(map[uuid.UUID]*portfolio.Portfolio),
	}
}

// GetByID returns a copy of the stored portfolio
func (r *PortfolioRepository) GetByID(_ context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.portfolios[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", id)
	}
	return clonePortfolio(p), nil
}

// ListByUser returns copies of all portfolios owned by a user
func (r *PortfolioRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*portfolio.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*portfolio.Portfolio
	for _, p := range r.portfolios {
		if p.UserID == userID {
			out = append(out, clonePortfolio(p))
		}
	}
	return out, nil
}

// Create stores a portfolio
func (r *PortfolioRepository) Create(_ context.Context, p *portfolio.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.portfolios[p.ID]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "portfolio %s", p.ID)
	}
	r.portfolios[p.ID] = clonePortfolio(p)
	return nil
}

// Update replaces the portfolio name
func (r *PortfolioRepository) Update(_ context.Context, p *portfolio.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.portfolios[p.ID]
	if !ok {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", p.ID)
	}
	stored.Name = p.Name
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a portfolio
func (r *PortfolioRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.portfolios[id]; !ok {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", id)
	}
	delete(r.portfolios, id)
	return nil
}

// AddHolding inserts or replaces a position by symbol
func (r *PortfolioRepository) AddHolding(_ context.Context, portfolioID uuid.UUID, h *portfolio.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[portfolioID]
	if !ok {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", portfolioID)
	}

	for i := range p.Holdings {
		if strings.EqualFold(p.Holdings[i].Symbol, h.Symbol) {
			p.Holdings[i] = *h
			return nil
		}
	}
	p.Holdings = append(p.Holdings, *h)
	return nil
}

// RemoveHolding deletes a position by symbol
func (r *PortfolioRepository) RemoveHolding(_ context.Context, portfolioID uuid.UUID, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[portfolioID]
	if !ok {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", portfolioID)
	}

	for i := range p.Holdings {
		if strings.EqualFold(p.Holdings[i].Symbol, symbol) {
			p.Holdings = append(p.Holdings[:i], p.Holdings[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "holding %s", symbol)
}

// UpdateHoldingPrices refreshes current prices for the given symbols
func (r *PortfolioRepository) UpdateHoldingPrices(_ context.Context, portfolioID uuid.UUID, prices map[string]decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[portfolioID]
	if !ok {
		return errors.Wrapf(errors.ErrPortfolioNotFound, "id %s", portfolioID)
	}

	now := time.Now().UTC()
	for i := range p.Holdings {
		if price, found := prices[strings.ToUpper(p.Holdings[i].Symbol)]; found {
			p.Holdings[i].CurrentPrice = price
			p.Holdings[i].UpdatedAt = now
		}
	}
	return nil
}

func clonePortfolio(p *portfolio.Portfolio) *portfolio.Portfolio {
	clone := *p
	clone.Holdings = make([]portfolio.Holding, len(p.Holdings))
	copy(clone.Holdings, p.Holdings)
	return &clone
}
