package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType categorizes a holding for allocation and drift checks.
type AssetType string

const (
	AssetStock AssetType = "stock"
	AssetETF   AssetType = "etf"
	AssetBond  AssetType = "bond"
	AssetCash  AssetType = "cash"
)

// Holding is a single position inside a portfolio. Monetary fields are
// decimals; the analysis layer consumes the float accessors.
type Holding struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	PortfolioID  uuid.UUID       `db:"portfolio_id" json:"portfolio_id"`
	Symbol       string          `db:"symbol" json:"symbol"`
	AssetType    AssetType       `db:"asset_type" json:"asset_type"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	AvgCost      decimal.Decimal `db:"avg_cost" json:"avg_cost"`
	CurrentPrice decimal.Decimal `db:"current_price" json:"current_price"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// CurrentValue returns quantity * current price.
func (h Holding) CurrentValue() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// Invested returns quantity * average cost.
func (h Holding) Invested() decimal.Decimal {
	return h.Quantity.Mul(h.AvgCost)
}

// Value returns the current market value as float64 for analytics.
func (h Holding) Value() float64 {
	return h.CurrentValue().InexactFloat64()
}

// GainLoss returns the absolute unrealized gain or loss.
func (h Holding) GainLoss() float64 {
	return h.CurrentValue().Sub(h.Invested()).InexactFloat64()
}

// GainLossPercent returns the unrealized return in percent. Zero invested
// capital yields zero rather than a division error.
func (h Holding) GainLossPercent() float64 {
	invested := h.Invested()
	if invested.IsZero() {
		return 0
	}
	return h.CurrentValue().Sub(invested).Div(invested).InexactFloat64() * 100
}

// Portfolio aggregates a user's holdings.
type Portfolio struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Holdings  []Holding `json:"holdings"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TotalValue returns the current market value of all holdings.
func (p *Portfolio) TotalValue() float64 {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.CurrentValue())
	}
	return total.InexactFloat64()
}

// TotalInvested returns the total cost basis.
func (p *Portfolio) TotalInvested() float64 {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.Invested())
	}
	return total.InexactFloat64()
}

// TotalReturnPercent returns the portfolio-level unrealized return in percent.
func (p *Portfolio) TotalReturnPercent() float64 {
	invested := p.TotalInvested()
	if invested == 0 {
		return 0
	}
	return (p.TotalValue() - invested) / invested * 100
}

// Weight returns the value share of a holding in percent of total value.
func (p *Portfolio) Weight(h Holding) float64 {
	total := p.TotalValue()
	if total == 0 {
		return 0
	}
	return h.Value() / total * 100
}

// Symbols returns the upper-cased symbols of all holdings, in order.
func (p *Portfolio) Symbols() []string {
	out := make([]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		out = append(out, strings.ToUpper(h.Symbol))
	}
	return out
}

// NormalizeSymbols upper-cases all holding symbols in place.
func (p *Portfolio) NormalizeSymbols() {
	for i := range p.Holdings {
		p.Holdings[i].Symbol = strings.ToUpper(p.Holdings[i].Symbol)
	}
}
