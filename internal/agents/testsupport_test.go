package agents

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fincopilot/internal/adapters/marketdata"
	"fincopilot/internal/adapters/news"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

// stubReasoner returns a canned response and records every prompt.
type stubReasoner struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (r *stubReasoner) Name() string { return "stub" }

func (r *stubReasoner) Generate(_ context.Context, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	if r.err != nil {
		return "", r.err
	}
	return r.response, nil
}

func (r *stubReasoner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

// stubMarket serves fixture data per symbol. Missing symbols error.
type stubMarket struct {
	quotes       map[string]marketdata.Quote
	fundamentals map[string]marketdata.Fundamentals
	bars         map[string][]marketdata.Bar
	peers        map[string][]string
}

func newStubMarket() *stubMarket {
	return &stubMarket{
		quotes:       map[string]marketdata.Quote{},
		fundamentals: map[string]marketdata.Fundamentals{},
		bars:         map[string][]marketdata.Bar{},
		peers:        map[string][]string{},
	}
}

func (m *stubMarket) GetPrice(_ context.Context, symbol string) (marketdata.Quote, error) {
	q, ok := m.quotes[symbol]
	if !ok {
		return marketdata.Quote{}, errors.Wrapf(errors.ErrDataUnavailable, "no quote for %s", symbol)
	}
	return q, nil
}

func (m *stubMarket) GetFundamentals(_ context.Context, symbol string) (marketdata.Fundamentals, error) {
	f, ok := m.fundamentals[symbol]
	if !ok {
		return marketdata.Fundamentals{}, errors.Wrapf(errors.ErrDataUnavailable, "no fundamentals for %s", symbol)
	}
	return f, nil
}

func (m *stubMarket) GetHistoricalBars(_ context.Context, symbol, _ string) ([]marketdata.Bar, error) {
	bars, ok := m.bars[symbol]
	if !ok {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "no bars for %s", symbol)
	}
	return bars, nil
}

func (m *stubMarket) GetPeers(_ context.Context, symbol string) ([]string, error) {
	peers, ok := m.peers[symbol]
	if !ok {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "no peers for %s", symbol)
	}
	return peers, nil
}

// stubNews serves fixture articles per symbol. Missing symbols error.
type stubNews struct {
	articles map[string][]news.Article
}

func (n *stubNews) GetArticles(_ context.Context, symbol string, limit int) ([]news.Article, error) {
	arts, ok := n.articles[symbol]
	if !ok {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "no news for %s", symbol)
	}
	if limit > 0 && len(arts) > limit {
		arts = arts[:limit]
	}
	return arts, nil
}

func testHolding(symbol string, qty, avgCost, price float64) portfolio.Holding {
	return portfolio.Holding{
		ID:           uuid.New(),
		Symbol:       symbol,
		AssetType:    portfolio.AssetStock,
		Quantity:     decimal.NewFromFloat(qty),
		AvgCost:      decimal.NewFromFloat(avgCost),
		CurrentPrice: decimal.NewFromFloat(price),
		UpdatedAt:    time.Now().UTC(),
	}
}

func testPortfolio(holdings ...portfolio.Holding) *portfolio.Portfolio {
	p := &portfolio.Portfolio{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "Test Portfolio",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	for _, h := range holdings {
		h.PortfolioID = p.ID
		p.Holdings = append(p.Holdings, h)
	}
	return p
}
