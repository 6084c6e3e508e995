package marketdata

import (
	"context"
	"time"
)

// Quote is a current price snapshot for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	PreviousClose float64   `json:"previous_close"`
	Timestamp     time.Time `json:"timestamp"`
}

// Fundamentals carries company metrics. A zero value means the metric is
// unavailable; consumers treat zero as missing.
type Fundamentals struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Sector         string  `json:"sector"`
	Industry       string  `json:"industry"`
	MarketCap      float64 `json:"market_cap"`
	PERatio        float64 `json:"pe_ratio"`
	PBRatio        float64 `json:"pb_ratio"`
	DividendYield  float64 `json:"dividend_yield"`
	EPS            float64 `json:"eps"`
	Revenue        float64 `json:"revenue"`
	ProfitMargin   float64 `json:"profit_margin"`
	DebtToEquity   float64 `json:"debt_to_equity"`
	ROE            float64 `json:"roe"`
	Beta           float64 `json:"beta"`
	FiftyTwoWeekHi float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLo float64 `json:"fifty_two_week_low"`
}

// Bar is one OHLCV candle.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Provider supplies market data to the agents. Callers convert any error
// into default-shaped results; a provider failure never fails an analysis.
type Provider interface {
	GetPrice(ctx context.Context, symbol string) (Quote, error)
	GetFundamentals(ctx context.Context, symbol string) (Fundamentals, error)
	GetHistoricalBars(ctx context.Context, symbol string, period string) ([]Bar, error)
	GetPeers(ctx context.Context, symbol string) ([]string, error)
}
