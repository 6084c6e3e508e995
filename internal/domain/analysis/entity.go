package analysis

import (
	"time"
)

// Recommendation is the investment stance for a single stock.
type Recommendation string

const (
	StrongBuy  Recommendation = "strong_buy"
	Buy        Recommendation = "buy"
	Hold       Recommendation = "hold"
	Sell       Recommendation = "sell"
	StrongSell Recommendation = "strong_sell"
)

// Trend classifies price direction.
type Trend string

const (
	TrendBullish  Trend = "bullish"
	TrendBearish  Trend = "bearish"
	TrendSideways Trend = "sideways"
)

// Sentiment classifies a single news article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// AggregateSentiment classifies a set of articles.
type AggregateSentiment string

const (
	AggregateBullish         AggregateSentiment = "bullish"
	AggregateBearish         AggregateSentiment = "bearish"
	AggregateSlightlyBullish AggregateSentiment = "slightly_bullish"
	AggregateSlightlyBearish AggregateSentiment = "slightly_bearish"
	AggregateNeutral         AggregateSentiment = "neutral"
)

// VolumeTrend classifies recent trading volume against its baseline.
type VolumeTrend string

const (
	VolumeHigh   VolumeTrend = "high"
	VolumeLow    VolumeTrend = "low"
	VolumeNormal VolumeTrend = "normal"
)

// AlertSeverity grades a portfolio alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert is a single portfolio warning.
type Alert struct {
	Type     string        `json:"type"`
	Severity AlertSeverity `json:"severity"`
	Symbol   string        `json:"symbol,omitempty"`
	Message  string        `json:"message"`
}

// StockAnalysis is the equity agent's output for one symbol.
// Immutable once constructed.
type StockAnalysis struct {
	Symbol         string         `json:"symbol"`
	AnalysisDate   time.Time      `json:"analysis_date"`
	Recommendation Recommendation `json:"recommendation"`
	TargetPrice    *float64       `json:"target_price,omitempty"`
	Confidence     float64        `json:"confidence_score"`
	Summary        string         `json:"summary"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Opportunities  []string       `json:"opportunities"`
	Threats        []string       `json:"threats"`
	SentimentScore *float64       `json:"sentiment_score,omitempty"`
}

// MACD is the simplified convergence-divergence proxy: the difference of
// the 12 and 26 sample trailing means, not true exponential averages.
type MACD struct {
	Line   float64 `json:"macd_line"`
	Signal Trend   `json:"signal"`
}

// MarketTrend is the market trend agent's technical read on one symbol.
type MarketTrend struct {
	Symbol           string             `json:"symbol"`
	Timeframe        string             `json:"timeframe"`
	Trend            Trend              `json:"trend"`
	SupportLevels    []float64          `json:"support_levels"`
	ResistanceLevels []float64          `json:"resistance_levels"`
	MovingAverages   map[string]float64 `json:"moving_averages"`
	RSI              *float64           `json:"rsi,omitempty"`
	MACD             *MACD              `json:"macd,omitempty"`
	VolumeTrend      VolumeTrend        `json:"volume_trend"`
	Narrative        string             `json:"analysis"`
}

// IndexQuote is one index entry inside a market overview; a failed fetch
// keeps the entry with Err set instead of dropping it.
type IndexQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Err           string  `json:"error,omitempty"`
}

// MarketOverview summarizes the major indices.
type MarketOverview struct {
	Indices    map[string]IndexQuote `json:"indices"`
	Commentary string                `json:"commentary"`
	Timestamp  time.Time             `json:"timestamp"`
}

// SectorQuote is one sector ETF entry inside a sector performance report.
type SectorQuote struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"change_percent"`
	Err           string  `json:"error,omitempty"`
}

// SectorPerformance ranks sectors by daily change.
type SectorPerformance struct {
	Sectors   map[string]SectorQuote `json:"sectors"`
	Leaders   []string               `json:"leaders"`
	Laggards  []string               `json:"laggards"`
	Narrative string                 `json:"analysis"`
	Timestamp time.Time              `json:"timestamp"`
}

// PeerComparison ranks a symbol among up to four peers.
type PeerComparison struct {
	Symbol    string                        `json:"symbol"`
	Peers     []string                      `json:"peers"`
	Metrics   map[string]map[string]float64 `json:"metrics_comparison"`
	Ranking   map[string]int                `json:"ranking"`
	Narrative string                        `json:"analysis"`
}

// ValuationResult is the equity agent's intrinsic value estimate.
type ValuationResult struct {
	Symbol        string             `json:"symbol"`
	CurrentPrice  float64            `json:"current_price"`
	Methods       map[string]float64 `json:"valuation_methods"`
	AvgFairValue  float64            `json:"average_fair_value"`
	UpsidePercent float64            `json:"upside_potential"`
	Verdict       string             `json:"verdict"`
}

// NewsItem is one scored article.
type NewsItem struct {
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"published_at"`
	Summary        string    `json:"summary"`
	Sentiment      Sentiment `json:"sentiment"`
	RelevanceScore float64   `json:"relevance_score"`
	RelatedSymbols []string  `json:"related_symbols"`
}

// NewsSummary aggregates portfolio-wide news.
type NewsSummary struct {
	Symbols          []string              `json:"symbols"`
	NewsBySymbol     map[string][]NewsItem `json:"news_by_symbol"`
	RecentNews       []NewsItem            `json:"recent_news"`
	Summary          string                `json:"summary"`
	OverallSentiment AggregateSentiment    `json:"overall_sentiment"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

// RiskMetrics carries portfolio-level risk numbers.
type RiskMetrics struct {
	EstimatedVolatility float64 `json:"estimated_volatility"`
	EstimatedBeta       float64 `json:"estimated_beta"`
	VaR95               float64 `json:"var_95"`
}

// Diversification grades holding concentration via HHI.
type Diversification struct {
	NumHoldings    int     `json:"num_holdings"`
	HHI            float64 `json:"hhi_index"`
	Level          string  `json:"diversification_level"`
	Score          int     `json:"diversification_score"`
	Recommendation string  `json:"recommendation"`
}

// Concentration reports top-holding weights.
type Concentration struct {
	TopHolding       string  `json:"top_holding"`
	TopHoldingWeight float64 `json:"top_holding_weight"`
	Top3Weight       float64 `json:"top_3_weight"`
	Risk             string  `json:"concentration_risk"`
}

// RiskAssessment is the risk agent's portfolio output. Score is on [1,10].
type RiskAssessment struct {
	PortfolioID     string          `json:"portfolio_id"`
	RiskScore       float64         `json:"risk_score"`
	RiskLevel       string          `json:"risk_level"`
	Metrics         RiskMetrics     `json:"metrics"`
	Diversification Diversification `json:"diversification"`
	Concentration   Concentration   `json:"concentration"`
	Narrative       string          `json:"analysis"`
	Recommendations []string        `json:"recommendations"`
	AssessedAt      time.Time       `json:"assessed_at"`
}

// RiskProfile is the questionnaire-based user profile.
type RiskProfile struct {
	Profile     string         `json:"risk_profile"`
	Score       float64        `json:"risk_score"`
	Description string         `json:"description"`
	Allocation  map[string]int `json:"recommended_allocation"`
	Horizon     string         `json:"investment_horizon"`
	Suggestions []string       `json:"suggestions"`
}

// HealthMetrics carries per-portfolio performance counters.
type HealthMetrics struct {
	TotalReturn     float64 `json:"total_return"`
	WinningCount    int     `json:"winning_positions"`
	LosingCount     int     `json:"losing_positions"`
	BestPerformer   string  `json:"best_performer"`
	WorstPerformer  string  `json:"worst_performer"`
	BestReturnPct   float64 `json:"best_return_percent"`
	WorstReturnPct  float64 `json:"worst_return_percent"`
}

// PortfolioHealthReport is the monitor agent's output. Score is on [0,100].
type PortfolioHealthReport struct {
	PortfolioID string        `json:"portfolio_id"`
	HealthScore float64       `json:"health_score"`
	Status      string        `json:"status"`
	Metrics     HealthMetrics `json:"metrics"`
	Narrative   string        `json:"analysis"`
	Alerts      []Alert       `json:"alerts"`
	AnalyzedAt  time.Time     `json:"analyzed_at"`
}

// DriftReport compares current vs target allocation.
type DriftReport struct {
	TargetAllocation  map[string]float64 `json:"target_allocation"`
	CurrentAllocation map[string]float64 `json:"current_allocation"`
	DriftByType       map[string]float64 `json:"drift_by_type"`
	TotalDrift        float64            `json:"total_drift"`
	NeedsRebalancing  bool               `json:"needs_rebalancing"`
	Recommendation    string             `json:"recommendation"`
}

// RebalanceTrade is one suggested adjustment.
type RebalanceTrade struct {
	Symbol          string  `json:"symbol"`
	Action          string  `json:"action"` // BUY or SELL
	CurrentWeight   float64 `json:"current_weight"`
	TargetWeight    float64 `json:"target_weight"`
	Drift           float64 `json:"drift"`
	EstimatedAmount float64 `json:"estimated_amount"`
}

// RebalancePlan lists suggested trades, largest drift first.
type RebalancePlan struct {
	Strategy          string           `json:"strategy"`
	Trades            []RebalanceTrade `json:"trades"`
	EstimatedTurnover float64          `json:"estimated_turnover"`
	Note              string           `json:"note"`
}

// PortfolioAnalysisReport is the composite produced by the orchestrator.
// Holdings analyses preserve the order of the (truncated) holdings list
// with failed entries filtered out.
type PortfolioAnalysisReport struct {
	PortfolioID      string                 `json:"portfolio_id"`
	AnalysisDate     time.Time              `json:"analysis_date"`
	HoldingsAnalysis []StockAnalysis        `json:"holdings_analysis"`
	NewsSummary      NewsSummary            `json:"news_summary"`
	MarketOverview   MarketOverview         `json:"market_overview"`
	RiskAssessment   RiskAssessment         `json:"risk_assessment"`
	PortfolioHealth  PortfolioHealthReport  `json:"portfolio_health"`
	Recommendations  []string               `json:"recommendations"`
}
