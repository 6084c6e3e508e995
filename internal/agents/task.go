package agents

import (
	"fincopilot/internal/domain/portfolio"
)

// TaskType identifies an agent operation.
type TaskType string

const (
	TaskAnalyzeStock       TaskType = "analyze_stock"
	TaskComparePeers       TaskType = "compare_peers"
	TaskCalculateValuation TaskType = "calculate_valuation"

	TaskAnalyzeTrend      TaskType = "analyze_trend"
	TaskMarketOverview    TaskType = "market_overview"
	TaskSectorPerformance TaskType = "sector_performance"

	TaskFetchNews     TaskType = "fetch_news"
	TaskPortfolioNews TaskType = "portfolio_news"

	TaskAssessRisk  TaskType = "assess_risk"
	TaskProfileRisk TaskType = "profile_risk"

	TaskAnalyzeHealth      TaskType = "analyze_health"
	TaskCheckDrift         TaskType = "check_drift"
	TaskSuggestRebalancing TaskType = "suggest_rebalancing"
)

// Task is a single unit of work dispatched to an agent. Only the fields
// relevant to the task type are populated.
type Task struct {
	Type      TaskType
	Symbol    string
	Symbols   []string
	Timeframe string
	Limit     int
	Portfolio *portfolio.Portfolio
	Answers   map[string]string
	Target    map[string]float64
}

// Result wraps a typed agent output.
type Result struct {
	Type TaskType
	Data any
}
