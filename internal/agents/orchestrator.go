package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fincopilot/internal/adapters/config"
	"fincopilot/internal/domain/analysis"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/internal/metrics"
	"fincopilot/internal/rag"
	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

const latestAnalysisKey = "latest_analysis"

// Orchestrator fans portfolio analysis out across the specialist agents and
// assembles the composite report. Operations on the same portfolio are
// serialized; a single failing agent degrades its section instead of
// failing the whole analysis.
type Orchestrator struct {
	equity     *EquityAgent
	trend      *MarketTrendAgent
	news       *NewsAgent
	risk       *RiskAgent
	monitor    *MonitorAgent
	portfolios portfolio.Repository
	states     *StateStore
	retrieval  rag.Engine // optional, nil disables retrieval context
	cfg        config.AgentsConfig
	log        *logger.Logger
}

// NewOrchestrator creates the agent orchestrator
func NewOrchestrator(
	equity *EquityAgent,
	trend *MarketTrendAgent,
	newsAgent *NewsAgent,
	risk *RiskAgent,
	monitor *MonitorAgent,
	portfolios portfolio.Repository,
	retrieval rag.Engine,
	cfg config.AgentsConfig,
) *Orchestrator {
	return &Orchestrator{
		equity:     equity,
		trend:      trend,
		news:       newsAgent,
		risk:       risk,
		monitor:    monitor,
		portfolios: portfolios,
		states:     NewStateStore(),
		retrieval:  retrieval,
		cfg:        cfg,
		log:        logger.Get().With("component", "orchestrator"),
	}
}

// fanoutResult carries one agent's output back to the collector. index is
// only meaningful for per-holding equity results.
type fanoutResult struct {
	kind     string
	index    int
	data     any
	err      error
	duration time.Duration
}

// AnalyzePortfolio runs the full multi-agent analysis for one portfolio
func (o *Orchestrator) AnalyzePortfolio(ctx context.Context, portfolioID, userID uuid.UUID) (*analysis.PortfolioAnalysisReport, error) {
	unlock := o.states.Lock(portfolioID.String())
	defer unlock()

	return o.analyze(ctx, portfolioID, userID)
}

// analyze is AnalyzePortfolio without the per-portfolio lock; callers must
// hold it
func (o *Orchestrator) analyze(ctx context.Context, portfolioID, userID uuid.UUID) (*analysis.PortfolioAnalysisReport, error) {
	state := o.states.Get(portfolioID.String(), userID.String())

	p, err := o.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, errors.Wrapf(err, "load portfolio %s", portfolioID)
	}
	p.NormalizeSymbols()

	holdings := p.Holdings
	if max := o.cfg.MaxHoldingsAnalyzed; max > 0 && len(holdings) > max {
		holdings = holdings[:max]
	}

	o.log.Infof("Starting analysis of portfolio %s (%d holdings)", portfolioID, len(holdings))
	startTime := time.Now()

	var wg sync.WaitGroup
	results := make(chan fanoutResult, len(holdings)+4)

	run := func(kind string, index int, fn func() (any, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			agentStart := time.Now()
			data, err := fn()
			results <- fanoutResult{
				kind:     kind,
				index:    index,
				data:     data,
				err:      err,
				duration: time.Since(agentStart),
			}
		}()
	}

	for i, h := range holdings {
		symbol := h.Symbol
		run("equity", i, func() (any, error) {
			return o.equity.AnalyzeStock(ctx, symbol)
		})
	}
	run("news", 0, func() (any, error) {
		return o.news.PortfolioNews(ctx, p.Symbols())
	})
	run("market", 0, func() (any, error) {
		return o.trend.MarketOverview(ctx)
	})
	run("risk", 0, func() (any, error) {
		return o.risk.AssessRisk(ctx, p)
	})
	run("health", 0, func() (any, error) {
		return o.monitor.AnalyzeHealth(ctx, p)
	})

	wg.Wait()
	close(results)

	stockSlots := make([]*analysis.StockAnalysis, len(holdings))
	report := &analysis.PortfolioAnalysisReport{
		PortfolioID:  portfolioID.String(),
		AnalysisDate: time.Now().UTC(),
		NewsSummary:  analysis.NewsSummary{GeneratedAt: time.Now().UTC()},
		MarketOverview: analysis.MarketOverview{
			Indices:   map[string]analysis.IndexQuote{},
			Timestamp: time.Now().UTC(),
		},
	}

	for result := range results {
		metrics.RecordAgentExecution(result.kind, "analyze_portfolio", result.duration, result.err)

		if result.err != nil {
			o.log.Errorf("Section %s failed: %v (duration: %v)", result.kind, result.err, result.duration)
			continue
		}

		switch result.kind {
		case "equity":
			stockSlots[result.index] = result.data.(*analysis.StockAnalysis)
		case "news":
			report.NewsSummary = *result.data.(*analysis.NewsSummary)
		case "market":
			report.MarketOverview = *result.data.(*analysis.MarketOverview)
		case "risk":
			report.RiskAssessment = *result.data.(*analysis.RiskAssessment)
		case "health":
			report.PortfolioHealth = *result.data.(*analysis.PortfolioHealthReport)
		}
	}

	// Failed holdings drop out; survivors keep their launch order.
	report.HoldingsAnalysis = make([]analysis.StockAnalysis, 0, len(stockSlots))
	for _, s := range stockSlots {
		if s != nil {
			report.HoldingsAnalysis = append(report.HoldingsAnalysis, *s)
		}
	}

	report.Recommendations = o.generateRecommendations(ctx, report)

	state.SetResult(latestAnalysisKey, report)
	state.CompleteStep("full_analysis")

	o.log.Infof("Analysis of portfolio %s complete: %d/%d holdings analyzed (duration: %v)",
		portfolioID, len(report.HoldingsAnalysis), len(holdings), time.Since(startTime))

	return report, nil
}

// GetRecommendations returns the recommendations from the latest analysis,
// running a fresh analysis only when none is cached
func (o *Orchestrator) GetRecommendations(ctx context.Context, portfolioID, userID uuid.UUID) ([]string, error) {
	unlock := o.states.Lock(portfolioID.String())
	defer unlock()

	state := o.states.Get(portfolioID.String(), userID.String())
	if v, ok := state.GetResult(latestAnalysisKey); ok {
		if cached, isReport := v.(*analysis.PortfolioAnalysisReport); isReport {
			return cached.Recommendations, nil
		}
	}

	report, err := o.analyze(ctx, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	return report.Recommendations, nil
}

// Chat answers a free-form question by routing it to the best suited agent
func (o *Orchestrator) Chat(ctx context.Context, portfolioID, userID uuid.UUID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.Wrapf(errors.ErrInvalidInput, "empty message")
	}

	unlock := o.states.Lock(portfolioID.String())
	defer unlock()

	state := o.states.Get(portfolioID.String(), userID.String())
	state.AddMessage("user", message)

	contextInfo := o.chatContext(ctx, portfolioID, message)

	agent := o.routeMessage(message)
	answer := agent.Reason(ctx, message, contextInfo)

	state.AddMessage("assistant", answer)
	return answer, nil
}

// routeMessage picks the agent whose domain matches the message keywords.
// Earlier rules win; unmatched messages go to equity research.
func (o *Orchestrator) routeMessage(message string) interface {
	Reason(ctx context.Context, taskPrompt, contextInfo string) string
} {
	text := strings.ToLower(message)

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("news", "headline", "article"):
		return o.news
	case containsAny("risk", "volatility", "drawdown"):
		return o.risk
	case containsAny("trend", "technical", "chart", "price"):
		return o.trend
	case containsAny("portfolio", "allocation", "rebalance"):
		return o.monitor
	default:
		return o.equity
	}
}

// chatContext builds the context block for a chat turn: a portfolio summary
// plus any retrieved knowledge. Both parts are best effort.
func (o *Orchestrator) chatContext(ctx context.Context, portfolioID uuid.UUID, message string) string {
	var sb strings.Builder

	if p, err := o.portfolios.GetByID(ctx, portfolioID); err == nil {
		fmt.Fprintf(&sb, "Portfolio %q: %d holdings, total value %.2f, total return %.2f%%\n",
			p.Name, len(p.Holdings), p.TotalValue(), p.TotalReturnPercent())
		fmt.Fprintf(&sb, "Symbols: %s\n", strings.Join(p.Symbols(), ", "))
	} else {
		o.log.Debugf("Portfolio %s unavailable for chat context: %v", portfolioID, err)
	}

	if o.retrieval != nil {
		if extra, err := o.retrieval.Query(ctx, message); err == nil && extra != "" {
			sb.WriteString("\nRelevant knowledge:\n")
			sb.WriteString(extra)
		} else if err != nil {
			o.log.Debugf("Retrieval failed for chat context: %v", err)
		}
	}

	return sb.String()
}

// generateRecommendations asks the LLM for action items over the assembled
// report and parses out the list lines
func (o *Orchestrator) generateRecommendations(ctx context.Context, report *analysis.PortfolioAnalysisReport) []string {
	var sb strings.Builder
	for _, s := range report.HoldingsAnalysis {
		fmt.Fprintf(&sb, "%s: %s (confidence %.1f)\n", s.Symbol, s.Recommendation, s.Confidence)
	}
	fmt.Fprintf(&sb, "Risk level: %s (score %.1f)\n", report.RiskAssessment.RiskLevel, report.RiskAssessment.RiskScore)
	fmt.Fprintf(&sb, "Health: %s (score %.0f)\n", report.PortfolioHealth.Status, report.PortfolioHealth.HealthScore)
	fmt.Fprintf(&sb, "News sentiment: %s\n", report.NewsSummary.OverallSentiment)

	narrative := o.equity.Reason(ctx,
		"Based on this analysis, list up to 5 specific actionable recommendations for the portfolio owner. One per line.",
		sb.String(),
	)

	return parseRecommendations(narrative, 5)
}

// parseRecommendations extracts list items: lines opening with a digit, a
// dash or a bullet
func parseRecommendations(text string, limit int) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		first := rune(line[0])
		if !(first >= '0' && first <= '9') && first != '-' && !strings.HasPrefix(line, "•") {
			continue
		}

		line = strings.TrimLeft(line, "0123456789.-)• \t")
		if line == "" {
			continue
		}

		recs = append(recs, line)
		if len(recs) == limit {
			break
		}
	}
	return recs
}
