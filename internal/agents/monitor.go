package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/domain/analysis"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

// Compile-time check
var _ Agent = (*MonitorAgent)(nil)

// MonitorAgent watches portfolio health, allocation drift and rebalancing.
type MonitorAgent struct {
	baseAgent
}

// NewMonitorAgent creates the portfolio health agent
func NewMonitorAgent(reasoner ai.Reasoner, memoryLimit, memoryKeep int) *MonitorAgent {
	return &MonitorAgent{
		baseAgent: newBaseAgent(
			"PortfolioHealthAgent",
			"Monitors portfolio performance, allocation drift and rebalancing needs.",
			reasoner, memoryLimit, memoryKeep,
		),
	}
}

// Execute dispatches a task to the matching operation
func (a *MonitorAgent) Execute(ctx context.Context, task Task) (*Result, error) {
	switch task.Type {
	case TaskAnalyzeHealth:
		out, err := a.AnalyzeHealth(ctx, task.Portfolio)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskCheckDrift:
		out, err := a.CheckDrift(task.Portfolio, task.Target)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskSuggestRebalancing:
		out, err := a.SuggestRebalancing(task.Portfolio)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTaskType, "monitor agent: %s", task.Type)
	}
}

// AnalyzeHealth scores the portfolio on [0,100] from returns, win rate and
// holding count, and raises alerts for losses and concentration
func (a *MonitorAgent) AnalyzeHealth(ctx context.Context, p *portfolio.Portfolio) (*analysis.PortfolioHealthReport, error) {
	if p == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "nil portfolio")
	}
	if len(p.Holdings) == 0 {
		return &analysis.PortfolioHealthReport{
			PortfolioID: p.ID.String(),
			HealthScore: 0,
			Status:      "critical",
			Narrative:   "No holdings to analyze",
			AnalyzedAt:  time.Now().UTC(),
		}, nil
	}

	metrics := healthMetrics(p)
	score := healthScore(metrics, len(p.Holdings))
	status := healthStatus(score)
	alerts := healthAlerts(p, metrics)

	contextInfo := fmt.Sprintf(
		"Total return: %.2f%%\nWinning positions: %d\nLosing positions: %d\nBest: %s (%+.2f%%)\nWorst: %s (%+.2f%%)\nHoldings: %d",
		metrics.TotalReturn, metrics.WinningCount, metrics.LosingCount,
		metrics.BestPerformer, metrics.BestReturnPct,
		metrics.WorstPerformer, metrics.WorstReturnPct,
		len(p.Holdings),
	)
	narrative := a.Reason(ctx,
		"Evaluate this portfolio's health and what the owner should pay attention to.",
		contextInfo,
	)

	return &analysis.PortfolioHealthReport{
		PortfolioID: p.ID.String(),
		HealthScore: score,
		Status:      status,
		Metrics:     metrics,
		Narrative:   narrative,
		Alerts:      alerts,
		AnalyzedAt:  time.Now().UTC(),
	}, nil
}

// CheckDrift compares the current allocation by asset type against a target
// allocation in percent. A combined drift above five percent flags the
// portfolio for rebalancing.
func (a *MonitorAgent) CheckDrift(p *portfolio.Portfolio, target map[string]float64) (*analysis.DriftReport, error) {
	if p == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "nil portfolio")
	}
	if len(target) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "empty target allocation")
	}

	current := allocationByType(p)

	drift := map[string]float64{}
	var total float64
	for assetType, targetPct := range target {
		d := current[assetType] - targetPct
		drift[assetType] = round2(d)
		total += math.Abs(d)
	}
	for assetType, currentPct := range current {
		if _, ok := target[assetType]; !ok {
			drift[assetType] = round2(currentPct)
			total += math.Abs(currentPct)
		}
	}

	needsRebalancing := total > 5
	recommendation := "Allocation is within tolerance"
	if needsRebalancing {
		recommendation = "Allocation has drifted from target; consider rebalancing"
	}

	return &analysis.DriftReport{
		TargetAllocation:  target,
		CurrentAllocation: current,
		DriftByType:       drift,
		TotalDrift:        round2(total),
		NeedsRebalancing:  needsRebalancing,
		Recommendation:    recommendation,
	}, nil
}

// SuggestRebalancing proposes trades toward an equal weight allocation.
// Positions within two percent of target are left alone.
func (a *MonitorAgent) SuggestRebalancing(p *portfolio.Portfolio) (*analysis.RebalancePlan, error) {
	if p == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "nil portfolio")
	}
	if len(p.Holdings) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyPortfolio, "nothing to rebalance")
	}

	totalValue := p.TotalValue()
	targetWeight := 100 / float64(len(p.Holdings))

	var trades []analysis.RebalanceTrade
	var turnover float64
	for _, h := range p.Holdings {
		weight := p.Weight(h)
		drift := weight - targetWeight
		if math.Abs(drift) <= 2 {
			continue
		}

		action := "BUY"
		if drift > 0 {
			action = "SELL"
		}
		amount := round2(math.Abs(drift) * totalValue / 100)
		turnover += amount

		trades = append(trades, analysis.RebalanceTrade{
			Symbol:          h.Symbol,
			Action:          action,
			CurrentWeight:   round2(weight),
			TargetWeight:    round2(targetWeight),
			Drift:           round2(drift),
			EstimatedAmount: amount,
		})
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return math.Abs(trades[i].Drift) > math.Abs(trades[j].Drift)
	})

	note := "Portfolio is already close to equal weight"
	if len(trades) > 0 {
		note = fmt.Sprintf("%d trades bring the portfolio back to equal weight", len(trades))
	}

	return &analysis.RebalancePlan{
		Strategy:          "equal_weight",
		Trades:            trades,
		EstimatedTurnover: round2(turnover / 2),
		Note:              note,
	}, nil
}

func healthMetrics(p *portfolio.Portfolio) analysis.HealthMetrics {
	m := analysis.HealthMetrics{
		TotalReturn:    round2(p.TotalReturnPercent()),
		BestReturnPct:  math.Inf(-1),
		WorstReturnPct: math.Inf(1),
	}

	for _, h := range p.Holdings {
		pct := h.GainLossPercent()
		if h.GainLoss() >= 0 {
			m.WinningCount++
		} else {
			m.LosingCount++
		}
		if pct > m.BestReturnPct {
			m.BestReturnPct = pct
			m.BestPerformer = h.Symbol
		}
		if pct < m.WorstReturnPct {
			m.WorstReturnPct = pct
			m.WorstPerformer = h.Symbol
		}
	}

	m.BestReturnPct = round2(m.BestReturnPct)
	m.WorstReturnPct = round2(m.WorstReturnPct)
	return m
}

// healthScore starts at 50 and shifts with total return, win rate and
// breadth, clamped to [0,100]
func healthScore(m analysis.HealthMetrics, numHoldings int) float64 {
	score := 50.0

	switch {
	case m.TotalReturn > 20:
		score += 20
	case m.TotalReturn > 10:
		score += 15
	case m.TotalReturn > 0:
		score += 10
	case m.TotalReturn > -10:
		// no change
	default:
		score -= 10
	}

	positions := m.WinningCount + m.LosingCount
	if positions > 0 {
		winRate := float64(m.WinningCount) / float64(positions)
		switch {
		case winRate > 0.7:
			score += 15
		case winRate > 0.5:
			score += 10
		case winRate > 0.3:
			score += 5
		default:
			score -= 5
		}
	}

	switch {
	case numHoldings >= 10:
		score += 10
	case numHoldings >= 5:
		score += 5
	}

	return analysis.ClampHealthScore(score)
}

func healthStatus(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	case score >= 20:
		return "poor"
	default:
		return "critical"
	}
}

func healthAlerts(p *portfolio.Portfolio, m analysis.HealthMetrics) []analysis.Alert {
	var alerts []analysis.Alert

	for _, h := range p.Holdings {
		pct := h.GainLossPercent()
		switch {
		case pct < -20:
			alerts = append(alerts, analysis.Alert{
				Type:     "loss",
				Severity: analysis.SeverityHigh,
				Symbol:   h.Symbol,
				Message:  fmt.Sprintf("%s is down %.1f%% from cost", h.Symbol, -pct),
			})
		case pct < -10:
			alerts = append(alerts, analysis.Alert{
				Type:     "loss",
				Severity: analysis.SeverityMedium,
				Symbol:   h.Symbol,
				Message:  fmt.Sprintf("%s is down %.1f%% from cost", h.Symbol, -pct),
			})
		}

		if w := p.Weight(h); w > 25 {
			alerts = append(alerts, analysis.Alert{
				Type:     "concentration",
				Severity: analysis.SeverityMedium,
				Symbol:   h.Symbol,
				Message:  fmt.Sprintf("%s is %.1f%% of the portfolio", h.Symbol, w),
			})
		}
	}

	if m.TotalReturn < -15 {
		alerts = append(alerts, analysis.Alert{
			Type:     "performance",
			Severity: analysis.SeverityHigh,
			Message:  fmt.Sprintf("Portfolio is down %.1f%% overall", -m.TotalReturn),
		})
	}

	return alerts
}

// allocationByType sums holding weights per asset type in percent
func allocationByType(p *portfolio.Portfolio) map[string]float64 {
	current := map[string]float64{}
	for _, h := range p.Holdings {
		current[string(h.AssetType)] += p.Weight(h)
	}
	for k, v := range current {
		current[k] = round2(v)
	}
	return current
}
