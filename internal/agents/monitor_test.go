package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/internal/domain/analysis"
	"fincopilot/pkg/errors"
)

func newTestMonitorAgent(reasoner *stubReasoner) *MonitorAgent {
	return NewMonitorAgent(reasoner, 100, 50)
}

func TestAnalyzeHealth_EmptyPortfolio(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	p := testPortfolio()
	report, err := agent.AnalyzeHealth(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.HealthScore)
	assert.Equal(t, "critical", report.Status)
	assert.Equal(t, "No holdings to analyze", report.Narrative)
}

func TestAnalyzeHealth_WinnersScoreWell(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{response: "healthy"})

	// Five winners, each up 25%: +20 return, +15 win rate, +5 breadth
	p := testPortfolio(
		testHolding("A", 1, 100, 125),
		testHolding("B", 1, 100, 125),
		testHolding("C", 1, 100, 125),
		testHolding("D", 1, 100, 125),
		testHolding("E", 1, 100, 125),
	)

	report, err := agent.AnalyzeHealth(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 90.0, report.HealthScore)
	assert.Equal(t, "excellent", report.Status)
	assert.Equal(t, 5, report.Metrics.WinningCount)
	assert.Equal(t, 0, report.Metrics.LosingCount)
	assert.Empty(t, report.Alerts)
}

func TestAnalyzeHealth_Alerts(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	// One deep loss, one moderate loss, one oversized position
	p := testPortfolio(
		testHolding("DEEP", 1, 100, 75),  // -25%: high severity loss
		testHolding("SOFT", 1, 100, 88),  // -12%: medium severity loss
		testHolding("BIG", 10, 100, 100), // dominant weight: concentration
	)

	report, err := agent.AnalyzeHealth(context.Background(), p)
	require.NoError(t, err)

	byType := map[string][]analysis.Alert{}
	for _, a := range report.Alerts {
		byType[a.Type] = append(byType[a.Type], a)
	}

	require.Len(t, byType["loss"], 2)
	assert.Equal(t, analysis.SeverityHigh, byType["loss"][0].Severity)
	assert.Equal(t, "DEEP", byType["loss"][0].Symbol)
	assert.Equal(t, analysis.SeverityMedium, byType["loss"][1].Severity)

	require.Len(t, byType["concentration"], 1)
	assert.Equal(t, "BIG", byType["concentration"][0].Symbol)
}

func TestAnalyzeHealth_PortfolioLossAlert(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	// Both down 20%: portfolio-level performance alert fires below -15%
	p := testPortfolio(
		testHolding("A", 1, 100, 80),
		testHolding("B", 1, 100, 80),
	)

	report, err := agent.AnalyzeHealth(context.Background(), p)
	require.NoError(t, err)

	var found bool
	for _, a := range report.Alerts {
		if a.Type == "performance" {
			found = true
			assert.Equal(t, analysis.SeverityHigh, a.Severity)
		}
	}
	assert.True(t, found, "expected a performance alert")
}

func TestCheckDrift(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	// 100% stock portfolio against a 60/40 target: drift 40+40=80
	p := testPortfolio(testHolding("AAPL", 10, 100, 100))
	target := map[string]float64{"stock": 60, "bond": 40}

	report, err := agent.CheckDrift(p, target)
	require.NoError(t, err)

	assert.True(t, report.NeedsRebalancing)
	assert.Equal(t, 80.0, report.TotalDrift)
	assert.Equal(t, 40.0, report.DriftByType["stock"])
	assert.Equal(t, -40.0, report.DriftByType["bond"])
}

func TestCheckDrift_WithinTolerance(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	p := testPortfolio(testHolding("AAPL", 10, 100, 100))
	target := map[string]float64{"stock": 98}

	report, err := agent.CheckDrift(p, target)
	require.NoError(t, err)

	// Total drift 2% stays under the 5% threshold
	assert.False(t, report.NeedsRebalancing)
	assert.Equal(t, "Allocation is within tolerance", report.Recommendation)
}

func TestCheckDrift_EmptyTarget(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	_, err := agent.CheckDrift(testPortfolio(), map[string]float64{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestSuggestRebalancing(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	// 50 / 30 / 20 against an equal-weight 33.3% target
	p := testPortfolio(
		testHolding("AAPL", 5, 100, 100), // 50%, drift +16.7 -> SELL
		testHolding("MSFT", 3, 100, 100), // 30%, drift -3.3 -> BUY
		testHolding("GOOG", 2, 100, 100), // 20%, drift -13.3 -> BUY
	)

	plan, err := agent.SuggestRebalancing(p)
	require.NoError(t, err)

	assert.Equal(t, "equal_weight", plan.Strategy)
	require.Len(t, plan.Trades, 3)

	// Largest absolute drift first
	assert.Equal(t, "AAPL", plan.Trades[0].Symbol)
	assert.Equal(t, "SELL", plan.Trades[0].Action)
	assert.InDelta(t, 166.67, plan.Trades[0].EstimatedAmount, 0.01)

	assert.Equal(t, "GOOG", plan.Trades[1].Symbol)
	assert.Equal(t, "BUY", plan.Trades[1].Action)

	assert.Equal(t, "MSFT", plan.Trades[2].Symbol)
	assert.Equal(t, "BUY", plan.Trades[2].Action)
}

func TestSuggestRebalancing_AlreadyBalanced(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	p := testPortfolio(
		testHolding("A", 1, 100, 100),
		testHolding("B", 1, 100, 100),
	)

	plan, err := agent.SuggestRebalancing(p)
	require.NoError(t, err)
	assert.Empty(t, plan.Trades)
	assert.Equal(t, 0.0, plan.EstimatedTurnover)
}

func TestSuggestRebalancing_EmptyPortfolio(t *testing.T) {
	agent := newTestMonitorAgent(&stubReasoner{})

	_, err := agent.SuggestRebalancing(testPortfolio())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyPortfolio))
}
