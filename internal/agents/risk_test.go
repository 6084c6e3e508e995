package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/internal/domain/analysis"
	"fincopilot/internal/domain/portfolio"
)

func newTestRiskAgent(reasoner *stubReasoner, market *stubMarket) *RiskAgent {
	return NewRiskAgent(reasoner, market, 100, 50)
}

func TestAssessDiversification_HHITiers(t *testing.T) {
	// 20 equal holdings: HHI = 20 * 5^2 = 500
	var holdings []portfolio.Holding
	for i := 0; i < 20; i++ {
		holdings = append(holdings, testHolding("SYM", 1, 100, 100))
	}
	d := assessDiversification(testPortfolio(holdings...))
	assert.Equal(t, "well_diversified", d.Level)
	assert.Equal(t, 9, d.Score)
	assert.Equal(t, 500.0, d.HHI)

	// 5 equal holdings: HHI = 5 * 20^2 = 2000
	d = assessDiversification(testPortfolio(holdings[:5]...))
	assert.Equal(t, "moderately_diversified", d.Level)
	assert.Equal(t, 6, d.Score)

	// 4 equal holdings: HHI = 4 * 25^2 = 2500 counts as concentrated
	d = assessDiversification(testPortfolio(holdings[:4]...))
	assert.Equal(t, "concentrated", d.Level)
	assert.Equal(t, 3, d.Score)

	// Just under the boundary: weights 39.98 / 4x15.005 give HHI ~ 2499
	d = assessDiversification(testPortfolio(
		testHolding("BIG", 1, 100, 39.98),
		testHolding("A", 1, 100, 15.005),
		testHolding("B", 1, 100, 15.005),
		testHolding("C", 1, 100, 15.005),
		testHolding("D", 1, 100, 15.005),
	))
	assert.Equal(t, "moderately_diversified", d.Level)
	assert.Equal(t, 6, d.Score)
	assert.InDelta(t, 2499.0, d.HHI, 0.01)

	// Single holding: HHI = 10000
	d = assessDiversification(testPortfolio(holdings[:1]...))
	assert.Equal(t, "concentrated", d.Level)
	assert.Equal(t, 10000.0, d.HHI)
}

func TestAssessConcentration(t *testing.T) {
	// 40 / 30 / 30 split
	p := testPortfolio(
		testHolding("AAPL", 4, 100, 100),
		testHolding("MSFT", 3, 100, 100),
		testHolding("GOOGL", 3, 100, 100),
	)

	c := assessConcentration(p)
	assert.Equal(t, "AAPL", c.TopHolding)
	assert.Equal(t, 40.0, c.TopHoldingWeight)
	assert.Equal(t, 100.0, c.Top3Weight)
	assert.Equal(t, "high", c.Risk)

	// 25 / 25 / 25 / 25: top weight above 20 but not above 30
	p = testPortfolio(
		testHolding("A", 1, 100, 100),
		testHolding("B", 1, 100, 100),
		testHolding("C", 1, 100, 100),
		testHolding("D", 1, 100, 100),
	)
	c = assessConcentration(p)
	assert.Equal(t, "moderate", c.Risk)

	// 10 equal holdings: low
	var holdings []portfolio.Holding
	for i := 0; i < 10; i++ {
		holdings = append(holdings, testHolding("SYM", 1, 100, 100))
	}
	c = assessConcentration(testPortfolio(holdings...))
	assert.Equal(t, "low", c.Risk)
}

func TestAssessRisk_EmptyPortfolio(t *testing.T) {
	agent := newTestRiskAgent(&stubReasoner{}, newStubMarket())

	p := testPortfolio()
	result, err := agent.AssessRisk(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, p.ID.String(), result.PortfolioID)
	assert.Equal(t, 0.0, result.RiskScore)
	assert.Equal(t, "unknown", result.RiskLevel)
	assert.Equal(t, "No holdings to assess", result.Narrative)
}

func TestAssessRisk_ScoreBounds(t *testing.T) {
	// Single holding without history: concentrated, high concentration,
	// default volatility 25% pushes the score up but never past 10
	agent := newTestRiskAgent(&stubReasoner{response: "risky"}, newStubMarket())

	p := testPortfolio(testHolding("AAPL", 10, 100, 150))
	result, err := agent.AssessRisk(context.Background(), p)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.RiskScore, 1.0)
	assert.LessOrEqual(t, result.RiskScore, 10.0)
	assert.Equal(t, "high", result.RiskLevel)
	assert.Equal(t, 25.0, result.Metrics.EstimatedVolatility)
	assert.NotEmpty(t, result.Recommendations)
}

func TestAssessRisk_VaRAndBeta(t *testing.T) {
	agent := newTestRiskAgent(&stubReasoner{}, newStubMarket())

	// Total value 1000, default vol 0.25
	p := testPortfolio(testHolding("AAPL", 10, 100, 100))
	result, err := agent.AssessRisk(context.Background(), p)
	require.NoError(t, err)

	// VaR95 = 1000 * 0.25 * 1.65
	assert.InDelta(t, 412.5, result.Metrics.VaR95, 0.01)
	// Beta = 0.25 / 0.15
	assert.InDelta(t, 1.67, result.Metrics.EstimatedBeta, 0.01)
}

func TestProfileUserRisk_Tiers(t *testing.T) {
	agent := newTestRiskAgent(&stubReasoner{}, newStubMarket())

	// Max score 11 -> 100%
	aggressive := agent.ProfileUserRisk(map[string]string{
		"investment_horizon": "long",
		"risk_tolerance":     "aggressive",
		"loss_reaction":      "buy_more",
		"income_stability":   "very_stable",
	})
	assert.Equal(t, "aggressive", aggressive.Profile)
	assert.Equal(t, map[string]int{"stocks": 80, "bonds": 15, "cash": 5}, aggressive.Allocation)

	// Score 7 of 11 -> 63.6%
	moderate := agent.ProfileUserRisk(map[string]string{
		"investment_horizon": "medium",
		"risk_tolerance":     "moderate",
		"loss_reaction":      "hold",
		"income_stability":   "stable",
	})
	assert.Equal(t, "moderate", moderate.Profile)
	assert.Equal(t, map[string]int{"stocks": 60, "bonds": 30, "cash": 10}, moderate.Allocation)

	// Minimum score 3 of 11 -> 27.3%
	conservative := agent.ProfileUserRisk(map[string]string{})
	assert.Equal(t, "conservative", conservative.Profile)
	assert.Equal(t, map[string]int{"stocks": 30, "bonds": 50, "cash": 20}, conservative.Allocation)
	assert.NotEmpty(t, conservative.Suggestions)
}

func TestRiskRecommendations(t *testing.T) {
	recs := riskRecommendations(
		analysis.Diversification{Level: "concentrated"},
		analysis.Concentration{Risk: "high", TopHolding: "AAPL"},
		30,
	)

	// One per trigger plus the standing rebalancing advice
	assert.Len(t, recs, 4)
	assert.Contains(t, recs[1], "AAPL")
}
