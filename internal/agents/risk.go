package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/adapters/marketdata"
	"fincopilot/internal/domain/analysis"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

const (
	tradingDaysPerYear = 252
	marketVolatility   = 0.15
	defaultHoldingVol  = 0.25
	var95Multiplier    = 1.65
)

// Compile-time check
var _ Agent = (*RiskAgent)(nil)

// RiskAgent assesses portfolio risk and profiles user risk tolerance.
type RiskAgent struct {
	baseAgent
	market marketdata.Provider
}

// NewRiskAgent creates the risk assessment agent
func NewRiskAgent(reasoner ai.Reasoner, market marketdata.Provider, memoryLimit, memoryKeep int) *RiskAgent {
	return &RiskAgent{
		baseAgent: newBaseAgent(
			"RiskAssessmentAgent",
			"Evaluates portfolio risk, diversification and concentration.",
			reasoner, memoryLimit, memoryKeep,
		),
		market: market,
	}
}

// Execute dispatches a task to the matching operation
func (a *RiskAgent) Execute(ctx context.Context, task Task) (*Result, error) {
	switch task.Type {
	case TaskAssessRisk:
		out, err := a.AssessRisk(ctx, task.Portfolio)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskProfileRisk:
		out := a.ProfileUserRisk(task.Answers)
		return &Result{Type: task.Type, Data: out}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTaskType, "risk agent: %s", task.Type)
	}
}

// AssessRisk scores a portfolio on [1,10] from volatility, diversification
// and concentration. An empty portfolio scores zero rather than erroring.
func (a *RiskAgent) AssessRisk(ctx context.Context, p *portfolio.Portfolio) (*analysis.RiskAssessment, error) {
	if p == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "nil portfolio")
	}

	if len(p.Holdings) == 0 {
		return &analysis.RiskAssessment{
			PortfolioID: p.ID.String(),
			RiskScore:   0,
			RiskLevel:   "unknown",
			Narrative:   "No holdings to assess",
			AssessedAt:  time.Now().UTC(),
		}, nil
	}

	totalValue := p.TotalValue()
	weightedVol := a.estimateVolatility(ctx, p, totalValue)
	volPct := round2(weightedVol * 100)

	metrics := analysis.RiskMetrics{
		EstimatedVolatility: volPct,
		EstimatedBeta:       round2(weightedVol / marketVolatility),
		VaR95:               round2(totalValue * weightedVol * var95Multiplier),
	}

	diversification := assessDiversification(p)
	concentration := assessConcentration(p)

	score := 5.0
	switch {
	case volPct > 30:
		score += 2
	case volPct > 20:
		score += 1
	case volPct < 10:
		score -= 1
	}
	score += float64(5-diversification.Score) / 2
	switch concentration.Risk {
	case "high":
		score += 2
	case "moderate":
		score += 1
	}
	score = analysis.ClampRiskScore(score)
	score = math.Round(score*10) / 10

	level := "low"
	switch {
	case score >= 7:
		level = "high"
	case score >= 4:
		level = "moderate"
	}

	recommendations := riskRecommendations(diversification, concentration, volPct)

	contextInfo := fmt.Sprintf(
		"Portfolio value: %.2f\nHoldings: %d\nEstimated volatility: %.1f%%\nDiversification: %s (HHI %.0f)\nTop holding: %s at %.1f%%",
		totalValue, len(p.Holdings), volPct,
		diversification.Level, diversification.HHI,
		concentration.TopHolding, concentration.TopHoldingWeight,
	)
	narrative := a.Reason(ctx,
		"Assess the overall risk of this portfolio and how it could be reduced.",
		contextInfo,
	)

	return &analysis.RiskAssessment{
		PortfolioID:     p.ID.String(),
		RiskScore:       score,
		RiskLevel:       level,
		Metrics:         metrics,
		Diversification: diversification,
		Concentration:   concentration,
		Narrative:       narrative,
		Recommendations: recommendations,
		AssessedAt:      time.Now().UTC(),
	}, nil
}

// ProfileUserRisk maps questionnaire answers to a risk profile with a
// recommended allocation
func (a *RiskAgent) ProfileUserRisk(answers map[string]string) *analysis.RiskProfile {
	score := 0

	switch answers["investment_horizon"] {
	case "long":
		score += 3
	case "medium":
		score += 2
	default:
		score += 1
	}

	switch answers["risk_tolerance"] {
	case "aggressive":
		score += 3
	case "moderate":
		score += 2
	default:
		score += 1
	}

	switch answers["loss_reaction"] {
	case "buy_more":
		score += 3
	case "hold":
		score += 2
	default:
		score += 1
	}

	switch answers["income_stability"] {
	case "very_stable":
		score += 2
	case "stable":
		score += 1
	}

	const maxScore = 11
	pct := float64(score) / maxScore * 100

	profile := &analysis.RiskProfile{
		Score:   round2(pct),
		Horizon: answers["investment_horizon"],
	}

	switch {
	case pct >= 70:
		profile.Profile = "aggressive"
		profile.Description = "Comfortable with significant volatility in exchange for higher expected returns."
		profile.Allocation = map[string]int{"stocks": 80, "bonds": 15, "cash": 5}
		profile.Suggestions = []string{
			"Consider growth stocks and emerging markets exposure",
			"Keep a small cash buffer for opportunities",
			"Review positions at least quarterly",
		}
	case pct >= 40:
		profile.Profile = "moderate"
		profile.Description = "Accepts moderate volatility for balanced growth."
		profile.Allocation = map[string]int{"stocks": 60, "bonds": 30, "cash": 10}
		profile.Suggestions = []string{
			"Blend broad index funds with select individual stocks",
			"Rebalance twice a year",
			"Maintain an emergency fund outside the portfolio",
		}
	default:
		profile.Profile = "conservative"
		profile.Description = "Prioritizes capital preservation over growth."
		profile.Allocation = map[string]int{"stocks": 30, "bonds": 50, "cash": 20}
		profile.Suggestions = []string{
			"Favor bonds and dividend paying stocks",
			"Avoid concentrated positions",
			"Rebalance annually",
		}
	}

	return profile
}

// estimateVolatility returns the value weighted annualized volatility of the
// holdings. Holdings without enough price history fall back to a default.
func (a *RiskAgent) estimateVolatility(ctx context.Context, p *portfolio.Portfolio, totalValue float64) float64 {
	if totalValue <= 0 {
		return defaultHoldingVol
	}

	var weighted float64
	for _, h := range p.Holdings {
		vol := defaultHoldingVol

		bars, err := a.market.GetHistoricalBars(ctx, h.Symbol, "3mo")
		if err == nil && len(bars) >= 20 {
			returns := make([]float64, 0, len(bars)-1)
			for i := 1; i < len(bars); i++ {
				if bars[i-1].Close != 0 {
					returns = append(returns, bars[i].Close/bars[i-1].Close-1)
				}
			}
			if sd, sdErr := stats.StandardDeviationSample(stats.Float64Data(returns)); sdErr == nil && sd > 0 {
				vol = sd * math.Sqrt(tradingDaysPerYear)
			}
		} else if err != nil {
			a.log.Debugf("History unavailable for %s, using default volatility: %v", h.Symbol, err)
		}

		weighted += vol * (h.Value() / totalValue)
	}
	return weighted
}

// assessDiversification grades concentration with the Herfindahl index over
// percentage weights. An HHI of exactly 2500 already counts as concentrated.
func assessDiversification(p *portfolio.Portfolio) analysis.Diversification {
	var hhi float64
	for _, h := range p.Holdings {
		w := p.Weight(h)
		hhi += w * w
	}

	d := analysis.Diversification{
		NumHoldings: len(p.Holdings),
		HHI:         round2(hhi),
	}

	switch {
	case hhi < 1000:
		d.Level = "well_diversified"
		d.Score = 9
		d.Recommendation = "Portfolio is well diversified"
	case hhi < 2500:
		d.Level = "moderately_diversified"
		d.Score = 6
		d.Recommendation = "Consider spreading weight across more holdings"
	default:
		d.Level = "concentrated"
		d.Score = 3
		d.Recommendation = "Portfolio is concentrated; add holdings to spread risk"
	}
	return d
}

// assessConcentration reports top holding weights
func assessConcentration(p *portfolio.Portfolio) analysis.Concentration {
	type weighted struct {
		symbol string
		weight float64
	}
	ws := make([]weighted, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		ws = append(ws, weighted{h.Symbol, p.Weight(h)})
	}
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].weight > ws[j].weight
	})

	c := analysis.Concentration{}
	if len(ws) > 0 {
		c.TopHolding = ws[0].symbol
		c.TopHoldingWeight = round2(ws[0].weight)
	}
	var top3 float64
	for i := 0; i < len(ws) && i < 3; i++ {
		top3 += ws[i].weight
	}
	c.Top3Weight = round2(top3)

	switch {
	case c.TopHoldingWeight > 30:
		c.Risk = "high"
	case c.TopHoldingWeight > 20:
		c.Risk = "moderate"
	default:
		c.Risk = "low"
	}
	return c
}

func riskRecommendations(d analysis.Diversification, c analysis.Concentration, volPct float64) []string {
	var recs []string
	if d.Level == "concentrated" {
		recs = append(recs, "Consider adding more holdings to improve diversification")
	}
	if c.Risk == "high" {
		recs = append(recs, fmt.Sprintf("Reduce position in %s to below 20%% of portfolio", c.TopHolding))
	}
	if volPct > 25 {
		recs = append(recs, "Consider adding defensive sectors to reduce volatility")
	}
	recs = append(recs, "Regular rebalancing helps maintain target risk levels")
	return recs
}
