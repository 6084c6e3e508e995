package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/adapters/marketdata"
	"fincopilot/internal/domain/analysis"
	"fincopilot/pkg/errors"
)

// fallbackPeers covers the common large caps when the data provider has no
// peer list for a symbol.
var fallbackPeers = map[string][]string{
	"AAPL":  {"MSFT", "GOOGL", "META", "AMZN"},
	"MSFT":  {"AAPL", "GOOGL", "ORCL", "CRM"},
	"GOOGL": {"META", "MSFT", "AMZN", "AAPL"},
	"AMZN":  {"WMT", "EBAY", "SHOP", "TGT"},
	"TSLA":  {"F", "GM", "RIVN", "NIO"},
}

// Static SWOT defaults used when the narrative gives nothing structured to
// extract.
var (
	defaultStrengths     = []string{"Strong market position", "Consistent profitability"}
	defaultWeaknesses    = []string{"High debt levels", "Competitive pressure"}
	defaultOpportunities = []string{"Market expansion", "New product launches"}
	defaultThreats       = []string{"Economic downturn", "Regulatory changes"}
)

// Compile-time check
var _ Agent = (*EquityAgent)(nil)

// EquityAgent produces single-stock analyses, peer comparisons and
// valuation estimates.
type EquityAgent struct {
	baseAgent
	market marketdata.Provider
}

// NewEquityAgent creates the equity research agent
func NewEquityAgent(reasoner ai.Reasoner, market marketdata.Provider, memoryLimit, memoryKeep int) *EquityAgent {
	return &EquityAgent{
		baseAgent: newBaseAgent(
			"EquityResearchAgent",
			"Analyzes individual stocks using fundamentals, price data and valuation models.",
			reasoner, memoryLimit, memoryKeep,
		),
		market: market,
	}
}

// Execute dispatches a task to the matching operation
func (a *EquityAgent) Execute(ctx context.Context, task Task) (*Result, error) {
	switch task.Type {
	case TaskAnalyzeStock:
		out, err := a.AnalyzeStock(ctx, task.Symbol)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskComparePeers:
		out, err := a.ComparePeers(ctx, task.Symbol)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskCalculateValuation:
		out, err := a.CalculateValuation(ctx, task.Symbol)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTaskType, "equity agent: %s", task.Type)
	}
}

// AnalyzeStock builds a full single-stock analysis. Provider failures leave
// the corresponding metrics at zero and lower the confidence score instead
// of failing the analysis.
func (a *EquityAgent) AnalyzeStock(ctx context.Context, symbol string) (*analysis.StockAnalysis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "empty symbol")
	}

	quote, err := a.market.GetPrice(ctx, symbol)
	if err != nil {
		a.log.Warnf("Price fetch failed for %s: %v", symbol, err)
	}
	fundamentals, err := a.market.GetFundamentals(ctx, symbol)
	if err != nil {
		a.log.Warnf("Fundamentals fetch failed for %s: %v", symbol, err)
	}

	contextInfo := fmt.Sprintf(
		"Symbol: %s\nCurrent price: %.2f\nP/E ratio: %.2f\nEPS: %.2f\nRevenue: %.0f\nProfit margin: %.4f\nSector: %s",
		symbol, quote.Price, fundamentals.PERatio, fundamentals.EPS,
		fundamentals.Revenue, fundamentals.ProfitMargin, fundamentals.Sector,
	)

	prompt := fmt.Sprintf(
		"Analyze %s as an investment. Cover:\n"+
			"1. Overall assessment\n"+
			"2. Key strengths\n"+
			"3. Key weaknesses\n"+
			"4. Investment recommendation (strong buy/buy/hold/sell/strong sell)\n"+
			"5. Target price estimate\n"+
			"6. Key catalysts to watch",
		symbol,
	)

	narrative := a.Reason(ctx, prompt, contextInfo)

	result := &analysis.StockAnalysis{
		Symbol:         symbol,
		AnalysisDate:   time.Now().UTC(),
		Recommendation: extractRecommendation(narrative),
		Confidence:     confidenceScore(quote, fundamentals),
		Summary:        truncate(narrative, 500),
		Strengths:      defaultStrengths,
		Weaknesses:     defaultWeaknesses,
		Opportunities:  defaultOpportunities,
		Threats:        defaultThreats,
	}

	if target := targetPrice(quote.Price, fundamentals.PERatio); target != nil {
		result.TargetPrice = target
	}

	// Placeholder until per-symbol news sentiment is folded in.
	sentiment := 0.6
	result.SentimentScore = &sentiment

	return result, nil
}

// ComparePeers ranks a symbol against up to four peers by P/E and ROE
func (a *EquityAgent) ComparePeers(ctx context.Context, symbol string) (*analysis.PeerComparison, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "empty symbol")
	}

	peers := a.resolvePeers(ctx, symbol)

	all := append([]string{symbol}, peers...)
	metricsBySymbol := make(map[string]map[string]float64, len(all))
	for _, sym := range all {
		f, err := a.market.GetFundamentals(ctx, sym)
		if err != nil {
			a.log.Warnf("Fundamentals fetch failed for peer %s: %v", sym, err)
			continue
		}
		entry := map[string]float64{}
		if f.PERatio != 0 {
			entry["pe_ratio"] = f.PERatio
		}
		if f.ROE != 0 {
			entry["roe"] = f.ROE
		}
		if f.MarketCap != 0 {
			entry["market_cap"] = f.MarketCap
		}
		if f.ProfitMargin != 0 {
			entry["profit_margin"] = f.ProfitMargin
		}
		metricsBySymbol[sym] = entry
	}

	ranking := rankPeers(symbol, all, metricsBySymbol)

	var sb strings.Builder
	for _, sym := range all {
		m := metricsBySymbol[sym]
		fmt.Fprintf(&sb, "%s: pe=%.2f roe=%.4f\n", sym, m["pe_ratio"], m["roe"])
	}

	narrative := a.Reason(ctx,
		fmt.Sprintf("Compare %s against its peers on valuation and profitability. Who looks strongest and why?", symbol),
		sb.String(),
	)

	return &analysis.PeerComparison{
		Symbol:    symbol,
		Peers:     peers,
		Metrics:   metricsBySymbol,
		Ranking:   ranking,
		Narrative: narrative,
	}, nil
}

// CalculateValuation estimates fair value from P/E multiples and the Graham
// number, then grades the upside
func (a *EquityAgent) CalculateValuation(ctx context.Context, symbol string) (*analysis.ValuationResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "empty symbol")
	}

	quote, err := a.market.GetPrice(ctx, symbol)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "price for %s: %v", symbol, err)
	}
	fundamentals, err := a.market.GetFundamentals(ctx, symbol)
	if err != nil {
		a.log.Warnf("Fundamentals fetch failed for %s: %v", symbol, err)
	}

	price := quote.Price
	methods := map[string]float64{}

	if fundamentals.EPS > 0 && fundamentals.PERatio > 0 {
		methods["pe_based"] = round2(fundamentals.EPS * 20)
	}

	if fundamentals.PBRatio > 0 && fundamentals.EPS > 0 {
		bookValue := price / fundamentals.PBRatio
		if bookValue > 0 {
			methods["graham_number"] = round2(math.Sqrt(22.5 * fundamentals.EPS * bookValue))
		}
	}

	avg := price
	if len(methods) > 0 {
		var sum float64
		var count int
		for _, v := range methods {
			if v > 0 {
				sum += v
				count++
			}
		}
		if count > 0 {
			avg = sum / float64(count)
		}
	}

	var upside float64
	if price > 0 {
		upside = (avg - price) / price * 100
	}

	verdict := "Fairly Valued"
	switch {
	case upside > 15:
		verdict = "Undervalued"
	case upside < -15:
		verdict = "Overvalued"
	}

	return &analysis.ValuationResult{
		Symbol:        symbol,
		CurrentPrice:  price,
		Methods:       methods,
		AvgFairValue:  round2(avg),
		UpsidePercent: round2(upside),
		Verdict:       verdict,
	}, nil
}

// resolvePeers returns up to four peers, never including the symbol itself
func (a *EquityAgent) resolvePeers(ctx context.Context, symbol string) []string {
	peers, err := a.market.GetPeers(ctx, symbol)
	if err != nil || len(peers) == 0 {
		if fallback, ok := fallbackPeers[symbol]; ok {
			peers = fallback
		} else {
			peers = []string{"SPY"}
		}
	}

	out := make([]string, 0, 4)
	for _, p := range peers {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || p == symbol {
			continue
		}
		out = append(out, p)
		if len(out) == 4 {
			break
		}
	}
	return out
}

// extractRecommendation scans the narrative for a stance. Longer phrases
// take priority so "strong buy" is not misread as "buy".
func extractRecommendation(narrative string) analysis.Recommendation {
	text := strings.ToLower(narrative)
	switch {
	case strings.Contains(text, "strong buy"):
		return analysis.StrongBuy
	case strings.Contains(text, "strong sell"):
		return analysis.StrongSell
	case strings.Contains(text, "buy"):
		return analysis.Buy
	case strings.Contains(text, "sell"):
		return analysis.Sell
	default:
		return analysis.Hold
	}
}

// confidenceScore grows with data coverage: 0.5 base plus 0.1 per available
// metric, capped at 1.0
func confidenceScore(quote marketdata.Quote, f marketdata.Fundamentals) float64 {
	score := 0.5
	for _, present := range []bool{
		f.PERatio != 0,
		f.Revenue != 0,
		f.EPS != 0,
		quote.Price != 0,
		f.ProfitMargin != 0,
	} {
		if present {
			score += 0.1
		}
	}
	return analysis.ClampConfidence(score)
}

// targetPrice projects the price at a P/E of 18, nil when inputs are missing
func targetPrice(price, peRatio float64) *float64 {
	if price <= 0 || peRatio <= 0 {
		return nil
	}
	target := round2(price * (18 / peRatio))
	return &target
}

// rankPeers ranks the queried symbol within the compared set, one 1-based
// rank per metric: P/E ascending (missing sorts last) and ROE descending
// (missing counts as zero). A symbol absent from the set ranks last.
func rankPeers(symbol string, symbols []string, metricsBySymbol map[string]map[string]float64) map[string]int {
	present := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := metricsBySymbol[sym]; ok {
			present = append(present, sym)
		}
	}

	rankIn := func(less func(a, b string) bool) int {
		sorted := make([]string, len(present))
		copy(sorted, present)
		sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
		for i, sym := range sorted {
			if sym == symbol {
				return i + 1
			}
		}
		return len(sorted)
	}

	peOf := func(sym string) float64 {
		if v, ok := metricsBySymbol[sym]["pe_ratio"]; ok {
			return v
		}
		return math.Inf(1)
	}
	roeOf := func(sym string) float64 {
		return metricsBySymbol[sym]["roe"]
	}

	return map[string]int{
		"pe_rank":  rankIn(func(a, b string) bool { return peOf(a) < peOf(b) }),
		"roe_rank": rankIn(func(a, b string) bool { return roeOf(a) > roeOf(b) }),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
