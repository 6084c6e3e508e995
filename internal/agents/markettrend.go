package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/markcheno/go-talib"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/adapters/marketdata"
	"fincopilot/internal/domain/analysis"
	"fincopilot/pkg/errors"
)

// marketIndices maps tracked index ETFs to display names. indexOrder keeps
// output deterministic.
var marketIndices = map[string]string{
	"SPY": "S&P 500",
	"QQQ": "NASDAQ 100",
	"DIA": "Dow Jones",
	"IWM": "Russell 2000",
	"VIX": "Volatility Index",
}

var indexOrder = []string{"SPY", "QQQ", "DIA", "IWM", "VIX"}

// sectorETFs maps SPDR sector ETFs to sector names.
var sectorETFs = map[string]string{
	"XLK":  "Technology",
	"XLF":  "Financials",
	"XLV":  "Healthcare",
	"XLE":  "Energy",
	"XLY":  "Consumer Discretionary",
	"XLP":  "Consumer Staples",
	"XLI":  "Industrials",
	"XLB":  "Materials",
	"XLRE": "Real Estate",
	"XLU":  "Utilities",
	"XLC":  "Communication Services",
}

// Compile-time check
var _ Agent = (*MarketTrendAgent)(nil)

// MarketTrendAgent reads technical signals from price history and tracks
// broad market and sector moves.
type MarketTrendAgent struct {
	baseAgent
	market marketdata.Provider
}

// NewMarketTrendAgent creates the technical analysis agent
func NewMarketTrendAgent(reasoner ai.Reasoner, market marketdata.Provider, memoryLimit, memoryKeep int) *MarketTrendAgent {
	return &MarketTrendAgent{
		baseAgent: newBaseAgent(
			"MarketTrendAgent",
			"Tracks market trends, technical indicators and sector rotation.",
			reasoner, memoryLimit, memoryKeep,
		),
		market: market,
	}
}

// Execute dispatches a task to the matching operation
func (a *MarketTrendAgent) Execute(ctx context.Context, task Task) (*Result, error) {
	switch task.Type {
	case TaskAnalyzeTrend:
		out, err := a.AnalyzeTrend(ctx, task.Symbol, task.Timeframe)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskMarketOverview:
		out, err := a.MarketOverview(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	case TaskSectorPerformance:
		out, err := a.SectorPerformance(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Type: task.Type, Data: out}, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownTaskType, "market trend agent: %s", task.Type)
	}
}

// AnalyzeTrend computes moving averages, RSI, MACD, volume and support and
// resistance levels over the symbol's price history, then votes on the trend
func (a *MarketTrendAgent) AnalyzeTrend(ctx context.Context, symbol, timeframe string) (*analysis.MarketTrend, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrapf(errors.ErrInvalidSymbol, "empty symbol")
	}
	if timeframe == "" {
		timeframe = "3mo"
	}

	bars, err := a.market.GetHistoricalBars(ctx, symbol, timeframe)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "history for %s: %v", symbol, err)
	}
	if len(bars) == 0 {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "no bars for %s", symbol)
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = float64(b.Volume)
	}
	currentPrice := closes[len(closes)-1]

	movingAverages := map[string]float64{}
	for _, period := range []int{20, 50, 200} {
		if len(closes) >= period {
			smaValues := talib.Sma(closes, period)
			movingAverages[fmt.Sprintf("sma_%d", period)] = round2(smaValues[len(smaValues)-1])
		}
	}

	rsi := simpleRSI(closes, 14)
	macd := simpleMACD(closes)
	volumeTrend := classifyVolume(volumes)
	support, resistance := supportResistance(highs, lows, currentPrice)
	trend := voteTrend(closes, movingAverages, rsi)

	contextInfo := fmt.Sprintf(
		"Symbol: %s\nTimeframe: %s\nCurrent price: %.2f\nTrend: %s\nMoving averages: %v\nVolume trend: %s",
		symbol, timeframe, currentPrice, trend, movingAverages, volumeTrend,
	)
	if rsi != nil {
		contextInfo += fmt.Sprintf("\nRSI(14): %.1f", *rsi)
	}
	narrative := a.Reason(ctx,
		fmt.Sprintf("Interpret the technical picture for %s. What do the indicators suggest for the near term?", symbol),
		contextInfo,
	)

	return &analysis.MarketTrend{
		Symbol:           symbol,
		Timeframe:        timeframe,
		Trend:            trend,
		SupportLevels:    support,
		ResistanceLevels: resistance,
		MovingAverages:   movingAverages,
		RSI:              rsi,
		MACD:             macd,
		VolumeTrend:      volumeTrend,
		Narrative:        narrative,
	}, nil
}

// MarketOverview snapshots the major indices. A failed fetch keeps its entry
// with the error recorded instead of dropping it
func (a *MarketTrendAgent) MarketOverview(ctx context.Context) (*analysis.MarketOverview, error) {
	indices := make(map[string]analysis.IndexQuote, len(indexOrder))

	var sb strings.Builder
	for _, symbol := range indexOrder {
		name := marketIndices[symbol]
		quote, err := a.market.GetPrice(ctx, symbol)
		if err != nil {
			a.log.Warnf("Index fetch failed for %s: %v", symbol, err)
			indices[name] = analysis.IndexQuote{Symbol: symbol, Err: err.Error()}
			continue
		}
		indices[name] = analysis.IndexQuote{
			Symbol:        symbol,
			Price:         quote.Price,
			Change:        quote.Change,
			ChangePercent: quote.ChangePercent,
		}
		fmt.Fprintf(&sb, "%s (%s): %.2f (%+.2f%%)\n", name, symbol, quote.Price, quote.ChangePercent)
	}

	commentary := a.Reason(ctx,
		"Summarize the current state of the market based on these index levels. Keep it brief.",
		sb.String(),
	)

	return &analysis.MarketOverview{
		Indices:    indices,
		Commentary: commentary,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// SectorPerformance ranks the SPDR sector ETFs by daily change
func (a *MarketTrendAgent) SectorPerformance(ctx context.Context) (*analysis.SectorPerformance, error) {
	sectors := make(map[string]analysis.SectorQuote, len(sectorETFs))

	type ranked struct {
		name   string
		change float64
	}
	var order []ranked

	for symbol, name := range sectorETFs {
		quote, err := a.market.GetPrice(ctx, symbol)
		if err != nil {
			a.log.Warnf("Sector fetch failed for %s: %v", symbol, err)
			sectors[name] = analysis.SectorQuote{Symbol: symbol, Err: err.Error()}
			continue
		}
		sectors[name] = analysis.SectorQuote{
			Symbol:        symbol,
			ChangePercent: quote.ChangePercent,
		}
		order = append(order, ranked{name, quote.ChangePercent})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].change > order[j].change
	})

	var leaders, laggards []string
	var sb strings.Builder
	for i, r := range order {
		fmt.Fprintf(&sb, "%s: %+.2f%%\n", r.name, r.change)
		if i < 3 {
			leaders = append(leaders, r.name)
		}
		if i >= len(order)-3 {
			laggards = append(laggards, r.name)
		}
	}

	narrative := a.Reason(ctx,
		"Which sectors are leading and lagging today, and what rotation does that suggest?",
		sb.String(),
	)

	return &analysis.SectorPerformance{
		Sectors:   sectors,
		Leaders:   leaders,
		Laggards:  laggards,
		Narrative: narrative,
		Timestamp: time.Now().UTC(),
	}, nil
}

// simpleRSI is the plain-average RSI: mean gain over mean loss of the last
// 14 changes. Needs at least 15 closes; the loss floor avoids division by
// zero on monotonic rises.
func simpleRSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes = append(changes, closes[i]-closes[i-1])
	}
	recent := changes[len(changes)-period:]

	var gainSum, lossSum float64
	var gains, losses int
	for _, c := range recent {
		if c > 0 {
			gainSum += c
			gains++
		} else if c < 0 {
			lossSum += -c
			losses++
		}
	}

	avgGain := 0.0
	if gains > 0 {
		avgGain = gainSum / float64(period)
	}
	avgLoss := 0.0001
	if losses > 0 {
		avgLoss = lossSum / float64(period)
	}

	rsi := 100 - 100/(1+avgGain/avgLoss)
	rsi = round2(rsi)
	return &rsi
}

// simpleMACD approximates MACD with the difference of the 12 and 26 sample
// trailing means. Needs at least 26 closes.
func simpleMACD(closes []float64) *analysis.MACD {
	if len(closes) < 26 {
		return nil
	}

	sma12 := talib.Sma(closes, 12)
	sma26 := talib.Sma(closes, 26)
	line := sma12[len(sma12)-1] - sma26[len(sma26)-1]

	signal := analysis.TrendBearish
	if line > 0 {
		signal = analysis.TrendBullish
	}

	return &analysis.MACD{Line: round2(line), Signal: signal}
}

// classifyVolume compares the 5 day average against the 20 day baseline
func classifyVolume(volumes []float64) analysis.VolumeTrend {
	if len(volumes) < 20 {
		return analysis.VolumeNormal
	}

	avg := func(vals []float64) float64 {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals))
	}

	recent := avg(volumes[len(volumes)-5:])
	baseline := avg(volumes[len(volumes)-20:])
	if baseline == 0 {
		return analysis.VolumeNormal
	}

	switch {
	case recent > baseline*1.5:
		return analysis.VolumeHigh
	case recent < baseline*0.5:
		return analysis.VolumeLow
	default:
		return analysis.VolumeNormal
	}
}

// supportResistance finds single-bar local extremes at least two bars from
// each edge. Resistance levels sit above the current price, supports below.
// Returns at most three of each: supports nearest first, resistances
// nearest first.
func supportResistance(highs, lows []float64, currentPrice float64) (support, resistance []float64) {
	supportSet := map[float64]struct{}{}
	resistanceSet := map[float64]struct{}{}

	for i := 2; i <= len(highs)-3; i++ {
		h := highs[i]
		if h > highs[i-1] && h > highs[i+1] && h > currentPrice {
			resistanceSet[round2(h)] = struct{}{}
		}
		l := lows[i]
		if l < lows[i-1] && l < lows[i+1] && l < currentPrice {
			supportSet[round2(l)] = struct{}{}
		}
	}

	for v := range resistanceSet {
		resistance = append(resistance, v)
	}
	for v := range supportSet {
		support = append(support, v)
	}

	sort.Float64s(resistance)
	sort.Sort(sort.Reverse(sort.Float64Slice(support)))

	if len(resistance) > 3 {
		resistance = resistance[:3]
	}
	if len(support) > 3 {
		support = support[:3]
	}
	return support, resistance
}

// voteTrend tallies bullish and bearish signals: price vs SMA-20 and
// SMA-50, RSI above or below 50, and the 20 bar change beyond plus or minus
// five percent. Three votes either way decides; anything less is sideways.
func voteTrend(closes []float64, movingAverages map[string]float64, rsi *float64) analysis.Trend {
	if len(closes) < 20 {
		return analysis.TrendSideways
	}

	price := closes[len(closes)-1]
	var bullish, bearish int

	if sma20, ok := movingAverages["sma_20"]; ok {
		if price > sma20 {
			bullish++
		} else {
			bearish++
		}
	}
	if sma50, ok := movingAverages["sma_50"]; ok {
		if price > sma50 {
			bullish++
		} else {
			bearish++
		}
	}
	if rsi != nil {
		if *rsi > 50 {
			bullish++
		} else if *rsi < 50 {
			bearish++
		}
	}

	start := closes[len(closes)-20]
	if start != 0 {
		change := (price - start) / start * 100
		if change > 5 {
			bullish++
		} else if change < -5 {
			bearish++
		}
	}

	switch {
	case bullish >= 3:
		return analysis.TrendBullish
	case bearish >= 3:
		return analysis.TrendBearish
	default:
		return analysis.TrendSideways
	}
}
