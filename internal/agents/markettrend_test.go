package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/internal/adapters/marketdata"
	"fincopilot/internal/domain/analysis"
	"fincopilot/pkg/errors"
)

func newTestTrendAgent(reasoner *stubReasoner, market *stubMarket) *MarketTrendAgent {
	return NewMarketTrendAgent(reasoner, market, 100, 50)
}

// barsFromCloses builds synthetic bars where high/low bracket the close.
func barsFromCloses(closes []float64, volume int64) []marketdata.Bar {
	bars := make([]marketdata.Bar, len(closes))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = marketdata.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return bars
}

func TestSimpleRSI_NeedsEnoughCloses(t *testing.T) {
	closes := make([]float64, 14)
	assert.Nil(t, simpleRSI(closes, 14))

	closes = append(closes, 1)
	assert.NotNil(t, simpleRSI(closes, 14))
}

func TestSimpleRSI_AllGains(t *testing.T) {
	// Monotonic rise: the loss floor keeps the math finite, RSI pins near 100
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := simpleRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 99.0)
	assert.LessOrEqual(t, *rsi, 100.0)
}

func TestSimpleRSI_AllLosses(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}

	rsi := simpleRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Equal(t, 0.0, *rsi)
}

func TestSimpleMACD(t *testing.T) {
	assert.Nil(t, simpleMACD(make([]float64, 25)))

	// Rising series: short mean above long mean, bullish signal
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	macd := simpleMACD(closes)
	require.NotNil(t, macd)
	assert.Greater(t, macd.Line, 0.0)
	assert.Equal(t, analysis.TrendBullish, macd.Signal)
}

func TestClassifyVolume(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 1000
	}
	assert.Equal(t, analysis.VolumeNormal, classifyVolume(flat))

	// Last 5 days spike: recent avg over 1.5x the 20 day baseline
	spike := make([]float64, 30)
	for i := range spike {
		spike[i] = 1000
	}
	for i := 25; i < 30; i++ {
		spike[i] = 10000
	}
	assert.Equal(t, analysis.VolumeHigh, classifyVolume(spike))

	// Last 5 days dry up
	dry := make([]float64, 30)
	for i := range dry {
		dry[i] = 1000
	}
	for i := 25; i < 30; i++ {
		dry[i] = 100
	}
	assert.Equal(t, analysis.VolumeLow, classifyVolume(dry))

	// Too little history defaults to normal
	assert.Equal(t, analysis.VolumeNormal, classifyVolume(make([]float64, 10)))
}

func TestSupportResistance(t *testing.T) {
	//                 0    1    2     3    4    5    6     7    8
	highs := []float64{100, 101, 110, 101, 100, 102, 115, 102, 100}
	lows := []float64{95, 94, 90, 94, 95, 93, 88, 93, 95}
	currentPrice := 100.0

	support, resistance := supportResistance(highs, lows, currentPrice)

	// Local highs at index 2 (110) and 6 (115) above current price,
	// nearest resistance first
	assert.Equal(t, []float64{110, 115}, resistance)
	// Local lows at index 2 (90) and 6 (88) below current price,
	// nearest support first
	assert.Equal(t, []float64{90, 88}, support)
}

func TestSupportResistance_ShoulderNextToHigherBar(t *testing.T) {
	// The peak at index 3 only needs to beat its immediate neighbors; the
	// taller bar two positions away does not disqualify it
	highs := []float64{100, 120, 101, 110, 101, 100, 100, 100, 100}
	lows := []float64{90, 70, 89, 80, 89, 90, 90, 90, 90}

	support, resistance := supportResistance(highs, lows, 105)

	assert.Equal(t, []float64{110}, resistance)
	assert.Equal(t, []float64{80}, support)
}

func TestSupportResistance_CapsAtThree(t *testing.T) {
	// Alternating peaks every 4 bars, each higher than the last
	var highs, lows []float64
	for i := 0; i < 40; i++ {
		h, l := 100.0, 90.0
		if i%4 == 2 {
			h = 110 + float64(i)
			l = 80 - float64(i)
		}
		highs = append(highs, h)
		lows = append(lows, l)
	}

	support, resistance := supportResistance(highs, lows, 100)
	assert.LessOrEqual(t, len(resistance), 3)
	assert.LessOrEqual(t, len(support), 3)
}

func TestVoteTrend(t *testing.T) {
	// Steady rise: price above both averages, RSI above 50, 20 bar change
	// over five percent
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	mas := map[string]float64{"sma_20": 140, "sma_50": 130}
	rsi := 65.0
	assert.Equal(t, analysis.TrendBullish, voteTrend(closes, mas, &rsi))

	// Steady fall
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	mas = map[string]float64{"sma_20": 150, "sma_50": 160}
	rsi = 35.0
	assert.Equal(t, analysis.TrendBearish, voteTrend(closes, mas, &rsi))

	// Not enough history is always sideways
	assert.Equal(t, analysis.TrendSideways, voteTrend(make([]float64, 10), mas, &rsi))

	// Mixed signals stay sideways
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100
	}
	mas = map[string]float64{"sma_20": 100, "sma_50": 101}
	rsi = 50.0
	assert.Equal(t, analysis.TrendSideways, voteTrend(flat, mas, &rsi))
}

func TestAnalyzeTrend_EndToEnd(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}

	market := newStubMarket()
	market.bars["AAPL"] = barsFromCloses(closes, 1000)

	agent := newTestTrendAgent(&stubReasoner{response: "looks constructive"}, market)

	trend, err := agent.AnalyzeTrend(context.Background(), "aapl", "")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", trend.Symbol)
	assert.Equal(t, "3mo", trend.Timeframe)
	assert.Equal(t, analysis.TrendBullish, trend.Trend)
	assert.Contains(t, trend.MovingAverages, "sma_20")
	assert.Contains(t, trend.MovingAverages, "sma_50")
	assert.NotContains(t, trend.MovingAverages, "sma_200")
	require.NotNil(t, trend.RSI)
	require.NotNil(t, trend.MACD)
	assert.Equal(t, "looks constructive", trend.Narrative)
}

func TestAnalyzeTrend_NoHistory(t *testing.T) {
	agent := newTestTrendAgent(&stubReasoner{}, newStubMarket())

	_, err := agent.AnalyzeTrend(context.Background(), "AAPL", "3mo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataUnavailable))
}

func TestMarketOverview_KeepsFailedIndices(t *testing.T) {
	market := newStubMarket()
	market.quotes["SPY"] = marketdata.Quote{Symbol: "SPY", Price: 520, ChangePercent: 0.4}
	market.quotes["QQQ"] = marketdata.Quote{Symbol: "QQQ", Price: 440, ChangePercent: 0.8}
	// DIA, IWM, VIX unavailable

	agent := newTestTrendAgent(&stubReasoner{response: "mixed tape"}, market)

	overview, err := agent.MarketOverview(context.Background())
	require.NoError(t, err)

	assert.Len(t, overview.Indices, 5)
	assert.Equal(t, 520.0, overview.Indices["S&P 500"].Price)
	assert.NotEmpty(t, overview.Indices["Dow Jones"].Err)
	assert.Equal(t, "mixed tape", overview.Commentary)
}

func TestSectorPerformance_LeadersAndLaggards(t *testing.T) {
	market := newStubMarket()
	changes := map[string]float64{
		"XLK": 2.0, "XLF": 1.5, "XLV": 1.0, "XLE": 0.5, "XLY": 0.2,
		"XLP": 0.0, "XLI": -0.2, "XLB": -0.5, "XLRE": -1.0, "XLU": -1.5,
		"XLC": -2.0,
	}
	for sym, chg := range changes {
		market.quotes[sym] = marketdata.Quote{Symbol: sym, ChangePercent: chg}
	}

	agent := newTestTrendAgent(&stubReasoner{response: "rotation"}, market)

	perf, err := agent.SectorPerformance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Technology", "Financials", "Healthcare"}, perf.Leaders)
	assert.Equal(t, []string{"Real Estate", "Utilities", "Communication Services"}, perf.Laggards)
	assert.Len(t, perf.Sectors, 11)
}
