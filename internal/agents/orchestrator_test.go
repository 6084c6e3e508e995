package agents

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincopilot/internal/adapters/config"
	"fincopilot/internal/adapters/news"
	"fincopilot/internal/repository/memstore"
	"fincopilot/pkg/errors"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	reasoner     *stubReasoner
	portfolios   *memstore.PortfolioRepository
}

func newOrchestratorFixture(t *testing.T, response string) *orchestratorFixture {
	t.Helper()

	reasoner := &stubReasoner{response: response}
	market := newStubMarket()
	provider := &stubNews{articles: map[string][]news.Article{}}
	portfolios := memstore.NewPortfolioRepository()

	cfg := config.AgentsConfig{
		MaxHoldingsAnalyzed: 5,
		AnalysisTimeout:     time.Minute,
		MemoryLimit:         100,
		MemoryKeep:          50,
	}

	orchestrator := NewOrchestrator(
		NewEquityAgent(reasoner, market, cfg.MemoryLimit, cfg.MemoryKeep),
		NewMarketTrendAgent(reasoner, market, cfg.MemoryLimit, cfg.MemoryKeep),
		NewNewsAgent(reasoner, provider, cfg.MemoryLimit, cfg.MemoryKeep),
		NewRiskAgent(reasoner, market, cfg.MemoryLimit, cfg.MemoryKeep),
		NewMonitorAgent(reasoner, cfg.MemoryLimit, cfg.MemoryKeep),
		portfolios,
		nil,
		cfg,
	)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		reasoner:     reasoner,
		portfolios:   portfolios,
	}
}

func TestAnalyzePortfolio_PartialEquityFailure(t *testing.T) {
	fx := newOrchestratorFixture(t, "1. Hold everything")

	// One holding with an unusable symbol fails its analysis; the other
	// four survive in launch order
	p := testPortfolio(
		testHolding("AAPL", 1, 100, 110),
		testHolding("MSFT", 1, 100, 110),
		testHolding("", 1, 100, 110),
		testHolding("GOOGL", 1, 100, 110),
		testHolding("AMZN", 1, 100, 110),
	)
	require.NoError(t, fx.portfolios.Create(context.Background(), p))

	report, err := fx.orchestrator.AnalyzePortfolio(context.Background(), p.ID, p.UserID)
	require.NoError(t, err)

	symbols := make([]string, 0, len(report.HoldingsAnalysis))
	for _, s := range report.HoldingsAnalysis {
		symbols = append(symbols, s.Symbol)
	}
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "AMZN"}, symbols)

	// The failed section never empties the rest of the report
	assert.NotZero(t, report.RiskAssessment.RiskScore)
	assert.NotZero(t, report.PortfolioHealth.HealthScore)
	assert.Len(t, report.MarketOverview.Indices, 5)
	assert.Equal(t, []string{"Hold everything"}, report.Recommendations)
}

func TestAnalyzePortfolio_AllEquityFailures(t *testing.T) {
	fx := newOrchestratorFixture(t, "1. Sit tight")

	p := testPortfolio(
		testHolding("", 1, 100, 110),
		testHolding("", 1, 100, 90),
	)
	require.NoError(t, fx.portfolios.Create(context.Background(), p))

	report, err := fx.orchestrator.AnalyzePortfolio(context.Background(), p.ID, p.UserID)
	require.NoError(t, err)

	// Every per-holding analysis failed but the report keeps its shape
	assert.Empty(t, report.HoldingsAnalysis)
	assert.Equal(t, p.ID.String(), report.PortfolioID)
	assert.NotZero(t, report.RiskAssessment.RiskScore)
	assert.NotZero(t, report.PortfolioHealth.HealthScore)
	assert.Equal(t, []string{"Sit tight"}, report.Recommendations)
}

func TestAnalyzePortfolio_TruncatesHoldings(t *testing.T) {
	fx := newOrchestratorFixture(t, "fine")

	holdings := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META"}
	p := testPortfolio()
	for _, sym := range holdings {
		h := testHolding(sym, 1, 100, 110)
		h.PortfolioID = p.ID
		p.Holdings = append(p.Holdings, h)
	}
	require.NoError(t, fx.portfolios.Create(context.Background(), p))

	report, err := fx.orchestrator.AnalyzePortfolio(context.Background(), p.ID, p.UserID)
	require.NoError(t, err)
	assert.Len(t, report.HoldingsAnalysis, 5)
}

func TestAnalyzePortfolio_UnknownPortfolio(t *testing.T) {
	fx := newOrchestratorFixture(t, "")

	_, err := fx.orchestrator.AnalyzePortfolio(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPortfolioNotFound))
}

func TestGetRecommendations_UsesCachedAnalysis(t *testing.T) {
	fx := newOrchestratorFixture(t, "1. Rebalance quarterly")

	p := testPortfolio(testHolding("AAPL", 1, 100, 110))
	require.NoError(t, fx.portfolios.Create(context.Background(), p))

	report, err := fx.orchestrator.AnalyzePortfolio(context.Background(), p.ID, p.UserID)
	require.NoError(t, err)

	calls := fx.reasoner.callCount()

	recs, err := fx.orchestrator.GetRecommendations(context.Background(), p.ID, p.UserID)
	require.NoError(t, err)

	assert.Equal(t, report.Recommendations, recs)
	assert.Equal(t, calls, fx.reasoner.callCount(), "cached recommendations must not re-run the analysis")
}

func TestGetRecommendations_RunsAnalysisWhenCold(t *testing.T) {
	fx := newOrchestratorFixture(t, "- Add bonds")

	p := testPortfolio(testHolding("AAPL", 1, 100, 110))
	require.NoError(t, fx.portfolios.Create(context.Background(), p))

	recs, err := fx.orchestrator.GetRecommendations(context.Background(), p.ID, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Add bonds"}, recs)
	assert.Greater(t, fx.reasoner.callCount(), 0)
}

func TestChat_RoutesAndRecordsMessages(t *testing.T) {
	fx := newOrchestratorFixture(t, "Here is my read on that.")

	p := testPortfolio(testHolding("AAPL", 1, 100, 110))
	require.NoError(t, fx.portfolios.Create(context.Background(), p))

	answer, err := fx.orchestrator.Chat(context.Background(), p.ID, p.UserID, "How risky is my portfolio?")
	require.NoError(t, err)
	assert.Equal(t, "Here is my read on that.", answer)

	state := fx.orchestrator.states.Get(p.ID.String(), p.UserID.String())
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "user", state.Messages[0].Role)
	assert.Equal(t, "assistant", state.Messages[1].Role)
}

func TestChat_EmptyMessage(t *testing.T) {
	fx := newOrchestratorFixture(t, "")

	_, err := fx.orchestrator.Chat(context.Background(), uuid.New(), uuid.New(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestRouteMessage_Priority(t *testing.T) {
	fx := newOrchestratorFixture(t, "")
	o := fx.orchestrator

	cases := []struct {
		message string
		want    string
	}{
		{"any news on my holdings?", "news"},
		// news outranks risk when both match
		{"news about risk levels", "news"},
		{"how much volatility should I expect?", "risk"},
		{"what does the chart say?", "trend"},
		{"should I rebalance my allocation?", "monitor"},
		{"tell me about NVDA", "equity"},
	}

	for _, tc := range cases {
		got := o.routeMessage(tc.message)
		var kind string
		switch got.(type) {
		case *NewsAgent:
			kind = "news"
		case *RiskAgent:
			kind = "risk"
		case *MarketTrendAgent:
			kind = "trend"
		case *MonitorAgent:
			kind = "monitor"
		case *EquityAgent:
			kind = "equity"
		}
		assert.Equal(t, tc.want, kind, "message: %q", tc.message)
	}
}

func TestParseRecommendations(t *testing.T) {
	text := `Here is what I suggest:
1. Trim the AAPL position
2) Add fixed income exposure
- Review expense ratios
• Set up automatic rebalancing
Not a list item
3. Keep a cash buffer
4. One too many`

	recs := parseRecommendations(text, 5)
	assert.Equal(t, []string{
		"Trim the AAPL position",
		"Add fixed income exposure",
		"Review expense ratios",
		"Set up automatic rebalancing",
		"Keep a cash buffer",
	}, recs)
}

func TestParseRecommendations_Empty(t *testing.T) {
	assert.Empty(t, parseRecommendations("no list here\njust prose", 5))
}

func TestStateStore_LazyCreate(t *testing.T) {
	store := NewStateStore()

	state := store.Get("p1", "u1")
	assert.Equal(t, "p1", state.PortfolioID)
	assert.Equal(t, "u1", state.UserID)
	assert.Equal(t, "p1", state.Context["portfolio_id"])

	// Same portfolio returns the same state
	again := store.Get("p1", "other-user")
	assert.Same(t, state, again)
}

func TestStateStore_LockSerializesPerPortfolio(t *testing.T) {
	store := NewStateStore()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock("p1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
