package bootstrap

import (
	"context"
	"sync"

	"fincopilot/internal/adapters/ai"
	"fincopilot/internal/adapters/config"
	"fincopilot/internal/adapters/errors/noop"
	"fincopilot/internal/adapters/errors/sentry"
	"fincopilot/internal/adapters/marketdata"
	"fincopilot/internal/adapters/news"
	pgclient "fincopilot/internal/adapters/postgres"
	redisclient "fincopilot/internal/adapters/redis"
	"fincopilot/internal/agents"
	"fincopilot/internal/api"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/internal/domain/user"
	"fincopilot/internal/metrics"
	"fincopilot/internal/rag"
	pgrepo "fincopilot/internal/repository/postgres"
	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure
	PG    *pgclient.Client
	Redis *redisclient.Client

	// Repositories
	Repos *Repositories

	// External adapters
	Adapters *Adapters

	// Agent layer
	Agents       *Agents
	Orchestrator *agents.Orchestrator

	// Application layer
	Auth    *api.AuthService
	Handler *api.Handler
	Server  *api.Server

	WG      *sync.WaitGroup
	Context context.Context
	Cancel  context.CancelFunc
}

// Repositories groups the domain repositories.
type Repositories struct {
	Portfolio portfolio.Repository
	User      user.Repository
}

// Adapters groups the external data adapters.
type Adapters struct {
	Market    marketdata.Provider
	News      news.Provider
	Reasoner  ai.Reasoner
	Retrieval rag.Engine // nil when RAG is disabled
}

// Agents groups the analysis agents behind the orchestrator.
type Agents struct {
	Equity  *agents.EquityAgent
	Trend   *agents.MarketTrendAgent
	News    *agents.NewsAgent
	Risk    *agents.RiskAgent
	Monitor *agents.MonitorAgent
}

// NewContainer creates an empty dependency container.
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:    &Repositories{},
		Adapters: &Adapters{},
		Agents:   &Agents{},
		WG:       &sync.WaitGroup{},
		Context:  ctx,
		Cancel:   cancel,
	}
}

// MustInit initializes all components in dependency order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.mustInitConfig()
	c.mustInitInfrastructure()
	c.mustInitRepositories()
	c.mustInitAdapters()
	c.mustInitAgents()
	c.mustInitApplication()
}

func (c *Container) mustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	c.Log = logger.Get()

	c.ErrorTracker = c.initErrorTracker()
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

func (c *Container) initErrorTracker() errors.Tracker {
	if !c.Config.ErrorTracking.Enabled || c.Config.ErrorTracking.SentryDSN == "" {
		c.Log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(c.Config.ErrorTracking.SentryDSN, c.Config.ErrorTracking.Environment)
	if err != nil {
		c.Log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	c.Log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func (c *Container) mustInitInfrastructure() {
	pg, err := pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	c.PG = pg

	rdb, err := redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("Failed to connect to Redis: %v", err)
	}
	c.Redis = rdb

	c.Log.Info("Infrastructure initialized")
}

func (c *Container) mustInitRepositories() {
	c.Repos.Portfolio = pgrepo.NewPortfolioRepository(c.PG.DB())
	c.Repos.User = pgrepo.NewUserRepository(c.PG.DB())
}

func (c *Container) mustInitAdapters() {
	md := c.Config.MarketData
	c.Adapters.Market = marketdata.NewCachedProvider(
		marketdata.NewYahooProvider(md.BaseURL, md.Timeout),
		c.Redis.Client(),
		md.PriceTTL,
		md.FundamentalTTL,
	)

	c.Adapters.News = news.NewCachedProvider(
		news.NewRSSProvider(nil, c.Config.News.Timeout),
		c.Redis.Client(),
		c.Config.News.CacheTTL,
	)

	reasoner, err := ai.NewReasoner(c.Context, c.Config.AI)
	if err != nil {
		c.Log.Fatalf("Failed to initialize AI reasoner: %v", err)
	}
	c.Adapters.Reasoner = reasoner
	c.Log.Infof("AI reasoner initialized: %s", reasoner.Name())

	if c.Config.RAG.Enabled {
		embedder, err := rag.NewOpenAIEmbedder(c.Config.AI.OpenAIKey, c.Config.RAG.EmbeddingModel, c.Config.AI.Timeout)
		if err != nil {
			c.Log.Fatalf("Failed to initialize embedder: %v", err)
		}
		c.Adapters.Retrieval = rag.NewVectorEngine(embedder, rag.NewPostgresStore(c.PG.DB()), c.Config.RAG.TopK)
		c.Log.Info("Retrieval engine initialized")
	}
}

func (c *Container) mustInitAgents() {
	cfg := c.Config.Agents
	reasoner := c.Adapters.Reasoner

	c.Agents.Equity = agents.NewEquityAgent(reasoner, c.Adapters.Market, cfg.MemoryLimit, cfg.MemoryKeep)
	c.Agents.Trend = agents.NewMarketTrendAgent(reasoner, c.Adapters.Market, cfg.MemoryLimit, cfg.MemoryKeep)
	c.Agents.News = agents.NewNewsAgent(reasoner, c.Adapters.News, cfg.MemoryLimit, cfg.MemoryKeep)
	c.Agents.Risk = agents.NewRiskAgent(reasoner, c.Adapters.Market, cfg.MemoryLimit, cfg.MemoryKeep)
	c.Agents.Monitor = agents.NewMonitorAgent(reasoner, cfg.MemoryLimit, cfg.MemoryKeep)

	c.Orchestrator = agents.NewOrchestrator(
		c.Agents.Equity,
		c.Agents.Trend,
		c.Agents.News,
		c.Agents.Risk,
		c.Agents.Monitor,
		c.Repos.Portfolio,
		c.Adapters.Retrieval,
		cfg,
	)

	c.Log.Info("Agents initialized")
}

func (c *Container) mustInitApplication() {
	c.Auth = api.NewAuthService(c.Repos.User, c.Config.Auth)
	c.Handler = api.NewHandler(
		c.Auth,
		c.Orchestrator,
		c.Agents.Equity,
		c.Agents.Trend,
		c.Agents.News,
		c.Agents.Risk,
		c.Agents.Monitor,
		c.Repos.Portfolio,
		c.Repos.User,
	)
	c.Server = api.NewServer(c.Config.HTTP, c.Config.App, c.Handler, c.Auth)
}

// Start launches the HTTP server.
func (c *Container) Start() error {
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Server.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel()
		}
	}()

	c.Log.Infof("Listening on :%d", c.Config.HTTP.Port)
	return nil
}

// Shutdown performs graceful shutdown in reverse initialization order.
func (c *Container) Shutdown(ctx context.Context) {
	c.Log.Info("Initiating graceful shutdown...")

	if err := c.Server.Shutdown(ctx); err != nil {
		c.Log.Errorf("HTTP server shutdown: %v", err)
	}

	c.Cancel()
	c.WG.Wait()

	if err := c.Redis.Close(); err != nil {
		c.Log.Errorf("Redis close: %v", err)
	}
	if err := c.PG.Close(); err != nil {
		c.Log.Errorf("PostgreSQL close: %v", err)
	}

	if err := c.ErrorTracker.Flush(ctx); err != nil {
		c.Log.Errorf("Error tracker flush: %v", err)
	}
	c.Log.Info("Shutdown complete")
}
