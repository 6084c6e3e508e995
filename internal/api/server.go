package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fincopilot/internal/adapters/config"
	"fincopilot/internal/metrics"
	"fincopilot/pkg/logger"
)

// Server wires the HTTP surface: auth, portfolio CRUD, the analysis
// endpoints and operational routes.
type Server struct {
	engine  *gin.Engine
	srv     *http.Server
	handler *Handler
	auth    *AuthService
	log     *logger.Logger
}

// NewServer builds the router
func NewServer(cfg config.HTTPConfig, appCfg config.AppConfig, handler *Handler, auth *AuthService) *Server {
	if appCfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())
	engine.Use(metricsMiddleware())

	s := &Server{
		engine:  engine,
		handler: handler,
		auth:    auth,
		log:     logger.Get().With("component", "http_server"),
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := s.engine.Group("/api/v1")

	v1.POST("/auth/register", s.handler.register)
	v1.POST("/auth/login", s.handler.login)

	authorized := v1.Group("", s.auth.Middleware())

	authorized.GET("/portfolios", s.handler.listPortfolios)
	authorized.POST("/portfolios", s.handler.createPortfolio)
	authorized.GET("/portfolios/:id", s.handler.getPortfolio)
	authorized.PUT("/portfolios/:id", s.handler.updatePortfolio)
	authorized.DELETE("/portfolios/:id", s.handler.deletePortfolio)
	authorized.POST("/portfolios/:id/holdings", s.handler.addHolding)
	authorized.DELETE("/portfolios/:id/holdings/:symbol", s.handler.removeHolding)

	authorized.POST("/portfolios/:id/analyze", s.handler.analyzePortfolio)
	authorized.GET("/portfolios/:id/recommendations", s.handler.getRecommendations)
	authorized.GET("/portfolios/:id/report", s.handler.generateReport)
	authorized.POST("/portfolios/:id/chat", s.handler.chat)
	authorized.POST("/portfolios/:id/drift", s.handler.checkDrift)
	authorized.POST("/portfolios/:id/rebalance", s.handler.suggestRebalancing)

	authorized.POST("/risk/profile", s.handler.profileRisk)

	authorized.GET("/market/overview", s.handler.marketOverview)
	authorized.GET("/market/sectors", s.handler.sectorPerformance)
	authorized.GET("/market/trend/:symbol", s.handler.analyzeTrend)
	authorized.GET("/market/news/:symbol", s.handler.symbolNews)

	authorized.GET("/stocks/:symbol/analysis", s.handler.analyzeStock)
	authorized.GET("/stocks/:symbol/peers", s.handler.comparePeers)
	authorized.GET("/stocks/:symbol/valuation", s.handler.calculateValuation)
}

// Start runs the HTTP server until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("HTTP server shutting down")
	return s.srv.Shutdown(ctx)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(
			c.Request.Method, path, fmt.Sprintf("%d", c.Writer.Status()),
		).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
