package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fincopilot/internal/agents"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/internal/domain/user"
	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// Handler implements the API endpoints.
type Handler struct {
	auth         *AuthService
	orchestrator *agents.Orchestrator
	equity       *agents.EquityAgent
	trend        *agents.MarketTrendAgent
	news         *agents.NewsAgent
	risk         *agents.RiskAgent
	monitor      *agents.MonitorAgent
	portfolios   portfolio.Repository
	users        user.Repository
	log          *logger.Logger
}

// NewHandler creates the endpoint handler
func NewHandler(
	auth *AuthService,
	orchestrator *agents.Orchestrator,
	equity *agents.EquityAgent,
	trend *agents.MarketTrendAgent,
	newsAgent *agents.NewsAgent,
	risk *agents.RiskAgent,
	monitor *agents.MonitorAgent,
	portfolios portfolio.Repository,
	users user.Repository,
) *Handler {
	return &Handler{
		auth:         auth,
		orchestrator: orchestrator,
		equity:       equity,
		trend:        trend,
		news:         newsAgent,
		risk:         risk,
		monitor:      monitor,
		portfolios:   portfolios,
		users:        users,
		log:          logger.Get().With("component", "api_handler"),
	}
}

// errorResponse maps domain errors to HTTP status codes
func (h *Handler) errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrPortfolioNotFound), errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrInvalidSymbol):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, errors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, errors.ErrDataUnavailable), errors.Is(err, errors.ErrProviderUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// parsePortfolioID reads and validates the :id path param
func (h *Handler) parsePortfolioID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "invalid portfolio id"))
		return uuid.Nil, false
	}
	return id, true
}

// ownedPortfolio loads a portfolio and checks ownership
func (h *Handler) ownedPortfolio(c *gin.Context, id uuid.UUID) (*portfolio.Portfolio, bool) {
	p, err := h.portfolios.GetByID(c.Request.Context(), id)
	if err != nil {
		h.errorResponse(c, err)
		return nil, false
	}
	if p.UserID != currentUserID(c) {
		h.errorResponse(c, errors.Wrap(errors.ErrForbidden, "not your portfolio"))
		return nil, false
	}
	return p, true
}

// --- auth ---

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
