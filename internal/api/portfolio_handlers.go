package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

type createPortfolioRequest struct {
	Name     string           `json:"name" binding:"required"`
	Holdings []holdingRequest `json:"holdings"`
}

type holdingRequest struct {
	Symbol       string          `json:"symbol" binding:"required"`
	AssetType    string          `json:"asset_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

func (r holdingRequest) toHolding(portfolioID uuid.UUID) portfolio.Holding {
	assetType := portfolio.AssetType(r.AssetType)
	if assetType == "" {
		assetType = portfolio.AssetStock
	}
	return portfolio.Holding{
		ID:           uuid.New(),
		PortfolioID:  portfolioID,
		Symbol:       strings.ToUpper(strings.TrimSpace(r.Symbol)),
		AssetType:    assetType,
		Quantity:     r.Quantity,
		AvgCost:      r.AvgCost,
		CurrentPrice: r.CurrentPrice,
		UpdatedAt:    time.Now().UTC(),
	}
}

func (h *Handler) listPortfolios(c *gin.Context) {
	portfolios, err := h.portfolios.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}

func (h *Handler) createPortfolio(c *gin.Context) {
	var req createPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	now := time.Now().UTC()
	p := &portfolio.Portfolio{
		ID:        uuid.New(),
		UserID:    currentUserID(c),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, hr := range req.Holdings {
		p.Holdings = append(p.Holdings, hr.toHolding(p.ID))
	}

	if err := h.portfolios.Create(c.Request.Context(), p); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) getPortfolio(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	p, ok := h.ownedPortfolio(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

type updatePortfolioRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) updatePortfolio(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	p, ok := h.ownedPortfolio(c, id)
	if !ok {
		return
	}

	var req updatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	p.Name = req.Name
	if err := h.portfolios.Update(c.Request.Context(), p); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deletePortfolio(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedPortfolio(c, id); !ok {
		return
	}

	if err := h.portfolios.Delete(c.Request.Context(), id); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addHolding(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedPortfolio(c, id); !ok {
		return
	}

	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	holding := req.toHolding(id)
	if err := h.portfolios.AddHolding(c.Request.Context(), id, &holding); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, holding)
}

func (h *Handler) removeHolding(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedPortfolio(c, id); !ok {
		return
	}

	symbol := strings.ToUpper(c.Param("symbol"))
	if err := h.portfolios.RemoveHolding(c.Request.Context(), id, symbol); err != nil {
		h.errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
