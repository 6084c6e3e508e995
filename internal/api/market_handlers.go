package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) marketOverview(c *gin.Context) {
	overview, err := h.trend.MarketOverview(c.Request.Context())
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) sectorPerformance(c *gin.Context) {
	performance, err := h.trend.SectorPerformance(c.Request.Context())
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, performance)
}

func (h *Handler) analyzeTrend(c *gin.Context) {
	trend, err := h.trend.AnalyzeTrend(c.Request.Context(), c.Param("symbol"), c.Query("timeframe"))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (h *Handler) symbolNews(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	items, err := h.news.FetchNews(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": items})
}

func (h *Handler) analyzeStock(c *gin.Context) {
	result, err := h.equity.AnalyzeStock(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) comparePeers(c *gin.Context) {
	result, err := h.equity.ComparePeers(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) calculateValuation(c *gin.Context) {
	result, err := h.equity.CalculateValuation(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
