package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"

	"fincopilot/internal/agents"
	"fincopilot/internal/domain/portfolio"
	"fincopilot/pkg/errors"
)

func (h *Handler) analyzePortfolio(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedPortfolio(c, id); !ok {
		return
	}

	report, err := h.orchestrator.AnalyzePortfolio(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) getRecommendations(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedPortfolio(c, id); !ok {
		return
	}

	recommendations, err := h.orchestrator.GetRecommendations(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

// holdingCSVRow is the CSV export shape for one position.
type holdingCSVRow struct {
	Symbol          string  `csv:"symbol"`
	AssetType       string  `csv:"asset_type"`
	Quantity        string  `csv:"quantity"`
	AvgCost         string  `csv:"avg_cost"`
	CurrentPrice    string  `csv:"current_price"`
	Value           float64 `csv:"value"`
	GainLossPercent float64 `csv:"gain_loss_percent"`
}

func (h *Handler) generateReport(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	p, ok := h.ownedPortfolio(c, id)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "html"))
	switch format {
	case "html":
		data, err := h.orchestrator.GenerateReport(c.Request.Context(), id, currentUserID(c), agents.FormatHTML)
		if err != nil {
			h.errorResponse(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	case "pdf":
		data, err := h.orchestrator.GenerateReport(c.Request.Context(), id, currentUserID(c), agents.FormatPDF)
		if err != nil {
			h.errorResponse(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="portfolio-%s.pdf"`, id))
		c.Data(http.StatusOK, "application/pdf", data)
	case "csv":
		data, err := holdingsCSV(p)
		if err != nil {
			h.errorResponse(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="portfolio-%s.csv"`, id))
		c.Data(http.StatusOK, "text/csv", data)
	default:
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "unsupported format %q", format))
	}
}

func holdingsCSV(p *portfolio.Portfolio) ([]byte, error) {
	rows := make([]holdingCSVRow, 0, len(p.Holdings))
	for _, holding := range p.Holdings {
		rows = append(rows, holdingCSVRow{
			Symbol:          holding.Symbol,
			AssetType:       string(holding.AssetType),
			Quantity:        holding.Quantity.String(),
			AvgCost:         holding.AvgCost.String(),
			CurrentPrice:    holding.CurrentPrice.String(),
			Value:           holding.Value(),
			GainLossPercent: holding.GainLossPercent(),
		})
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return nil, errors.Wrap(err, "marshal holdings csv")
	}
	return buf.Bytes(), nil
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) chat(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	if _, ok := h.ownedPortfolio(c, id); !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	answer, err := h.orchestrator.Chat(c.Request.Context(), id, currentUserID(c), req.Message)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

type driftRequest struct {
	TargetAllocation map[string]float64 `json:"target_allocation" binding:"required"`
}

func (h *Handler) checkDrift(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	p, ok := h.ownedPortfolio(c, id)
	if !ok {
		return
	}

	var req driftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	report, err := h.monitor.CheckDrift(p, req.TargetAllocation)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) suggestRebalancing(c *gin.Context) {
	id, ok := h.parsePortfolioID(c)
	if !ok {
		return
	}
	p, ok := h.ownedPortfolio(c, id)
	if !ok {
		return
	}

	plan, err := h.monitor.SuggestRebalancing(p)
	if err != nil {
		h.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

type profileRiskRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

func (h *Handler) profileRisk(c *gin.Context) {
	var req profileRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, errors.Wrapf(errors.ErrInvalidInput, "%v", err))
		return
	}

	profile := h.risk.ProfileUserRisk(req.Answers)

	if err := h.users.UpdateRiskProfile(c.Request.Context(), currentUserID(c), profile.Profile); err != nil {
		h.log.Warnf("Failed to persist risk profile: %v", err)
	}
	c.JSON(http.StatusOK, profile)
}
