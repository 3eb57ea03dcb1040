package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/sneaker-tracker/internal/services"
)

// Largest top/worst performer list a caller may ask for
const maxTopN = 50

type PortfolioHandler struct {
	portfolio *services.PortfolioService
	valuation *services.ValuationWorker
}

func NewPortfolioHandler(portfolio *services.PortfolioService, valuation *services.ValuationWorker) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, valuation: valuation}
}

// GetAnalytics aggregates the items selected by the query criteria.
func (h *PortfolioHandler) GetAnalytics(c *gin.Context) {
	criteria, err := ParseCriteria(c)
	if err != nil {
		respondError(c, err)
		return
	}

	topN := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxTopN {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be between 1 and 50"})
			return
		}
		topN = n
	}

	snap, err := h.portfolio.Analytics(c.Request.Context(), ownerID(c), criteria, topN)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetValuationStatus reports the background valuation worker's last run.
func (h *PortfolioHandler) GetValuationStatus(c *gin.Context) {
	if h.valuation == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "valuation worker not available"})
		return
	}
	c.JSON(http.StatusOK, h.valuation.Status())
}
