package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/options-backtester/internal/backtest"
	"github.com/rzzdr/options-backtester/internal/market"
)

// handleHealth returns health status of the API
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetResults returns daily result rows, paginated with limit and
// offset query parameters.
func (s *Server) handleGetResults(c *gin.Context) {
	results := s.provider.Results()

	limit, offset, err := paginationParams(c, len(results))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := results[offset:min(offset+limit, len(results))]
	c.JSON(http.StatusOK, gin.H{
		"results": page,
		"count":   len(page),
		"total":   len(results),
		"offset":  offset,
		"limit":   limit,
	})
}

// handleGetTrades returns the trade ledger, paginated.
func (s *Server) handleGetTrades(c *gin.Context) {
	trades := s.provider.Trades()

	limit, offset, err := paginationParams(c, len(trades))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := trades[offset:min(offset+limit, len(trades))]
	c.JSON(http.StatusOK, gin.H{
		"trades": page,
		"count":  len(page),
		"total":  len(trades),
		"offset": offset,
		"limit":  limit,
	})
}

// handleGetSummary returns aggregate performance statistics.
func (s *Server) handleGetSummary(c *gin.Context) {
	riskFreeRate := market.DefaultRate
	if raw := c.Query("risk_free_rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid risk_free_rate parameter"})
			return
		}
		riskFreeRate = parsed
	}

	summary := backtest.Summarize(s.provider.Results(), s.provider.Trades(), riskFreeRate)
	c.JSON(http.StatusOK, summary)
}

func paginationParams(c *gin.Context, total int) (limit, offset int, err error) {
	limit = 100
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, errInvalidParam("limit")
		}
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidParam("offset")
		}
	}
	if offset > total {
		offset = total
	}
	return limit, offset, nil
}

type paramError string

func (e paramError) Error() string { return "invalid " + string(e) + " parameter" }

func errInvalidParam(name string) error { return paramError(name) }
