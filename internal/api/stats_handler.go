package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northpine/newsroom-api/internal/logger"
)

// getStatsOverview returns aggregated serve counters for the editorial
// dashboard.
func (r *Router) getStatsOverview(c *gin.Context) {
	stats, err := r.tracker.GetStats(c.Request.Context())
	if err != nil {
		r.logger.Error("failed to read serve counters", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
