package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northpine/newsroom-api/internal/cursor"
	"github.com/northpine/newsroom-api/internal/logger"
	"github.com/northpine/newsroom-api/internal/models"
)

// handleServiceError maps service errors to HTTP responses. Not-found
// responses use the "detail" envelope consumed by the frontends; server
// failures use the "error" envelope.
func (r *Router) handleServiceError(c *gin.Context, err error, endpoint string) {
	switch {
	case errors.Is(err, models.ErrNotConfigured):
		r.tracker.IncrementMissed(c.Request.Context(), endpoint)
		c.JSON(http.StatusNotFound, gin.H{
			"detail": "Home page not configured.",
		})
	case errors.Is(err, models.ErrNotFound):
		r.tracker.IncrementMissed(c.Request.Context(), endpoint)
		c.JSON(http.StatusNotFound, gin.H{
			"detail": "Not found.",
		})
	case errors.Is(err, cursor.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Invalid cursor.",
		})
	default:
		r.logger.Error("request failed",
			logger.String("endpoint", endpoint),
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
	}
}
