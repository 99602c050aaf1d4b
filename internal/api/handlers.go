package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northpine/newsroom-api/internal/metrics"
	"github.com/northpine/newsroom-api/internal/urls"
)

// getHome returns the curated home feed.
func (r *Router) getHome(c *gin.Context) {
	feed, err := r.svc.Home(c.Request.Context(), urls.FromHTTP(c.Request))
	if err != nil {
		r.handleServiceError(c, err, metrics.EndpointHome)
		return
	}

	r.tracker.IncrementServed(c.Request.Context(), metrics.EndpointHome)
	c.JSON(http.StatusOK, feed)
}

// getSectionFeed returns one page of a section's articles. The cursor
// query parameter selects the page; absent means the first page.
func (r *Router) getSectionFeed(c *gin.Context) {
	slug := c.Param("slug")
	token := c.Query("cursor")

	feed, err := r.svc.Section(c.Request.Context(), slug, token, urls.FromHTTP(c.Request))
	if err != nil {
		r.handleServiceError(c, err, metrics.EndpointSection)
		return
	}

	r.tracker.IncrementServed(c.Request.Context(), metrics.EndpointSection)
	c.JSON(http.StatusOK, feed)
}

// getArticle returns the full article detail with a normalized body.
func (r *Router) getArticle(c *gin.Context) {
	slug := c.Param("slug")

	detail, err := r.svc.Detail(c.Request.Context(), slug, urls.FromHTTP(c.Request))
	if err != nil {
		r.handleServiceError(c, err, metrics.EndpointArticle)
		return
	}

	r.tracker.IncrementServed(c.Request.Context(), metrics.EndpointArticle)
	c.JSON(http.StatusOK, detail)
}
