package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/middleware"
	"github.com/ridgeline-auto/dms-api/internal/service"
)

// currentActor resolves the audit actor from the authenticated request.
func currentActor(c *gin.Context) service.Actor {
	actor := service.Actor{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if claims, ok := middleware.CurrentClaims(c); ok {
		actor.UserID = claims.UserID
	}
	return actor
}

// pageParams reads the page and limit query params with defaults.
func pageParams(c *gin.Context, defaultLimit int) (int, int) {
	page := 1
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		page = v
	}
	limit := defaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

// queryDate parses an RFC 3339 or YYYY-MM-DD query param.
func queryDate(c *gin.Context, name string) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

// queryFloat parses a float query param.
func queryFloat(c *gin.Context, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return &v
	}
	return nil
}
