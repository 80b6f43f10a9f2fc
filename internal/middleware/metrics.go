package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/service"
)

// mutationActions maps HTTP methods to the audit action they correspond to.
var mutationActions = map[string]string{
	http.MethodPost:   "CREATE",
	http.MethodPut:    "UPDATE",
	http.MethodPatch:  "UPDATE",
	http.MethodDelete: "DELETE",
}

// Metrics returns middleware that captures request metrics using the provided service.
// Successful mutating requests are additionally counted per resource.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)

		if action, ok := mutationActions[c.Request.Method]; ok && status < 300 {
			if resource := mutationResource(c.FullPath()); resource != "" {
				metricsSvc.ObserveMutation(resource, action)
			}
		}
	}
}

// mutationResource extracts the entity segment from a route template, e.g.
// "/api/vehicles/:id" yields "vehicles". Auth routes are not entity
// mutations and yield "".
func mutationResource(routePath string) string {
	segments := strings.Split(strings.TrimPrefix(routePath, "/"), "/")
	for _, seg := range segments {
		if seg == "" || seg == "api" {
			continue
		}
		if seg == "auth" {
			return ""
		}
		return seg
	}
	return ""
}
