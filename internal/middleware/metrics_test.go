package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ridgeline-auto/dms-api/internal/service"
)

func TestMetricsCountsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metricsSvc := service.NewMetricsService()

	r := gin.New()
	r.Use(Metrics(metricsSvc))
	r.POST("/api/vehicles", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{}) })
	r.DELETE("/api/sales/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.POST("/api/auth/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.PATCH("/api/parts/:id", func(c *gin.Context) { c.JSON(http.StatusBadRequest, gin.H{}) })

	send := func(method, target string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	}
	send(http.MethodPost, "/api/vehicles")
	send(http.MethodDelete, "/api/sales/sale-1")
	send(http.MethodPost, "/api/auth/login")
	send(http.MethodPatch, "/api/parts/part-1")

	w := httptest.NewRecorder()
	metricsSvc.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	assert.Contains(t, body, `entity_mutations_total{action="CREATE",resource_type="vehicles"} 1`)
	assert.Contains(t, body, `entity_mutations_total{action="DELETE",resource_type="sales"} 1`)
	// Logins and failed mutations do not count as entity mutations.
	assert.NotContains(t, body, `resource_type="auth"`)
	assert.NotContains(t, body, `resource_type="parts"`)
}

func TestMutationResource(t *testing.T) {
	assert.Equal(t, "vehicles", mutationResource("/api/vehicles/:id"))
	assert.Equal(t, "repair-orders", mutationResource("/api/repair-orders"))
	assert.Equal(t, "", mutationResource("/api/auth/login"))
	assert.Equal(t, "", mutationResource(""))
}
