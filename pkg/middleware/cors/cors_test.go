package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewAllowsConfiguredOrigin(t *testing.T) {
	w := serve([]string{"https://dashboard.ridgeline.example/"}, http.MethodGet, "https://Dashboard.Ridgeline.Example")

	assert.Equal(t, "https://Dashboard.Ridgeline.Example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNewIgnoresUnknownOrigin(t *testing.T) {
	w := serve([]string{"https://dashboard.ridgeline.example"}, http.MethodGet, "https://evil.example")

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNewWildcardWithoutConfiguredOrigins(t *testing.T) {
	w := serve(nil, http.MethodGet, "")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNewShortCircuitsPreflight(t *testing.T) {
	w := serve([]string{"https://dashboard.ridgeline.example"}, http.MethodOptions, "https://dashboard.ridgeline.example")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}
