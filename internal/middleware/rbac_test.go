package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

func requestWithLevel(role models.UserRole, authenticated bool) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
		})
	}
	r.Use(RequireLevel(models.RoleSalesManager))
	r.GET("/export", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))
	return w.Code
}

func TestRequireLevelAdmitsRanksAtOrAboveMinimum(t *testing.T) {
	assert.Equal(t, http.StatusOK, requestWithLevel(models.RoleAdmin, true))
	assert.Equal(t, http.StatusOK, requestWithLevel(models.RoleSalesManager, true))
}

func TestRequireLevelRejectsLowerRanks(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, requestWithLevel(models.RoleSalesRep, true))
	assert.Equal(t, http.StatusForbidden, requestWithLevel(models.RoleViewer, true))
}

func TestRequireLevelWithoutClaims(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, requestWithLevel("", false))
}
