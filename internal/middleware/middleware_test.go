package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGenerateAndValidateToken(t *testing.T) {
	tok, err := GenerateToken(3, 7, "driver")
	require.NoError(t, err)

	claims, err := ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, uint(7), claims.DriverID)
	assert.Equal(t, "driver", claims.Role)
	assert.NotEmpty(t, claims.ID)

	other, err := GenerateToken(3, 7, "driver")
	require.NoError(t, err)
	otherClaims, err := ValidateToken(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID, "each login is its own session")

	_, err = ValidateToken(tok + "x")
	assert.Error(t, err)
}

func router() *gin.Engine {
	r := gin.New()
	r.GET("/any", RequireAuth(), func(c *gin.Context) {
		a, ok := CurrentAuth(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"driver_id": a.DriverID, "sid": a.SessionID})
	})
	r.GET("/manager", RequireAuthWithRole("manager", "admin"), func(c *gin.Context) {
		c.Header("X-Handled", "1")
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	r := router()
	tok, err := GenerateToken(1, 2, "driver")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/any", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"driver_id":2`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/any?token="+tok, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthWithRole(t *testing.T) {
	r := router()
	driverTok, _ := GenerateToken(1, 2, "driver")
	managerTok, _ := GenerateToken(5, 0, "manager")

	req := httptest.NewRequest(http.MethodGet, "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+driverTok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("X-Handled"))

	req = httptest.NewRequest(http.MethodGet, "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+managerTok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Handled"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://ops.example.com"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
