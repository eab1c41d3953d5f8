package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		origins string
		wantNil bool
	}{
		{name: "disabled", enabled: false, origins: "https://letters.example.com", wantNil: true},
		{name: "enabled without origins", enabled: true, origins: "", wantNil: true},
		{name: "enabled with only separators", enabled: true, origins: " , ,", wantNil: true},
		{name: "enabled with only invalid origins", enabled: true, origins: "*,ftp://files.example.com", wantNil: true},
		{name: "enabled with origins", enabled: true, origins: "https://letters.example.com,https://admin.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := createCORSMiddleware(tt.enabled, tt.origins, discardLogger())
			if tt.wantNil {
				assert.Nil(t, middleware)
			} else {
				assert.NotNil(t, middleware)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	t.Run("Success_Empty", func(t *testing.T) {
		origins, rejected := parseOrigins("")
		assert.Empty(t, origins)
		assert.Empty(t, rejected)
	})

	t.Run("Success_TrimsAndNormalizes", func(t *testing.T) {
		origins, rejected := parseOrigins(" https://letters.example.com , http://localhost:5173/ ")
		assert.Equal(t, []string{"https://letters.example.com", "http://localhost:5173"}, origins)
		assert.Empty(t, rejected)
	})

	t.Run("Error_RejectsInvalidOrigins", func(t *testing.T) {
		origins, rejected := parseOrigins("*,letters.example.com,https://letters.example.com/page,https://ok.example.com")
		assert.Equal(t, []string{"https://ok.example.com"}, origins)
		assert.Equal(t, []string{"*", "letters.example.com", "https://letters.example.com/page"}, rejected)
	})
}

func corsRouter(enabled bool) *gin.Engine {
	router := gin.New()
	if middleware := createCORSMiddleware(enabled, "https://letters.example.com", discardLogger()); middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/access/verify", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestCORS_Preflight(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/access/verify", nil)
	req.Header.Set("Origin", "https://letters.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	corsRouter(true).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://letters.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORS_SimpleRequest(t *testing.T) {
	t.Run("Success_AllowedOrigin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/access/verify", nil)
		req.Header.Set("Origin", "https://letters.example.com")
		corsRouter(true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://letters.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	})

	t.Run("Success_DisabledAddsNoHeaders", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/access/verify", nil)
		req.Header.Set("Origin", "https://letters.example.com")
		corsRouter(false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
