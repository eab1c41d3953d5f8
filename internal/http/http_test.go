package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/letterbox/internal/access/domain"
	accessHTTP "github.com/allisson/letterbox/internal/access/http"
	"github.com/allisson/letterbox/internal/access/usecase/mocks"
	"github.com/allisson/letterbox/internal/config"
	"github.com/allisson/letterbox/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func createTestServer() *Server {
	return NewServer(nil, "localhost", 0, discardLogger())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestReadinessHandler(t *testing.T) {
	t.Run("Error_NilDB", func(t *testing.T) {
		server := createTestServer()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		response := decode(t, w)
		assert.Equal(t, "not_ready", response["status"])
		components, ok := response["components"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "error", components["database"])
	})

	t.Run("Success_PingOK", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing()

		server := NewServer(db, "localhost", 0, discardLogger())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.Equal(t, "ready", response["status"])
		assert.Equal(t, "ok", response["components"].(map[string]any)["database"])
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Error_PingFails", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		server := NewServer(db, "localhost", 0, discardLogger())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", decode(t, w)["status"])
	})
}

func TestCustomLoggerMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decode(t, w)["message"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDMiddleware_HeaderPresent(t *testing.T) {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	requestID := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, requestID)
	parsed, err := uuid.Parse(requestID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func routerConfig() *config.Config {
	return &config.Config{
		VerifyFloodGuardEnabled:        true,
		VerifyFloodGuardRequestsPerSec: 1,
		VerifyFloodGuardBurst:          1,
	}
}

func setupTestRouter(
	t *testing.T,
	cfg *config.Config,
	verification *mocks.MockVerificationUseCase,
	recipients *mocks.MockRecipientUseCase,
	provider *metrics.Provider,
) *Server {
	t.Helper()
	cookies := accessHTTP.CookieConfig{Prefix: "recipient_token_", Path: "/v1/recipients", Secure: true}
	server := createTestServer()
	server.SetupRouter(
		cfg,
		accessHTTP.NewVerificationHandler(verification, cookies, discardLogger()),
		accessHTTP.NewRecipientHandler(recipients, verification, cookies, discardLogger()),
		provider,
		"test_app",
	)
	t.Cleanup(func() {
		assert.NoError(t, server.Shutdown(context.Background()))
	})
	return server
}

func TestSetupRouter_Routes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	verification := &mocks.MockVerificationUseCase{}
	recipients := &mocks.MockRecipientUseCase{}
	recipientID := uuid.Must(uuid.NewV7())

	verification.On("VerifyAccess", mock.Anything, mock.Anything).
		Return(&domain.Denied{Reason: domain.DenialInvalidKey}, nil)
	recipients.On("GetPage", mock.Anything, "ana", (*domain.SessionClaims)(nil)).
		Return(&domain.RecipientPage{Teaser: domain.RecipientTeaser{ID: recipientID, Slug: "ana", Name: "Ana"}}, nil)

	t.Run("routes", func(t *testing.T) {
		server := setupTestRouter(t, routerConfig(), verification, recipients, nil)
		handler := server.GetHandler()

		tests := []struct {
			method string
			path   string
			body   string
			status int
		}{
			{http.MethodGet, "/health", "", http.StatusOK},
			{http.MethodGet, "/ready", "", http.StatusServiceUnavailable},
			{http.MethodPost, "/v1/access/verify", `{"slug":"ana","access_key":"wrong"}`, http.StatusUnauthorized},
			{http.MethodGet, "/v1/recipients/ana", "", http.StatusOK},
			{http.MethodGet, "/v1/recipients/ana/session", "", http.StatusUnauthorized},
			{http.MethodDelete, "/v1/recipients/ana/session", "", http.StatusNoContent},
			{http.MethodGet, "/metrics", "", http.StatusNotFound},
			{http.MethodGet, "/nonexistent", "", http.StatusNotFound},
		}

		for _, tt := range tests {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			req.RemoteAddr = "198.51.100.1:40000"

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"), "%s %s", tt.method, tt.path)
		}
	})

	t.Run("flood guard on verify only", func(t *testing.T) {
		server := setupTestRouter(t, routerConfig(), verification, recipients, nil)
		handler := server.GetHandler()

		send := func(method, path, body string) int {
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.RemoteAddr = "198.51.100.2:40000"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w.Code
		}

		body := `{"slug":"ana","access_key":"wrong"}`
		assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost, "/v1/access/verify", body))
		assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/v1/access/verify", body))
		assert.Equal(t, http.StatusOK, send(http.MethodGet, "/v1/recipients/ana", ""))
	})

	t.Run("flood guard disabled", func(t *testing.T) {
		cfg := routerConfig()
		cfg.VerifyFloodGuardEnabled = false
		server := setupTestRouter(t, cfg, verification, recipients, nil)
		handler := server.GetHandler()

		for range 3 {
			req := httptest.NewRequest(http.MethodPost, "/v1/access/verify",
				strings.NewReader(`{"slug":"ana","access_key":"wrong"}`))
			req.Header.Set("Content-Type", "application/json")
			req.RemoteAddr = "198.51.100.3:40000"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		}
	})
}

func TestSetupRouter_HTTPMetrics(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	server := setupTestRouter(t, routerConfig(), &mocks.MockVerificationUseCase{}, &mocks.MockRecipientUseCase{}, provider)

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	scrape := httptest.NewRecorder()
	provider.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), "test_app_http_requests")
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := createTestServer()
	server.router = gin.New()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(context.Background()); err != nil {
			errChan <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		t.Fatalf("server startup failed: %v", err)
	default:
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 0, discardLogger(), provider.Handler())
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsServer_NilHandler(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 0, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
