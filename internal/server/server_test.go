package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gradient-mcp/internal/config"
	"github.com/sakif/gradient-mcp/internal/server"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	cfg := &config.Config{
		Port:             8080,
		ServerURL:        "https://gradient.example.com",
		DBPath:           ":memory:",
		JWTSecret:        "test-secret-at-least-16-chars",
		IssuerURL:        "https://issuer.example.com",
		AuthenticateURL:  "https://issuer.example.com/oauth/authenticate",
		AuthorizationURL: "https://issuer.example.com/oauth/authorize",
		TokenURL:         "https://issuer.example.com/oauth/token",
		ProjectID:        "project-test",
		ProjectSecret:    "secret-test",
		StaticDir:        t.TempDir(),
		RateLimit:        100,
		RateLimitBurst:   100,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(cfg, logger)
	require.NoError(t, err)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("protected resource metadata", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/.well-known/oauth-protected-resource", nil))

		assert.Equal(t, http.StatusOK, rr.Code)

		var doc struct {
			Resource             string   `json:"resource"`
			AuthorizationServers []string `json:"authorization_servers"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))
		assert.Equal(t, "https://gradient.example.com/mcp", doc.Resource)
		assert.Equal(t, []string{"https://issuer.example.com"}, doc.AuthorizationServers)
	})

	t.Run("authorization server metadata", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("sync without credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/sync", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("me without session", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://client.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
