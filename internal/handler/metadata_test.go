package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/gradient-mcp/internal/handler"
)

func newMetadataHandler() *handler.MetadataHandler {
	return handler.NewMetadataHandler(
		"https://gradient.example.com",
		"https://issuer.example.com",
		oauth2.Endpoint{
			AuthURL:  "https://issuer.example.com/oauth/authorize",
			TokenURL: "https://issuer.example.com/oauth/token",
		},
	)
}

func TestMetadataHandler_HandleProtectedResource(t *testing.T) {
	h := newMetadataHandler()

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-protected-resource", nil)
	rr := httptest.NewRecorder()

	h.HandleProtectedResource(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var doc struct {
		Resource             string   `json:"resource"`
		AuthorizationServers []string `json:"authorization_servers"`
		BearerMethods        []string `json:"bearer_methods_supported"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))
	assert.Equal(t, "https://gradient.example.com/mcp", doc.Resource)
	assert.Equal(t, []string{"https://issuer.example.com"}, doc.AuthorizationServers)
	assert.Equal(t, []string{"header"}, doc.BearerMethods)
}

func TestMetadataHandler_HandleAuthorizationServer(t *testing.T) {
	h := newMetadataHandler()

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil)
	rr := httptest.NewRecorder()

	h.HandleAuthorizationServer(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var doc struct {
		Issuer                string   `json:"issuer"`
		AuthorizationEndpoint string   `json:"authorization_endpoint"`
		TokenEndpoint         string   `json:"token_endpoint"`
		ResponseTypes         []string `json:"response_types_supported"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))
	assert.Equal(t, "https://issuer.example.com", doc.Issuer)
	assert.Equal(t, "https://issuer.example.com/oauth/authorize", doc.AuthorizationEndpoint)
	assert.Equal(t, "https://issuer.example.com/oauth/token", doc.TokenEndpoint)
	assert.Contains(t, doc.ResponseTypes, "code")
}

func TestMetadataHandler_ResourceMetadataURL(t *testing.T) {
	h := newMetadataHandler()
	assert.Equal(t, "https://gradient.example.com/.well-known/oauth-protected-resource", h.ResourceMetadataURL())
}

func TestHandleHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	handler.HandleHealthz(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
