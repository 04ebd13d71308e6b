package handler

import (
	"net/http"

	"golang.org/x/oauth2"
)

// MetadataHandler publishes the OAuth discovery documents MCP clients use
// to find out how to obtain a credential for this server.
//
// Clients that get a 401 look for a WWW-Authenticate header pointing at
// /.well-known/oauth-protected-resource, fetch it, and follow
// authorization_servers to the issuer.
type MetadataHandler struct {
	serverURL string          // public base URL of this server, no trailing slash
	issuerURL string          // identity issuer base URL
	endpoint  oauth2.Endpoint // issuer's authorization and token endpoints
}

// NewMetadataHandler creates a MetadataHandler.
func NewMetadataHandler(serverURL, issuerURL string, endpoint oauth2.Endpoint) *MetadataHandler {
	return &MetadataHandler{
		serverURL: serverURL,
		issuerURL: issuerURL,
		endpoint:  endpoint,
	}
}

// protectedResourceMetadata is the RFC 9728 protected-resource document.
type protectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
}

// authorizationServerMetadata is the RFC 8414 authorization-server document,
// trimmed to the fields our clients read.
type authorizationServerMetadata struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// HandleProtectedResource serves GET /.well-known/oauth-protected-resource.
func (h *MetadataHandler) HandleProtectedResource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protectedResourceMetadata{
		Resource:               h.serverURL + "/mcp",
		AuthorizationServers:   []string{h.issuerURL},
		BearerMethodsSupported: []string{"header"},
	})
}

// HandleAuthorizationServer serves GET /.well-known/oauth-authorization-server.
//
// The issuer hosts its own document, but some MCP clients only look on the
// resource server, so we republish the endpoints we were configured with.
func (h *MetadataHandler) HandleAuthorizationServer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, authorizationServerMetadata{
		Issuer:                        h.issuerURL,
		AuthorizationEndpoint:         h.endpoint.AuthURL,
		TokenEndpoint:                 h.endpoint.TokenURL,
		ResponseTypesSupported:        []string{"code"},
		GrantTypesSupported:           []string{"authorization_code", "refresh_token"},
		CodeChallengeMethodsSupported: []string{"S256"},
	})
}

// ResourceMetadataURL is the absolute URL of the protected-resource document,
// used to build WWW-Authenticate challenges.
func (h *MetadataHandler) ResourceMetadataURL() string {
	return h.serverURL + "/.well-known/oauth-protected-resource"
}

// HandleHealthz serves GET /healthz.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
