package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gradient-mcp/internal/config"
)

// setRequired sets the minimum environment for a valid Load.
func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars")
	t.Setenv("ISSUER_URL", "https://issuer.example.com")
	t.Setenv("ISSUER_PROJECT_ID", "project-test-123")
	t.Setenv("ISSUER_PROJECT_SECRET", "secret-test-456")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "gradient.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadDerivesIssuerEndpoints(t *testing.T) {
	setRequired(t)
	t.Setenv("ISSUER_URL", "https://issuer.example.com/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://issuer.example.com/oauth/authenticate", cfg.AuthenticateURL)
	assert.Equal(t, "https://issuer.example.com/oauth/authorize", cfg.AuthorizationURL)
	assert.Equal(t, "https://issuer.example.com/oauth/token", cfg.TokenURL)
}

func TestLoadExplicitEndpointsWin(t *testing.T) {
	setRequired(t)
	t.Setenv("ISSUER_AUTHENTICATE_URL", "https://api.issuer.example.com/v1/oauth/authenticate")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.issuer.example.com/v1/oauth/authenticate", cfg.AuthenticateURL)
}

func TestLoadTrimsServerURL(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_URL", "https://gradient.example.com/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gradient.example.com", cfg.ServerURL)
}

func TestLoadReportsAllMissingVariables(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ISSUER_URL", "")
	t.Setenv("ISSUER_PROJECT_ID", "")
	t.Setenv("ISSUER_PROJECT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)

	// One failed startup should name every missing variable.
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "ISSUER_URL")
	assert.Contains(t, err.Error(), "ISSUER_PROJECT_ID")
	assert.Contains(t, err.Error(), "ISSUER_PROJECT_SECRET")
}

func TestLoadRejectsBadPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "70000")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}
