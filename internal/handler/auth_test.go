package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gradient-mcp/internal/apperror"
	"github.com/sakif/gradient-mcp/internal/auth"
	"github.com/sakif/gradient-mcp/internal/handler"
	"github.com/sakif/gradient-mcp/internal/model"
	"github.com/sakif/gradient-mcp/internal/service"
)

// MockVerifier returns a canned identity or error for any credential.
type MockVerifier struct {
	CapturedCredential string
	ReturnIdentity     *auth.VerifiedIdentity
	ReturnErr          error
}

func (m *MockVerifier) Verify(_ context.Context, credential string) (*auth.VerifiedIdentity, error) {
	m.CapturedCredential = credential
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnIdentity, nil
}

// MockProfileRepo is an in-memory profile store for handler testing.
type MockProfileRepo struct {
	Rows map[string]*model.Profile
}

func (m *MockProfileRepo) Upsert(_ context.Context, p *model.Profile) error {
	if m.Rows == nil {
		m.Rows = make(map[string]*model.Profile)
	}
	cp := *p
	m.Rows[p.UserID] = &cp
	return nil
}

func (m *MockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.Profile, error) {
	p, ok := m.Rows[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	cp := *p
	return &cp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strptr(s string) *string { return &s }

const metadataURL = "https://gradient.example.com/.well-known/oauth-protected-resource"

func newAuthHandler(verifier auth.Verifier, repo *MockProfileRepo) *handler.AuthHandler {
	logger := testLogger()
	tokens, _ := auth.NewTokenService("test-secret-at-least-16-chars")
	return handler.NewAuthHandler(verifier, tokens, service.NewProfileService(repo, logger), logger, metadataURL)
}

func TestAuthHandler_HandleSync(t *testing.T) {
	t.Run("valid credential establishes session", func(t *testing.T) {
		verifier := &MockVerifier{
			ReturnIdentity: &auth.VerifiedIdentity{
				UserID: "user-1",
				External: &model.ExternalProfile{
					Handle:      strptr("gopher"),
					DisplayName: strptr("Go Pher"),
				},
			},
		}
		repo := &MockProfileRepo{}
		h := newAuthHandler(verifier, repo)

		req := httptest.NewRequest(http.MethodPost, "/auth/sync", bytes.NewBufferString(`{"token":"provider-token"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleSync(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "provider-token", verifier.CapturedCredential)

		var profile model.Profile
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
		assert.Equal(t, "user-1", profile.UserID)
		require.NotNil(t, profile.Handle)
		assert.Equal(t, "gopher", *profile.Handle)

		// A session cookie was issued and the store was written.
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Contains(t, repo.Rows, "user-1")
	})

	t.Run("credential from Authorization header", func(t *testing.T) {
		verifier := &MockVerifier{ReturnIdentity: &auth.VerifiedIdentity{UserID: "user-2"}}
		h := newAuthHandler(verifier, &MockProfileRepo{})

		req := httptest.NewRequest(http.MethodPost, "/auth/sync", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		rr := httptest.NewRecorder()

		h.HandleSync(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "header-token", verifier.CapturedCredential)
	})

	t.Run("missing credential", func(t *testing.T) {
		h := newAuthHandler(&MockVerifier{}, &MockProfileRepo{})

		req := httptest.NewRequest(http.MethodPost, "/auth/sync", bytes.NewBufferString(`{}`))
		rr := httptest.NewRecorder()

		h.HandleSync(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejected credential returns 401 with challenge", func(t *testing.T) {
		verifier := &MockVerifier{ReturnErr: apperror.Unauthenticated("credential rejected by issuer")}
		repo := &MockProfileRepo{}
		h := newAuthHandler(verifier, repo)

		req := httptest.NewRequest(http.MethodPost, "/auth/sync", bytes.NewBufferString(`{"token":"bad"}`))
		rr := httptest.NewRecorder()

		h.HandleSync(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Header().Get("WWW-Authenticate"), metadataURL)

		var errRes handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "authentication_error", errRes.Error)

		// No session, no row.
		assert.Empty(t, rr.Result().Cookies())
		assert.Empty(t, repo.Rows)
	})

	t.Run("issuer outage returns 503", func(t *testing.T) {
		verifier := &MockVerifier{ReturnErr: apperror.Unavailable("issuer unreachable")}
		h := newAuthHandler(verifier, &MockProfileRepo{})

		req := httptest.NewRequest(http.MethodPost, "/auth/sync", bytes.NewBufferString(`{"token":"any"}`))
		rr := httptest.NewRecorder()

		h.HandleSync(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var errRes handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "verification_unavailable", errRes.Error)
	})
}

func TestAuthHandler_HandleMe(t *testing.T) {
	t.Run("returns stored profile for valid session", func(t *testing.T) {
		repo := &MockProfileRepo{Rows: map[string]*model.Profile{
			"user-1": {UserID: "user-1", Handle: strptr("gopher")},
		}}
		logger := testLogger()
		tokens, _ := auth.NewTokenService("test-secret-at-least-16-chars")
		h := handler.NewAuthHandler(&MockVerifier{}, tokens, service.NewProfileService(repo, logger), logger, metadataURL)

		tokenStr, err := tokens.Generate("user-1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tokenStr})
		rr := httptest.NewRecorder()

		// Route through the session middleware, like the real router does.
		auth.RequireSession(tokens)(http.HandlerFunc(h.HandleMe)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var profile model.Profile
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
		assert.Equal(t, "user-1", profile.UserID)
	})

	t.Run("no session cookie returns 401", func(t *testing.T) {
		tokens, _ := auth.NewTokenService("test-secret-at-least-16-chars")
		h := newAuthHandler(&MockVerifier{}, &MockProfileRepo{})

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rr := httptest.NewRecorder()

		auth.RequireSession(tokens)(http.HandlerFunc(h.HandleMe)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	h := newAuthHandler(&MockVerifier{}, &MockProfileRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rr := httptest.NewRecorder()

	h.HandleLogout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
