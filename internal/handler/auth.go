package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/gradient-mcp/internal/apperror"
	"github.com/sakif/gradient-mcp/internal/auth"
	"github.com/sakif/gradient-mcp/internal/service"
)

// AuthHandler manages the first-party session flow around the provider
// credential.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSync   → verify a provider credential, sync the profile, issue a session JWT
//   - HandleMe     → return the current session's stored profile
//   - HandleLogout → clear the session cookie
//
// DEPENDENCY CHAIN:
//   - verifier auth.Verifier         → checks credentials against the identity issuer
//   - tokens   *auth.TokenService    → issues the session JWT
//   - profiles *service.ProfileService → syncs and looks up profiles
type AuthHandler struct {
	verifier auth.Verifier
	tokens   *auth.TokenService
	profiles *service.ProfileService
	logger   *slog.Logger

	// Absolute URL of the protected-resource discovery document, advertised
	// in WWW-Authenticate on credential rejection.
	resourceMetadataURL string
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	verifier auth.Verifier,
	tokens *auth.TokenService,
	profiles *service.ProfileService,
	logger *slog.Logger,
	resourceMetadataURL string,
) *AuthHandler {
	return &AuthHandler{
		verifier:            verifier,
		tokens:              tokens,
		profiles:            profiles,
		logger:              logger,
		resourceMetadataURL: resourceMetadataURL,
	}
}

// syncRequest is the body of POST /auth/sync. The credential may arrive in
// the body or as an Authorization bearer; the body wins when both are set.
type syncRequest struct {
	Token string `json:"token"`
}

// HandleSync verifies a provider credential and establishes a session.
//
// HTTP: POST /auth/sync
//
// FLOW:
//  1. Extract the credential (JSON body or Authorization header)
//  2. Verify it with the identity issuer
//  3. Sync the profile (atomic upsert, absent fields keep stored values)
//  4. Issue a session JWT in an HttpOnly cookie
//  5. Return the synced profile
func (h *AuthHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	credential := h.credentialFromRequest(r)
	if credential == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_argument",
			Message: "a credential is required: send {\"token\": ...} or an Authorization bearer",
		})
		return
	}

	identity, err := h.verifier.Verify(r.Context(), credential)
	if err != nil {
		h.logger.Warn("sync: verification failed", slog.String("error", err.Error()))
		if errors.Is(err, apperror.ErrUnauthenticated) && h.resourceMetadataURL != "" {
			w.Header().Set("WWW-Authenticate", `Bearer resource_metadata="`+h.resourceMetadataURL+`"`)
		}
		writeError(w, err)
		return
	}

	profile, err := h.profiles.Sync(r.Context(), *identity)
	if err != nil {
		h.logger.Error("sync: profile sync failed",
			slog.String("userID", identity.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	tokenStr, err := h.tokens.Generate(profile.UserID)
	if err != nil {
		h.logger.Error("sync: token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// Set the JWT as an HttpOnly cookie.
	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = cookie is sent on top-level navigations but not cross-site POSTs.
	// Secure should be true in production (HTTPS only). We leave it false for local dev.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int((15 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Uncomment in production (requires HTTPS)
	})

	h.logger.Info("session established",
		slog.String("userID", profile.UserID),
		slog.String("handle", profile.HandleOr("")),
	)

	writeJSON(w, http.StatusOK, profile)
}

// HandleMe returns the current session's stored profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireSession middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	// Session middleware has already validated the JWT and set userID in
	// context, so ok is always true on this route. Check anyway.
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"authentication_error","message":"valid session required"}`, http.StatusUnauthorized)
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: profile lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// Logout is state-changing, so it's a POST: GET would be vulnerable to CSRF
// and browser pre-fetching. Since sessions are stateless JWTs, "logout" just
// deletes the client-side cookie; the token stays technically valid until
// it expires, but without the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// credentialFromRequest pulls the provider credential from the JSON body or,
// failing that, the Authorization header.
func (h *AuthHandler) credentialFromRequest(r *http.Request) string {
	var body syncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Token != "" {
		return body.Token
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
