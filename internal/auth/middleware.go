package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents other packages from reading or
// shadowing the values we store in the request context.
type contextKey string

const (
	userIDKey contextKey = "userID"
	bearerKey contextKey = "bearer"
)

// WithBearer is a middleware that copies the Authorization bearer credential
// into the request context without validating it.
//
// The MCP transport hands tool handlers a context, not the *http.Request, so
// this is how the raw credential travels from the HTTP boundary to the
// request-handling state machine — which decides per call whether to verify
// it or take the anonymous path. Absence of a credential is legal here:
// anonymous tool calls succeed with a default profile view.
func WithBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerFromHeader(r); token != "" {
			r = r.WithContext(ContextWithBearer(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// ContextWithBearer stores a raw bearer credential in the context.
func ContextWithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerFromContext retrieves the raw bearer credential captured by
// WithBearer. Returns ("", false) when the request carried none.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey).(string)
	return token, ok && token != ""
}

// bearerFromHeader extracts the credential from "Authorization: Bearer <x>".
func bearerFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireSession is a middleware that enforces a first-party session on
// protected routes.
//
// It reads the JWT from the "session" HttpOnly cookie, validates it, and
// stores the userID in the request context. If the cookie is missing or the
// token invalid, it returns 401 Unauthorized and stops the request chain.
//
// COOKIE-BASED TOKEN STORAGE:
// The JWT lives in an HttpOnly cookie rather than localStorage or a header.
// HttpOnly means JavaScript cannot read it, which keeps XSS from stealing
// the token.
func RequireSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessionUserID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"authentication_error","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the session user's ID from the request context.
// Returns ("", false) if the request has no valid session.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// sessionUserID reads the session cookie and validates it.
func sessionUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		// http.ErrNoCookie — no session at all
		return "", err
	}

	return tokens.Validate(cookie.Value)
}

// SessionCookieName is the cookie holding the first-party session JWT.
const SessionCookieName = "session"
