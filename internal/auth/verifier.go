// Package auth provides bearer-credential verification and first-party
// session tokens.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. The login widget completes the OAuth dance with the identity provider
//    and ends up holding a provider session token.
// 2. The widget POSTs to /auth/sync with that token; the server verifies it
//    with the provider, upserts the profile, and issues a first-party JWT
//    session cookie.
// 3. MCP clients send the provider token as an Authorization bearer on tool
//    calls; each call is verified with the provider (no session state).
//
// Verification is a pure network call: it never touches the profile store.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/gradient-mcp/internal/apperror"
	"github.com/sakif/gradient-mcp/internal/model"
)

// VerifiedIdentity is the outcome of a successful credential verification:
// the provider's canonical user ID plus, when the session was created
// through a linked external account, a snapshot of that account's profile.
// External is nil for sessions without a linked account.
type VerifiedIdentity struct {
	UserID   string
	External *model.ExternalProfile
}

// Verifier validates a bearer credential and resolves the identity behind it.
//
// Implementations must keep two failure kinds distinct:
//   - apperror.ErrUnauthenticated — the issuer looked at the credential and
//     rejected it (expired, revoked, malformed)
//   - apperror.ErrUnavailable — the issuer could not be reached or answered
//     nonsense; the credential might be perfectly fine
//
// Callers must never treat infrastructure failure as "access denied".
type Verifier interface {
	Verify(ctx context.Context, credential string) (*VerifiedIdentity, error)
}

// IssuerVerifier verifies credentials by calling the identity provider's
// authenticate endpoint server-to-server, the same way the provider's own
// backends do. The response carries the user record and, for sessions
// created via a linked social account, the provider_values snapshot.
type IssuerVerifier struct {
	authenticateURL string
	projectID       string
	projectSecret   string
	client          *http.Client
}

// NewIssuerVerifier creates an IssuerVerifier.
//
// authenticateURL is the provider's token-authentication endpoint.
// projectID/projectSecret authenticate this server to the provider via
// HTTP Basic auth — they are server-side credentials, never exposed to
// clients.
func NewIssuerVerifier(authenticateURL, projectID, projectSecret string) *IssuerVerifier {
	return &IssuerVerifier{
		authenticateURL: authenticateURL,
		projectID:       projectID,
		projectSecret:   projectSecret,
		client:          &http.Client{Timeout: 30 * time.Second},
	}
}

// issuerResponse is the portion of the provider's authenticate response we
// care about. The provider returns a much larger object — we only unmarshal
// the fields we need.
type issuerResponse struct {
	User struct {
		UserID string `json:"user_id"`
	} `json:"user"`
	ProviderValues struct {
		Twitter *twitterValues `json:"twitter"`
	} `json:"provider_values"`
}

type twitterValues struct {
	ID              string `json:"id"`
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Verify checks the credential with the identity provider.
//
// HTTP status mapping:
//   - 200                → verified; parse identity + optional external profile
//   - 4xx                → the issuer rejected the credential → ErrUnauthenticated
//   - 5xx, network error,
//     malformed body     → the issuer is unusable right now → ErrUnavailable
func (v *IssuerVerifier) Verify(ctx context.Context, credential string) (*VerifiedIdentity, error) {
	if credential == "" {
		// An absent credential is the anonymous path, decided by the caller —
		// reaching here with an empty string is a programming error upstream.
		return nil, apperror.Unauthenticated("empty credential")
	}

	body, err := json.Marshal(map[string]string{"token": credential})
	if err != nil {
		return nil, fmt.Errorf("auth: encoding authenticate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.authenticateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("auth: building authenticate request: %w", err)
	}
	req.SetBasicAuth(v.projectID, v.projectSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperror.Unavailable("identity provider unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parsing
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apperror.Unauthenticated("credential rejected by issuer")
	default:
		return nil, apperror.Unavailable(fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	var parsed issuerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperror.Unavailable("identity provider returned a malformed response")
	}
	if parsed.User.UserID == "" {
		return nil, apperror.Unavailable("identity provider response is missing the user id")
	}

	identity := &VerifiedIdentity{UserID: parsed.User.UserID}
	if tw := parsed.ProviderValues.Twitter; tw != nil {
		identity.External = externalProfileFromTwitter(tw)
	}

	return identity, nil
}

// externalProfileFromTwitter maps the provider's Twitter payload onto the
// field-by-field optional ExternalProfile. Only fields the provider actually
// supplied become non-nil — the sync merge rule depends on that.
func externalProfileFromTwitter(tw *twitterValues) *model.ExternalProfile {
	ext := &model.ExternalProfile{}
	if tw.ID != "" {
		id := tw.ID
		ext.ExternalID = &id
	}
	if tw.ScreenName != "" {
		handle := tw.ScreenName
		ext.Handle = &handle
	}
	if tw.Name != "" {
		name := tw.Name
		ext.DisplayName = &name
	}
	if tw.ProfileImageURL != "" {
		// The provider hands out the 48x48 "_normal" variant; swap in the
		// 400x400 one so avatars don't look blurry in the widget.
		avatar := strings.Replace(tw.ProfileImageURL, "_normal", "_400x400", 1)
		ext.AvatarURL = &avatar
	}
	return ext
}
