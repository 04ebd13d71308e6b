package service

import (
	"context"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sakif/gradient-mcp/internal/apperror"
	"github.com/sakif/gradient-mcp/internal/auth"
	"github.com/sakif/gradient-mcp/internal/model"
	"github.com/sakif/gradient-mcp/internal/preset"
)

// Tool names served by the Invoker. Anything else is an unknown tool.
const (
	ToolCreateGradientTweet = "create-gradient-tweet"
	ToolGetMyProfile        = "get-my-profile"
)

// Anonymous default profile view, returned when a caller has no credential.
// Fixed values so anonymous responses are reproducible; never persisted.
const (
	anonymousHandle = "twitter_user"
	anonymousName   = "Twitter User"
	anonymousAvatar = "https://abs.twimg.com/sticky/default_profile_images/default_profile_400x400.png"
)

// CallerIdentity is the tagged variant consumed uniformly by the request
// handler: a caller is either anonymous or carries a verified identity.
// Modeling it this way keeps the anonymous/authenticated branching in one
// place instead of scattering nil-checks.
type CallerIdentity struct {
	identity *auth.VerifiedIdentity
}

// Anonymous returns the identity of a caller with no credential.
func Anonymous() CallerIdentity {
	return CallerIdentity{}
}

// Authenticated wraps a verified identity.
func Authenticated(identity auth.VerifiedIdentity) CallerIdentity {
	return CallerIdentity{identity: &identity}
}

// IsAnonymous reports whether the caller presented no credential.
func (c CallerIdentity) IsAnonymous() bool {
	return c.identity == nil
}

// Identity returns the verified identity; ok is false for anonymous callers.
func (c CallerIdentity) Identity() (auth.VerifiedIdentity, bool) {
	if c.identity == nil {
		return auth.VerifiedIdentity{}, false
	}
	return *c.identity, true
}

// ToolArgs are the arguments of the primary tool invocation.
// PresetIndex is a pointer so "omitted" stays distinct from "zero".
type ToolArgs struct {
	Content     string
	PresetIndex *int
}

// ProfileView is the caller-facing slice of a profile: what the widget needs
// to render an author line, nothing more.
type ProfileView struct {
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// ToolResult is the composed payload of a successful invocation.
type ToolResult struct {
	Content     string      `json:"content"`
	PresetIndex int         `json:"presetIndex"`
	PresetName  string      `json:"presetName"`
	PresetCSS   string      `json:"presetCss"`
	Profile     ProfileView `json:"profile"`
	Synced      bool        `json:"-"` // true when a Profile row was written (authenticated path)
}

// Invoker is the composed request handler: it drives credential
// verification, profile sync, argument validation, and preset lookup for
// every tool call, in that fixed order.
type Invoker struct {
	verifier auth.Verifier
	profiles *ProfileService
	logger   *slog.Logger
}

// NewInvoker creates an Invoker.
func NewInvoker(verifier auth.Verifier, profiles *ProfileService, logger *slog.Logger) *Invoker {
	return &Invoker{
		verifier: verifier,
		profiles: profiles,
		logger:   logger,
	}
}

// Handle runs one tool invocation end to end.
//
// The state machine is linear, with no retries — each failure is terminal
// for this request, and retry policy belongs to the caller:
//
//  1. Identify — no bearer → anonymous; otherwise verify with the issuer.
//     Rejection and issuer unavailability propagate as distinct errors.
//  2. Sync — authenticated callers get their profile upserted; anonymous
//     callers get the fixed default view and the store is never touched.
//  3. Resolve — tool name and argument validation. This deliberately runs
//     AFTER sync: a request with a bad presetIndex but a valid credential
//     still refreshes the profile.
//  4. Compose — preset lookup plus the profile and content.
//
// Every downstream call takes ctx, so a cancelled transport abandons the
// whole chain; the only persistent side effect (the upsert) is atomic.
func (inv *Invoker) Handle(ctx context.Context, tool string, args ToolArgs, bearer string) (*ToolResult, error) {
	requestID := xid.New().String()
	logger := inv.logger.With(slog.String("requestID", requestID), slog.String("tool", tool))

	// --- Step 1: Identify ---
	caller, err := inv.identify(ctx, bearer)
	if err != nil {
		logger.Warn("identify failed", slog.String("code", apperror.Code(err)))
		return nil, err
	}

	// --- Step 2: Sync ---
	profile, synced, err := inv.resolveProfile(ctx, caller)
	if err != nil {
		logger.Error("profile sync failed", slog.String("code", apperror.Code(err)))
		return nil, err
	}

	// --- Step 3: Resolve content ---
	switch tool {
	case ToolCreateGradientTweet:
		// validated below
	case ToolGetMyProfile:
		return inv.composeProfileResult(caller, profile, synced, logger)
	default:
		logger.Warn("unknown tool requested")
		return nil, apperror.UnknownTool(tool)
	}

	if args.Content == "" {
		return nil, apperror.InvalidArgument("content", "content is required and must be non-empty")
	}

	// --- Step 4: Compose ---
	p, err := preset.Lookup(args.PresetIndex)
	if err != nil {
		logger.Warn("preset lookup failed", slog.String("code", apperror.Code(err)))
		return nil, err
	}

	index := preset.DefaultIndex
	if args.PresetIndex != nil {
		index = *args.PresetIndex
	}

	logger.Info("tool executed",
		slog.String("preset", p.Name),
		slog.Int("presetIndex", index),
		slog.Bool("anonymous", caller.IsAnonymous()),
	)

	// --- Step 5: Return ---
	return &ToolResult{
		Content:     args.Content,
		PresetIndex: index,
		PresetName:  p.Name,
		PresetCSS:   p.CSS(),
		Profile:     viewOf(profile),
		Synced:      synced,
	}, nil
}

// identify resolves the caller identity from an optional bearer credential.
// An absent credential is legal and selects the anonymous path; a present
// credential must verify or the request fails.
func (inv *Invoker) identify(ctx context.Context, bearer string) (CallerIdentity, error) {
	if bearer == "" {
		return Anonymous(), nil
	}

	identity, err := inv.verifier.Verify(ctx, bearer)
	if err != nil {
		return CallerIdentity{}, err
	}

	return Authenticated(*identity), nil
}

// resolveProfile returns the profile for the caller: the synced record for
// authenticated callers, the fixed default view for anonymous ones.
// Anonymous sessions never create Profile rows.
func (inv *Invoker) resolveProfile(ctx context.Context, caller CallerIdentity) (*model.Profile, bool, error) {
	identity, ok := caller.Identity()
	if !ok {
		return nil, false, nil
	}

	profile, err := inv.profiles.Sync(ctx, identity)
	if err != nil {
		return nil, false, err
	}

	return profile, true, nil
}

// composeProfileResult serves the get-my-profile tool. It requires an
// authenticated caller: there is no stored profile to show an anonymous one.
func (inv *Invoker) composeProfileResult(caller CallerIdentity, profile *model.Profile, synced bool, logger *slog.Logger) (*ToolResult, error) {
	if caller.IsAnonymous() {
		return nil, apperror.Unauthenticated("authentication required: connect your account first")
	}

	logger.Info("profile returned", slog.String("handle", profile.HandleOr("")))

	return &ToolResult{
		Profile: viewOf(profile),
		Synced:  synced,
	}, nil
}

// viewOf projects a profile (or nil, for anonymous callers) onto the
// caller-facing view, substituting the anonymous defaults for absent fields.
func viewOf(p *model.Profile) ProfileView {
	return ProfileView{
		Handle:    p.HandleOr(anonymousHandle),
		Name:      p.DisplayNameOr(anonymousName),
		AvatarURL: p.AvatarURLOr(anonymousAvatar),
	}
}
