// Package service — business logic between the transport handlers and the
// repository/auth utilities.
//
//	MCP tool handlers / HTTP handlers → Invoker / ProfileService → ProfileRepository
//	                                  ↘ auth.Verifier (identity provider)
//
// Handlers never touch the database directly; the services never touch HTTP
// or the MCP protocol.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/gradient-mcp/internal/auth"
	"github.com/sakif/gradient-mcp/internal/model"
	"github.com/sakif/gradient-mcp/internal/repository"
)

// ProfileService syncs verified identities into the profile store.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
	}
}

// Sync upserts the profile record for a verified identity.
//
// First verification for an unseen user creates the record; every later one
// refreshes it. Only the fields the provider supplied in THIS verification
// are overwritten — the repository's merge rule keeps prior values for
// absent fields, so a login that omits the avatar doesn't erase the stored
// avatar. created_at and the user id are immutable.
//
// Storage faults surface to the caller: an unsynced profile means later
// personalization would be stale, so this is never silently swallowed.
func (s *ProfileService) Sync(ctx context.Context, identity auth.VerifiedIdentity) (*model.Profile, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("service/profile: identity has no user ID")
	}

	profile := &model.Profile{UserID: identity.UserID}
	if ext := identity.External; ext != nil {
		profile.ExternalID = ext.ExternalID
		profile.Handle = ext.Handle
		profile.DisplayName = ext.DisplayName
		profile.AvatarURL = ext.AvatarURL
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("service/profile: syncing %s: %w", identity.UserID, err)
	}

	s.logger.Info("profile synced",
		slog.String("userID", profile.UserID),
		slog.String("handle", profile.HandleOr("")),
	)

	return profile, nil
}

// GetByUserID returns the stored profile for a user.
// Used by /api/me after the session middleware resolves the user ID.
func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/profile: user ID must not be empty")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching %s: %w", userID, err)
	}

	return profile, nil
}
