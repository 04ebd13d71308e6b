package repository

import (
	"context"

	"github.com/sakif/gradient-mcp/internal/model"
)

// ProfileRepository is the durable profile store.
//
// Upsert must be atomic at the storage layer: a single conditional
// insert-or-update keyed on user_id, not a read-then-write sequence. Two
// concurrent syncs for one user must never produce two rows or lose each
// other's updates. Nil fields on the incoming profile leave the stored
// values untouched; created_at is set once and never mutated.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *model.Profile) error
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
}
