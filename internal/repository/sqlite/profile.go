package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sakif/gradient-mcp/internal/apperror"
	"github.com/sakif/gradient-mcp/internal/model"
	"github.com/sakif/gradient-mcp/internal/repository"
)

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

// Upsert inserts or updates a profile keyed on user_id.
//
// SINGLE-STATEMENT ATOMICITY:
// This is deliberately one INSERT ... ON CONFLICT DO UPDATE statement, not a
// SELECT-then-INSERT/UPDATE pair. Two concurrent syncs for the same user_id
// would race a read-then-write version (both see "no row", both insert, or a
// later read overwrites an interleaved write). A single conflict-clause
// statement lets SQLite serialize the whole insert-or-update per row.
//
// MERGE RULE:
// Each optional column only takes the incoming value when it is non-NULL —
// COALESCE(excluded.col, profiles.col) keeps the stored value when the
// provider omitted a field on this login. created_at never changes after the
// first insert; updated_at is refreshed on every call.
//
// After the upsert we SELECT the row back so the caller gets the canonical
// record (merged fields and the original created_at).
func (db *DB) Upsert(ctx context.Context, profile *model.Profile) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (user_id, external_id, handle, display_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			external_id  = COALESCE(excluded.external_id, profiles.external_id),
			handle       = COALESCE(excluded.handle, profiles.handle),
			display_name = COALESCE(excluded.display_name, profiles.display_name),
			avatar_url   = COALESCE(excluded.avatar_url, profiles.avatar_url),
			updated_at   = excluded.updated_at`,
		profile.UserID,
		profile.ExternalID,
		profile.Handle,
		profile.DisplayName,
		profile.AvatarURL,
		now,
		now,
	)
	if err != nil {
		return apperror.Storage("profile upsert", err)
	}

	// Read the committed row back into the caller's struct.
	stored, err := db.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}
	*profile = *stored

	return nil
}

// GetByUserID retrieves a profile by the provider's user ID.
// Returns apperror.ErrNotFound if no profile exists for that ID.
func (db *DB) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile

	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, external_id, handle, display_name, avatar_url, created_at, updated_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(
		&p.UserID,
		&p.ExternalID,
		&p.Handle,
		&p.DisplayName,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, apperror.Storage("profile lookup", err)
	}

	return &p, nil
}
