// Package model defines the data structures used throughout the application.
package model

import "time"

// Profile is one record per authenticated end user.
//
// The primary key is the identity provider's opaque user ID — unlike an
// internal surrogate key, this guarantees a sync is always an upsert on a
// stable identifier and can never create duplicates for the same account.
//
// WHY POINTER FIELDS?
// The provider may or may not supply each of the linked-account fields on a
// given login. A *string distinguishes "not supplied this time" (nil, keep
// the stored value) from "supplied as empty" — a plain string can't. The
// sync merge rule is field-by-field overwrite-if-present, never a blind
// full-object replace.
type Profile struct {
	UserID      string    `json:"userId"      db:"user_id"`     // provider's canonical user ID; immutable
	ExternalID  *string   `json:"externalId"  db:"external_id"` // linked account's numeric id, set on first link
	Handle      *string   `json:"handle"      db:"handle"`
	DisplayName *string   `json:"displayName" db:"display_name"`
	AvatarURL   *string   `json:"avatarUrl"   db:"avatar_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"` // set once at first insert
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"` // refreshed on every sync
}

// ExternalProfile is the linked third-party account snapshot carried inside
// a verified identity. Each field is optional for the same reason as on
// Profile: absent fields must leave the stored value intact.
type ExternalProfile struct {
	ExternalID  *string
	Handle      *string
	DisplayName *string
	AvatarURL   *string
}

// HandleOr returns the profile's handle, or fallback when unset.
func (p *Profile) HandleOr(fallback string) string {
	if p != nil && p.Handle != nil {
		return *p.Handle
	}
	return fallback
}

// DisplayNameOr returns the profile's display name, or fallback when unset.
func (p *Profile) DisplayNameOr(fallback string) string {
	if p != nil && p.DisplayName != nil {
		return *p.DisplayName
	}
	return fallback
}

// AvatarURLOr returns the profile's avatar URL, or fallback when unset.
func (p *Profile) AvatarURLOr(fallback string) string {
	if p != nil && p.AvatarURL != nil {
		return *p.AvatarURL
	}
	return fallback
}
