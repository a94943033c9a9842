package types

import "time"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// AvatarURL points at the user's uploaded avatar, if any.
	AvatarURL string `json:"avatar_url,omitempty" db:"avatar_url"`

	// Role indicates the user's authorization level or role
	// within the system (e.g., "admin", "user").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// ResetTokenHash is the one-way hash of the currently active
	// password-reset token. The raw token itself is never persisted.
	ResetTokenHash *string `json:"-" db:"reset_token_hash"`

	// ResetTokenExpiresAt bounds the validity of the active reset token.
	ResetTokenExpiresAt *time.Time `json:"-" db:"reset_token_expires_at"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
