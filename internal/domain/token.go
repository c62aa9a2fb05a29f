package domain

import "time"

// AccessToken is an opaque bearer token bound to a single user.
// Only the SHA-256 hash of the token is stored; the plaintext is
// returned once in the login response. A user may hold any number of
// concurrent tokens, and logout revokes exactly the presented one.
type AccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index:idx_access_tokens_user" json:"user_id"`
	Name       string     `gorm:"type:text;not null" json:"name"`
	TokenHash  string     `gorm:"type:text;not null;uniqueIndex:idx_access_tokens_hash" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the database table name for AccessToken.
func (AccessToken) TableName() string {
	return "access_tokens"
}
