package models

import "time"

// RefreshToken is one rotating sign-in session. A refresh revokes the row and
// points ReplacedBy at its successor; a logout revokes it without one.
type RefreshToken struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Token      string     `db:"token" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	Revoked    bool       `db:"revoked" json:"revoked"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	ReplacedBy *string    `db:"replaced_by" json:"replaced_by,omitempty"`
	IPAddress  string     `db:"ip_address" json:"ip_address"`
	UserAgent  string     `db:"user_agent" json:"user_agent"`
}

// Usable reports whether the token can still be exchanged at the given instant.
func (t RefreshToken) Usable(at time.Time) bool {
	return !t.Revoked && !at.After(t.ExpiresAt)
}

// Rotated reports whether the token was already spent on a refresh.
// Presenting it again means the session chain leaked.
func (t RefreshToken) Rotated() bool {
	return t.Revoked && t.ReplacedBy != nil
}
