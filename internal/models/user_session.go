package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession is a server-side record backing a session cookie. A
// session stays valid until it expires or is revoked on logout;
// RevokedAt is checked on every authenticated request.
type UserSession struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	IPAddress  NullString `json:"ip_address" db:"ip_address"`
	DeviceType NullString `json:"device_type" db:"device_type"`
	OS         NullString `json:"os" db:"os"`
	Browser    NullString `json:"browser" db:"browser"`
	RememberMe bool       `json:"remember_me" db:"remember_me"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt  NullTime   `json:"revoked_at" db:"revoked_at"`
	LastSeenAt time.Time  `json:"last_seen_at" db:"last_seen_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IsActive reports whether the session can still authenticate requests
func (s *UserSession) IsActive(now time.Time) bool {
	return !s.RevokedAt.Valid && now.Before(s.ExpiresAt)
}
