package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// SessionRepository handles user session database operations
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session row for a freshly logged-in user
func (r *SessionRepository) Create(session *models.UserSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.LastSeenAt = now

	query := `
		INSERT INTO user_sessions (id, user_id, ip_address, device_type, os, browser, remember_me, expires_at, last_seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		session.ID,
		session.UserID,
		session.IPAddress,
		session.DeviceType,
		session.OS,
		session.Browser,
		session.RememberMe,
		session.ExpiresAt,
		session.LastSeenAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID returns a session by its uuid
func (r *SessionRepository) GetByID(id uuid.UUID) (*models.UserSession, error) {
	session := &models.UserSession{}
	query := `
		SELECT id, user_id, ip_address, device_type, os, browser, remember_me, expires_at, revoked_at, last_seen_at, created_at
		FROM user_sessions
		WHERE id = $1
	`

	if err := r.db.Get(session, query, id); err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return session, nil
}

// Touch records activity on a session and extends its expiry, giving
// the cookie its sliding lifetime.
func (r *SessionRepository) Touch(id uuid.UUID, lastSeen, expiresAt time.Time) error {
	query := `UPDATE user_sessions SET last_seen_at = $2, expires_at = $3 WHERE id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(query, id, lastSeen, expiresAt); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

// Revoke invalidates a session so the cookie can no longer be used
func (r *SessionRepository) Revoke(id uuid.UUID) error {
	query := `UPDATE user_sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(query, id, time.Now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllForUser invalidates every active session a user holds,
// used when an admin resets a password.
func (r *SessionRepository) RevokeAllForUser(userID int64) error {
	query := `UPDATE user_sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(query, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to revoke sessions for user: %w", err)
	}

	return nil
}

// DeleteExpired removes sessions past their expiry, returning the
// number of rows removed. Intended for periodic housekeeping.
func (r *SessionRepository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM user_sessions WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	return rows, nil
}
