package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/database"
)

// RateLimitService throttles failed login attempts
type RateLimitService struct {
	db database.DB
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB) *RateLimitService {
	return &RateLimitService{
		db: db,
	}
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxUsernameFailures int           // Max failed attempts per username
	UsernameWindow      time.Duration // Time window for username rate limit
	MaxIPFailures       int           // Max failed attempts per IP
	IPWindow            time.Duration // Time window for IP rate limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxUsernameFailures: 5,                // 5 failures
		UsernameWindow:      15 * time.Minute, // per 15 minutes
		MaxIPFailures:       20,               // 20 failures
		IPWindow:            1 * time.Hour,    // per hour
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "username" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginRateLimit checks if a username or IP has exceeded the
// failed-attempt limits. Only failures count toward the limit, so a
// busy front desk signing in normally is never throttled.
func (s *RateLimitService) CheckLoginRateLimit(username, ip string) error {
	config := DefaultRateLimitConfig()

	if username != "" {
		usernameCount, lastFailure, err := s.getFailureCount(username, "username", config.UsernameWindow)
		if err != nil {
			return fmt.Errorf("failed to check username rate limit: %w", err)
		}

		if usernameCount >= config.MaxUsernameFailures {
			retryAfter := lastFailure.Add(config.UsernameWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed login attempts for this account. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "username",
			}
		}
	}

	if ip != "" {
		ipCount, lastFailure, err := s.getFailureCount(ip, "ip", config.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if ipCount >= config.MaxIPFailures {
			retryAfter := lastFailure.Add(config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed login attempts from this address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getFailureCount gets the number of failures within the time window
func (s *RateLimitService) getFailureCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastFailure time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastFailure)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastFailure, nil
}

// RecordFailedLogin records a failed login attempt for rate limiting
func (s *RateLimitService) RecordFailedLogin(username, ip string) error {
	if username != "" {
		err := s.recordFailure(username, "username")
		if err != nil {
			return fmt.Errorf("failed to record username failure: %w", err)
		}
	}

	if ip != "" {
		err := s.recordFailure(ip, "ip")
		if err != nil {
			return fmt.Errorf("failed to record IP failure: %w", err)
		}
	}

	return nil
}

// recordFailure inserts a rate limit record
func (s *RateLimitService) recordFailure(identifier, identifierType string) error {
	query := `
		INSERT INTO login_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// ClearFailedLogins removes the failure history for a username after a
// successful login, so an earlier typo streak does not linger.
func (s *RateLimitService) ClearFailedLogins(username string) error {
	query := `
		DELETE FROM login_rate_limits
		WHERE identifier = $1 AND identifier_type = 'username'
	`

	_, err := s.db.Exec(query, username)
	return err
}

// CleanupExpiredRateLimits removes rate limit records older than the
// longest window
func (s *RateLimitService) CleanupExpiredRateLimits() (int64, error) {
	config := DefaultRateLimitConfig()

	maxWindow := config.IPWindow
	if config.UsernameWindow > maxWindow {
		maxWindow = config.UsernameWindow
	}

	cutoffTime := time.Now().Add(-maxWindow)

	query := `
		DELETE FROM login_rate_limits
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// IsRateLimited checks if an identifier is currently rate limited
func (s *RateLimitService) IsRateLimited(identifier, identifierType string) (bool, time.Time, error) {
	config := DefaultRateLimitConfig()

	window := config.UsernameWindow
	maxFailures := config.MaxUsernameFailures
	if identifierType == "ip" {
		window = config.IPWindow
		maxFailures = config.MaxIPFailures
	}

	count, lastFailure, err := s.getFailureCount(identifier, identifierType, window)
	if err != nil {
		return false, time.Time{}, err
	}

	if count >= maxFailures {
		retryAfter := lastFailure.Add(window)
		return true, retryAfter, nil
	}

	return false, time.Time{}, nil
}
