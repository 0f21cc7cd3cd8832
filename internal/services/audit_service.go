package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/utils"
)

// AuditService handles audit logging for security events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents a security event to be logged
type AuditEvent struct {
	UserID     *int64                 // Nil for pre-authentication events
	Action     string                 // Action type (e.g., "login_success", "user_created")
	EntityType string                 // Type of entity affected (e.g., "user", "pre_registration")
	EntityID   *int64                 // ID of the affected entity (can be nil)
	IPAddress  string                 // Client IP address
	UserAgent  string                 // Client user agent
	Details    map[string]interface{} // Additional details stored as JSONB
}

// LogLoginAttempt logs a login attempt, successful or not
func (s *AuditService) LogLoginAttempt(userID *int64, username, ipAddress, userAgent string, success bool) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"username":    username,
		"success":     success,
		"device_info": deviceInfo,
	}

	action := "login_failed"
	if success {
		action = "login_success"
	}

	return s.logEvent(AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogRateLimitViolation logs a rate limit violation event
func (s *AuditService) LogRateLimitViolation(username, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"username":    username,
		"limit_type":  limitType, // "username" or "ip"
		"retry_after": retryAfter,
		"device_info": deviceInfo,
	}

	return s.logEvent(AuditEvent{
		UserID:     nil,
		Action:     "rate_limit_violation",
		EntityType: "rate_limit",
		EntityID:   nil,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogLogout logs a logout event
func (s *AuditService) LogLogout(userID int64, ipAddress, userAgent string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"device_info": deviceInfo,
	}

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     "logout",
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogUserAdmin logs an account administration event. action is one of
// "user_created", "user_updated" or "user_deleted"; targetUserID is
// the account acted on.
func (s *AuditService) LogUserAdmin(adminUserID, targetUserID int64, action, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:     &adminUserID,
		Action:     action,
		EntityType: "user",
		EntityID:   &targetUserID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{},
	})
}

// LogKioskCheckIn logs a self-service kiosk check-in
func (s *AuditService) LogKioskCheckIn(preRegID int64, visitorName, ipAddress, userAgent string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"visitor_name": visitorName,
		"device_info":  deviceInfo,
	}

	return s.logEvent(AuditEvent{
		UserID:     nil,
		Action:     "kiosk_check_in",
		EntityType: "pre_registration",
		EntityID:   &preRegID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogKioskWalkIn logs a self-service kiosk check-in by a visitor who
// had no pre-registration
func (s *AuditService) LogKioskWalkIn(visitorID int64, visitorName, ipAddress, userAgent string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"visitor_name": visitorName,
		"device_info":  deviceInfo,
	}

	return s.logEvent(AuditEvent{
		UserID:     nil,
		Action:     "kiosk_walk_in",
		EntityType: "visitor",
		EntityID:   &visitorID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// logEvent is the internal method that writes to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	_, err = s.db.Exec(
		query,
		event.UserID,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		details,
	)

	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents retrieves recent audit events for a user
func (s *AuditService) GetRecentEvents(userID int64, limit int) ([]map[string]interface{}, error) {
	query := `
		SELECT action, entity_type, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	defer rows.Close()

	events := []map[string]interface{}{}
	for rows.Next() {
		var action, entityType, ipAddress, userAgent string
		var rawDetails []byte
		var createdAt time.Time

		err := rows.Scan(&action, &entityType, &ipAddress, &userAgent, &rawDetails, &createdAt)
		if err != nil {
			continue
		}

		details := map[string]interface{}{}
		if len(rawDetails) > 0 {
			json.Unmarshal(rawDetails, &details)
		}

		events = append(events, map[string]interface{}{
			"action":      action,
			"entity_type": entityType,
			"ip_address":  ipAddress,
			"user_agent":  userAgent,
			"details":     details,
			"created_at":  createdAt,
		})
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
