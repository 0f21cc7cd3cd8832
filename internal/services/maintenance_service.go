package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// auditLogRetention is how long audit rows are kept before the weekly
// cleanup removes them.
const auditLogRetention = 90 * 24 * time.Hour

// expiredSessionCleaner removes sessions past their expiry
type expiredSessionCleaner interface {
	DeleteExpired() (int64, error)
}

// MaintenanceService runs the scheduled housekeeping jobs: purging
// expired sessions, pruning login rate limit records and trimming old
// audit logs.
type MaintenanceService struct {
	cron      *cron.Cron
	sessions  expiredSessionCleaner
	rateLimit *RateLimitService
	audit     *AuditService
	logger    *logrus.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(sessions expiredSessionCleaner, rateLimit *RateLimitService, audit *AuditService, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{
		cron:      cron.New(),
		sessions:  sessions,
		rateLimit: rateLimit,
		audit:     audit,
		logger:    logger,
	}
}

// Start schedules all housekeeping jobs
func (s *MaintenanceService) Start() error {
	// Hourly: delete sessions past their expiry
	_, err := s.cron.AddFunc("@hourly", s.cleanupSessionsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule session cleanup job: %w", err)
	}

	// Hourly: prune login rate limit records outside every window
	_, err = s.cron.AddFunc("@hourly", s.cleanupRateLimitsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule rate limit cleanup job: %w", err)
	}

	// Weekly, Sunday 04:00: trim audit logs past retention
	_, err = s.cron.AddFunc("0 4 * * 0", s.cleanupAuditLogsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule audit log cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("maintenance jobs scheduled")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("maintenance jobs stopped")
}

func (s *MaintenanceService) cleanupSessionsJob() {
	removed, err := s.sessions.DeleteExpired()
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete expired sessions")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Deleted expired sessions")
	}
}

func (s *MaintenanceService) cleanupRateLimitsJob() {
	removed, err := s.rateLimit.CleanupExpiredRateLimits()
	if err != nil {
		s.logger.WithError(err).Error("Failed to prune login rate limits")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Pruned login rate limit records")
	}
}

func (s *MaintenanceService) cleanupAuditLogsJob() {
	removed, err := s.audit.CleanupOldAuditLogs(auditLogRetention)
	if err != nil {
		s.logger.WithError(err).Error("Failed to trim audit logs")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Trimmed old audit logs")
	}
}

// RunCleanupNow runs every housekeeping job immediately
func (s *MaintenanceService) RunCleanupNow() {
	s.cleanupSessionsJob()
	s.cleanupRateLimitsJob()
	s.cleanupAuditLogsJob()
}
