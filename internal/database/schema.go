package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/visitorlog/visitorlog-backend/internal/config"
	"github.com/visitorlog/visitorlog-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// schemaStatements create the domain tables plus the session,
// rate limit and audit tables. Statements are idempotent so
// EnsureSchema can run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('Admin', 'Staff')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Username uniqueness is case-insensitive; the index closes the
	// read-then-write race on concurrent signups.
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx
		ON users (LOWER(username))`,

	`CREATE TABLE IF NOT EXISTS visitors (
		id             BIGSERIAL PRIMARY KEY,
		full_name      TEXT NOT NULL,
		purpose        TEXT NOT NULL,
		contact_number TEXT,
		email          TEXT,
		time_in        TIMESTAMPTZ NOT NULL,
		time_out       TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS visitors_email_lower_idx
		ON visitors (LOWER(email)) WHERE email IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS visitors_time_in_idx
		ON visitors (time_in)`,

	`CREATE TABLE IF NOT EXISTS room_visits (
		id         BIGSERIAL PRIMARY KEY,
		visitor_id BIGINT NOT NULL REFERENCES visitors(id) ON DELETE RESTRICT,
		room_name  TEXT NOT NULL,
		entered_at TIMESTAMPTZ NOT NULL,
		purpose    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS room_visits_visitor_id_idx
		ON room_visits (visitor_id, entered_at)`,

	`CREATE TABLE IF NOT EXISTS pre_registered_visitors (
		id                    BIGSERIAL PRIMARY KEY,
		full_name             TEXT NOT NULL,
		purpose               TEXT NOT NULL DEFAULT '',
		expected_visit_date   DATE NOT NULL,
		host_user_id          BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		room_name             TEXT,
		is_checked_in         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		checked_in_by_user_id BIGINT REFERENCES users(id) ON DELETE RESTRICT,
		checked_in_at         TIMESTAMPTZ,
		room_visit_id         BIGINT REFERENCES room_visits(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pre_registered_visitors_pending_idx
		ON pre_registered_visitors (expected_visit_date) WHERE NOT is_checked_in`,

	`CREATE TABLE IF NOT EXISTS user_sessions (
		id           UUID PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ip_address   TEXT,
		device_type  TEXT,
		os           TEXT,
		browser      TEXT,
		remember_me  BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at   TIMESTAMPTZ NOT NULL,
		revoked_at   TIMESTAMPTZ,
		last_seen_at TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS user_sessions_user_id_idx
		ON user_sessions (user_id)`,

	`CREATE TABLE IF NOT EXISTS login_rate_limits (
		id              BIGSERIAL PRIMARY KEY,
		identifier      TEXT NOT NULL,
		identifier_type TEXT NOT NULL CHECK (identifier_type IN ('username', 'ip')),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS login_rate_limits_lookup_idx
		ON login_rate_limits (identifier, identifier_type, created_at)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT REFERENCES users(id) ON DELETE SET NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   BIGINT,
		ip_address  TEXT,
		user_agent  TEXT,
		details     JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_user_id_idx
		ON audit_logs (user_id, created_at)`,
}

// EnsureSchema creates all tables and indexes if they do not exist
func EnsureSchema(db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

// SeedAdminUser creates the initial admin account on first run. The
// default credential is meant for local bootstrap only; the loader
// warns when it survives into production.
func SeedAdminUser(db DB, cfg config.Config, logger *logrus.Logger) error {
	if !cfg.Seed.Enabled {
		logger.Debug("Admin seeding disabled")
		return nil
	}

	// Seed only when the instance has no admin at all. Checking by
	// username would re-seed after the bootstrap admin is renamed.
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to check for existing admin user: %w", err)
	}
	if count > 0 {
		logger.Debug("An admin user already exists, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)`,
		cfg.Seed.AdminUsername, string(hash), models.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("failed to create seed admin user: %w", err)
	}

	logger.WithField("username", cfg.Seed.AdminUsername).
		Warn("Seed admin user created with the configured default password; rotate it before exposing this instance")
	return nil
}
