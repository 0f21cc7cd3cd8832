package database

import (
	"fmt"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The unique index on LOWER(username) is
// the authority on uniqueness; callers translate violations via
// IsUniqueViolation.
func (r *UserRepository) Create(username, passwordHash, role string) (*models.User, error) {
	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.Get(&user.ID, query, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID returns a user by primary key
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`

	if err := r.db.Get(user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByUsername returns a user by username, matched case-insensitively
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`

	if err := r.db.Get(user, query, username); err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// List returns all users, newest first
func (r *UserRepository) List() ([]models.User, error) {
	users := []models.User{}
	query := `SELECT id, username, password_hash, role, created_at FROM users ORDER BY created_at DESC`

	if err := r.db.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// UsernameExists reports whether a username is already taken,
// case-insensitively, optionally excluding one user id.
func (r *UserRepository) UsernameExists(username string, excludeID int64) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM users
		WHERE LOWER(username) = LOWER($1) AND id <> $2
	`

	if err := r.db.Get(&count, query, username, excludeID); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return count > 0, nil
}

// Update rewrites username, role and password hash for a user
func (r *UserRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, password_hash = $3, role = $4
		WHERE id = $1
	`

	result, err := r.db.Exec(query, user.ID, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d not found", user.ID)
	}

	return nil
}

// Delete removes a user row; returns false when no row matched
func (r *UserRepository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return rows > 0, nil
}

// Stats returns aggregate user counts by role
func (r *UserRepository) Stats() (*models.UserStats, error) {
	stats := &models.UserStats{}
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE role = 'Admin') AS admins,
			COUNT(*) FILTER (WHERE role = 'Staff') AS staff
		FROM users
	`

	if err := r.db.Get(stats, query); err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return stats, nil
}
