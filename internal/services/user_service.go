package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// userStore is the slice of the user repository the service needs
type userStore interface {
	Create(username, passwordHash, role string) (*models.User, error)
	GetByID(id int64) (*models.User, error)
	List() ([]models.User, error)
	UsernameExists(username string, excludeID int64) (bool, error)
	Update(user *models.User) error
	Delete(id int64) (bool, error)
	Stats() (*models.UserStats, error)
}

// sessionRevoker invalidates a user's sessions after credential changes
type sessionRevoker interface {
	RevokeAllForUser(userID int64) error
}

// UserService manages staff and admin accounts
type UserService struct {
	users      userStore
	sessions   sessionRevoker
	bcryptCost int
}

// NewUserService creates a new UserService
func NewUserService(users userStore, sessions sessionRevoker, bcryptCost int) *UserService {
	return &UserService{users: users, sessions: sessions, bcryptCost: bcryptCost}
}

// Create adds a new account. Username uniqueness is case-insensitive;
// the pre-check gives a friendly error and the unique index has the
// final word under concurrency.
func (s *UserService) Create(username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateAccount(username, password, role, true); err != nil {
		return nil, err
	}

	taken, err := s.users.UsernameExists(username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(username, string(hash), role)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
		}
		return nil, err
	}

	return user, nil
}

// Get returns a user by id
func (s *UserService) Get(id int64) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns all accounts, newest first
func (s *UserService) List() ([]models.User, error) {
	return s.users.List()
}

// Update edits an account. An empty newPassword keeps the current
// hash; a supplied one is rehashed and revokes the user's other
// sessions.
func (s *UserService) Update(id int64, username, newPassword, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateAccount(username, newPassword, role, false); err != nil {
		return nil, err
	}

	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	taken, err := s.users.UsernameExists(username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
	}

	user.Username = username
	user.Role = role

	passwordChanged := newPassword != ""
	if passwordChanged {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
		}
		return nil, err
	}

	if passwordChanged && s.sessions != nil {
		if err := s.sessions.RevokeAllForUser(id); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// Delete removes an account. Self-deletion is always rejected and
// reported as false rather than an error.
func (s *UserService) Delete(id, requestingUserID int64) (bool, error) {
	if id == requestingUserID {
		return false, nil
	}
	return s.users.Delete(id)
}

// Stats returns aggregate account counts
func (s *UserService) Stats() (*models.UserStats, error) {
	return s.users.Stats()
}

func validateAccount(username, password, role string, passwordRequired bool) error {
	if username == "" {
		return Validationf("username", "username is required")
	}
	if passwordRequired && password == "" {
		return Validationf("password", "password is required")
	}
	if password != "" && len(password) < 6 {
		return Validationf("password", "password must be at least 6 characters")
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return Validationf("role", "role must be %s or %s", models.RoleAdmin, models.RoleStaff)
	}
	return nil
}
