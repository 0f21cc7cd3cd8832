package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/visitorlog/visitorlog-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// credentialReader is the slice of the user repository the auth
// service needs.
type credentialReader interface {
	GetByUsername(username string) (*models.User, error)
}

// Identity is the minimal authenticated principal carried in the
// session cookie.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthService verifies login credentials
type AuthService struct {
	users credentialReader
}

// NewAuthService creates a new AuthService
func NewAuthService(users credentialReader) *AuthService {
	return &AuthService{users: users}
}

// Authenticate checks a username/password pair. Unknown usernames and
// wrong passwords both come back as ErrInvalidCredentials so the
// response cannot be used to enumerate accounts.
func (s *AuthService) Authenticate(username, password string) (*Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a comparison anyway to keep the timing of the two
			// failure paths close.
			bcrypt.CompareHashAndPassword([]byte("$2a$12$XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}
