package services

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

type memUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*models.User), nextID: 1}
}

func (m *memUserStore) Create(username, passwordHash, role string) (*models.User, error) {
	user := &models.User{ID: m.nextID, Username: username, PasswordHash: passwordHash, Role: role}
	m.nextID++
	m.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (m *memUserStore) GetByID(id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *memUserStore) List() ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserStore) UsernameExists(username string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.ID != excludeID && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) Update(user *models.User) error {
	stored, ok := m.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	*stored = *user
	return nil
}

func (m *memUserStore) Delete(id int64) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *memUserStore) Stats() (*models.UserStats, error) {
	stats := &models.UserStats{}
	for _, u := range m.users {
		stats.Total++
		switch u.Role {
		case models.RoleAdmin:
			stats.Admins++
		case models.RoleStaff:
			stats.Staff++
		}
	}
	return stats, nil
}

type memSessionRevoker struct {
	revoked []int64
}

func (m *memSessionRevoker) RevokeAllForUser(userID int64) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func TestUserService_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := NewUserService(newMemUserStore(), &memSessionRevoker{}, bcrypt.MinCost)

		user, err := svc.Create("reception", "letmein", models.RoleStaff)
		require.NoError(t, err)
		assert.Equal(t, "reception", user.Username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("letmein")))
	})

	t.Run("Duplicate username", func(t *testing.T) {
		store := newMemUserStore()
		svc := NewUserService(store, &memSessionRevoker{}, bcrypt.MinCost)

		_, err := svc.Create("reception", "letmein", models.RoleStaff)
		require.NoError(t, err)

		_, err = svc.Create("Reception", "different", models.RoleStaff)
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("Short password", func(t *testing.T) {
		svc := NewUserService(newMemUserStore(), &memSessionRevoker{}, bcrypt.MinCost)

		_, err := svc.Create("reception", "abc", models.RoleStaff)
		var validation *ValidationError
		require.True(t, errors.As(err, &validation))
		assert.Equal(t, "password", validation.Field)
	})

	t.Run("Unknown role", func(t *testing.T) {
		svc := NewUserService(newMemUserStore(), &memSessionRevoker{}, bcrypt.MinCost)

		_, err := svc.Create("reception", "letmein", "Superuser")
		var validation *ValidationError
		assert.True(t, errors.As(err, &validation))
	})
}

func TestUserService_Update(t *testing.T) {
	t.Run("Empty password keeps the hash", func(t *testing.T) {
		store := newMemUserStore()
		revoker := &memSessionRevoker{}
		svc := NewUserService(store, revoker, bcrypt.MinCost)

		user, err := svc.Create("reception", "letmein", models.RoleStaff)
		require.NoError(t, err)
		originalHash := user.PasswordHash

		updated, err := svc.Update(user.ID, "frontdesk", "", models.RoleStaff)
		require.NoError(t, err)
		assert.Equal(t, "frontdesk", updated.Username)
		assert.Equal(t, originalHash, updated.PasswordHash)
		assert.Empty(t, revoker.revoked)
	})

	t.Run("New password revokes sessions", func(t *testing.T) {
		store := newMemUserStore()
		revoker := &memSessionRevoker{}
		svc := NewUserService(store, revoker, bcrypt.MinCost)

		user, err := svc.Create("reception", "letmein", models.RoleStaff)
		require.NoError(t, err)

		updated, err := svc.Update(user.ID, "reception", "newsecret", models.RoleStaff)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")))
		assert.Equal(t, []int64{user.ID}, revoker.revoked)
	})

	t.Run("Username collision", func(t *testing.T) {
		store := newMemUserStore()
		svc := NewUserService(store, &memSessionRevoker{}, bcrypt.MinCost)

		_, err := svc.Create("admin", "letmein", models.RoleAdmin)
		require.NoError(t, err)
		user, err := svc.Create("reception", "letmein", models.RoleStaff)
		require.NoError(t, err)

		_, err = svc.Update(user.ID, "Admin", "", models.RoleStaff)
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("Unknown user", func(t *testing.T) {
		svc := NewUserService(newMemUserStore(), &memSessionRevoker{}, bcrypt.MinCost)

		_, err := svc.Update(99, "ghost", "", models.RoleStaff)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Run("Self-delete rejected", func(t *testing.T) {
		store := newMemUserStore()
		svc := NewUserService(store, &memSessionRevoker{}, bcrypt.MinCost)

		user, err := svc.Create("admin", "letmein", models.RoleAdmin)
		require.NoError(t, err)

		deleted, err := svc.Delete(user.ID, user.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = svc.Get(user.ID)
		assert.NoError(t, err)
	})

	t.Run("Other account deleted", func(t *testing.T) {
		store := newMemUserStore()
		svc := NewUserService(store, &memSessionRevoker{}, bcrypt.MinCost)

		admin, err := svc.Create("admin", "letmein", models.RoleAdmin)
		require.NoError(t, err)
		staff, err := svc.Create("reception", "letmein", models.RoleStaff)
		require.NoError(t, err)

		deleted, err := svc.Delete(staff.ID, admin.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}

func TestUserService_Stats(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store, &memSessionRevoker{}, bcrypt.MinCost)

	_, err := svc.Create("admin", "letmein", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Create("reception", "letmein", models.RoleStaff)
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Admins)
	assert.Equal(t, 1, stats.Staff)
}
