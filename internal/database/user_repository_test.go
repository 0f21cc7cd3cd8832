package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

func setupTestDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func userColumns() []string {
	return []string{"id", "username", "password_hash", "role", "created_at"}
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery("INSERT INTO users").
			WithArgs("reception", "hash", models.RoleStaff, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

		user, err := repo.Create("reception", "hash", models.RoleStaff)
		require.NoError(t, err)
		assert.Equal(t, int64(4), user.ID)
		assert.Equal(t, "reception", user.Username)
		assert.Equal(t, models.RoleStaff, user.Role)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(errors.New("connection lost"))

		_, err := repo.Create("reception", "hash", models.RoleStaff)
		assert.Error(t, err)
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("Reception").
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(int64(4), "reception", "hash", models.RoleStaff, time.Now()))

		user, err := repo.GetByUsername("Reception")
		require.NoError(t, err)
		assert.Equal(t, "reception", user.Username)
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsername("ghost")
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestUserRepository_UsernameExists(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("reception", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.UsernameExists("reception", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec("UPDATE users").
			WithArgs(int64(4), "newname", "newhash", models.RoleAdmin).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(&models.User{ID: 4, Username: "newname", PasswordHash: "newhash", Role: models.RoleAdmin})
		assert.NoError(t, err)
	})

	t.Run("No rows matched", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec("UPDATE users").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(&models.User{ID: 99, Username: "ghost"})
		assert.Error(t, err)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec("DELETE FROM users").
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Delete(4)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Missing row", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewUserRepository(db)

		mock.ExpectExec("DELETE FROM users").
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Delete(99)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepository_Stats(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"total", "admins", "staff"}).AddRow(5, 2, 3))

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Admins)
	assert.Equal(t, 3, stats.Staff)
}
