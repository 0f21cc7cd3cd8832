package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

func visitorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "full_name", "purpose", "contact_number", "email",
		"time_in", "time_out", "created_at", "updated_at",
	})
}

func TestVisitorRepository_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectQuery("INSERT INTO visitors").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

		visitor := &models.Visitor{
			FullName: "Jane Doe",
			Purpose:  "Interview",
			Email:    models.NewNullString("jane@example.com"),
			TimeIn:   time.Now(),
		}
		err := repo.Create(visitor)
		require.NoError(t, err)
		assert.Equal(t, int64(12), visitor.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectQuery("INSERT INTO visitors").
			WillReturnError(errors.New("connection lost"))

		err := repo.Create(&models.Visitor{FullName: "Jane Doe", Purpose: "Interview", TimeIn: time.Now()})
		assert.Error(t, err)
	})
}

func TestVisitorRepository_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM visitors").
			WithArgs(int64(12)).
			WillReturnRows(visitorRows().
				AddRow(int64(12), "Jane Doe", "Interview", nil, "jane@example.com", now, nil, now, now))

		visitor, err := repo.GetByID(12)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", visitor.FullName)
		assert.True(t, visitor.IsInside())
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM visitors").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(99)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestVisitorRepository_SetTimeOut(t *testing.T) {
	t.Run("Checked out", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectExec("UPDATE visitors").
			WithArgs(int64(12), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.SetTimeOut(12, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Already out", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectExec("UPDATE visitors").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.SetTimeOut(12, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVisitorRepository_UpdateContactTx(t *testing.T) {
	t.Run("Updated", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectExec("UPDATE visitors").
			WithArgs(int64(12), "0771234567", "jane@example.com", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateContactTx(db, 12, "0771234567", "jane@example.com")
		require.NoError(t, err)
	})

	t.Run("Unknown visitor", func(t *testing.T) {
		db, mock := setupTestDB(t)
		repo := NewVisitorRepository(db)

		mock.ExpectExec("UPDATE visitors").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateContactTx(db, 12, "", "jane@example.com")
		assert.Error(t, err)
	})
}

func TestVisitorRepository_FindLatestByEmail(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM visitors").
		WithArgs("Jane@Example.com").
		WillReturnRows(visitorRows().
			AddRow(int64(12), "Jane Doe", "Interview", nil, "jane@example.com", now, now, now, now))

	visitor, err := repo.FindLatestByEmail("Jane@Example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(12), visitor.ID)
	assert.False(t, visitor.IsInside())
}

func TestVisitorRepository_Counts(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountInside()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestVisitorRepository_CountPerDay(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVisitorRepository(db)

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM visitors").
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow(day, 4).
			AddRow(day.AddDate(0, 0, 1), 2))

	counts, err := repo.CountPerDay(day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 4, counts[0].Count)
}
