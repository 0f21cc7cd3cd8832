package services

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

type memVisitorStore struct {
	visitors map[int64]*models.Visitor
	nextID   int64
	updated  []int64
}

func newMemVisitorStore() *memVisitorStore {
	return &memVisitorStore{visitors: make(map[int64]*models.Visitor), nextID: 1}
}

func (m *memVisitorStore) Create(v *models.Visitor) error {
	v.ID = m.nextID
	m.nextID++
	copied := *v
	m.visitors[v.ID] = &copied
	return nil
}

func (m *memVisitorStore) GetByID(id int64) (*models.Visitor, error) {
	v, ok := m.visitors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (m *memVisitorStore) List() ([]models.Visitor, error) {
	var out []models.Visitor
	for _, v := range m.visitors {
		out = append(out, *v)
	}
	return out, nil
}

func (m *memVisitorStore) Update(v *models.Visitor) error {
	stored, ok := m.visitors[v.ID]
	if !ok {
		return sql.ErrNoRows
	}
	*stored = *v
	m.updated = append(m.updated, v.ID)
	return nil
}

func (m *memVisitorStore) Delete(id int64) (bool, error) {
	if _, ok := m.visitors[id]; !ok {
		return false, nil
	}
	delete(m.visitors, id)
	return true, nil
}

func (m *memVisitorStore) SetTimeOut(id int64, timeOut time.Time) (bool, error) {
	v, ok := m.visitors[id]
	if !ok || v.TimeOut.Valid {
		return false, nil
	}
	v.TimeOut = models.NewNullTime(&timeOut)
	return true, nil
}

func (m *memVisitorStore) FindLatestByEmail(email string) (*models.Visitor, error) {
	var latest *models.Visitor
	for _, v := range m.visitors {
		if !v.Email.Valid || !strings.EqualFold(v.Email.String, email) {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (m *memVisitorStore) CountBetween(start, end time.Time) (int, error) {
	count := 0
	for _, v := range m.visitors {
		if !v.TimeIn.Before(start) && v.TimeIn.Before(end) {
			count++
		}
	}
	return count, nil
}

func (m *memVisitorStore) CountInside() (int, error) {
	count := 0
	for _, v := range m.visitors {
		if !v.TimeOut.Valid {
			count++
		}
	}
	return count, nil
}

func (m *memVisitorStore) Recent(limit int) ([]models.Visitor, error) {
	return m.List()
}

func TestVisitorService_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newMemVisitorStore()
		svc := NewVisitorService(store)

		visitor, err := svc.Create(VisitorInput{
			FullName: "  Jane Doe  ",
			Purpose:  "Interview",
			Email:    "jane@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", visitor.FullName)
		assert.False(t, visitor.TimeIn.IsZero())
		assert.True(t, visitor.IsInside())
	})

	t.Run("Missing name", func(t *testing.T) {
		svc := NewVisitorService(newMemVisitorStore())

		_, err := svc.Create(VisitorInput{Purpose: "Interview"})
		var validation *ValidationError
		require.True(t, errors.As(err, &validation))
		assert.Equal(t, "full_name", validation.Field)
	})

	t.Run("Missing purpose", func(t *testing.T) {
		svc := NewVisitorService(newMemVisitorStore())

		_, err := svc.Create(VisitorInput{FullName: "Jane Doe"})
		var validation *ValidationError
		assert.True(t, errors.As(err, &validation))
	})
}

func TestVisitorService_CheckOut(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := newMemVisitorStore()
		svc := NewVisitorService(store)

		visitor, err := svc.Create(VisitorInput{FullName: "Jane Doe", Purpose: "Interview"})
		require.NoError(t, err)

		require.NoError(t, svc.CheckOut(visitor.ID))

		stored, err := svc.Get(visitor.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsInside())
	})

	t.Run("Double checkout rejected", func(t *testing.T) {
		store := newMemVisitorStore()
		svc := NewVisitorService(store)

		visitor, err := svc.Create(VisitorInput{FullName: "Jane Doe", Purpose: "Interview"})
		require.NoError(t, err)
		require.NoError(t, svc.CheckOut(visitor.ID))

		err = svc.CheckOut(visitor.ID)
		assert.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("Unknown visitor", func(t *testing.T) {
		svc := NewVisitorService(newMemVisitorStore())

		err := svc.CheckOut(99)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestVisitorService_FindOrCreateByEmail(t *testing.T) {
	t.Run("New email creates a visitor", func(t *testing.T) {
		store := newMemVisitorStore()
		svc := NewVisitorService(store)

		visitor, err := svc.FindOrCreateByEmail(VisitorInput{
			FullName: "Jane Doe",
			Purpose:  "Interview",
			Email:    "jane@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), visitor.ID)
	})

	t.Run("Known email updates in place, case-insensitively", func(t *testing.T) {
		store := newMemVisitorStore()
		svc := NewVisitorService(store)

		first, err := svc.FindOrCreateByEmail(VisitorInput{
			FullName: "Jane Doe",
			Purpose:  "Interview",
			Email:    "jane@example.com",
		})
		require.NoError(t, err)

		second, err := svc.FindOrCreateByEmail(VisitorInput{
			FullName:      "Jane A. Doe",
			Purpose:       "Follow-up",
			ContactNumber: "555-0100",
			Email:         "Jane@Example.COM",
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Jane A. Doe", second.FullName)
		assert.Equal(t, "Follow-up", second.Purpose)
		assert.Equal(t, "555-0100", second.ContactNumber.String)
	})

	t.Run("No email always creates", func(t *testing.T) {
		store := newMemVisitorStore()
		svc := NewVisitorService(store)

		first, err := svc.FindOrCreateByEmail(VisitorInput{FullName: "Jane Doe", Purpose: "Interview"})
		require.NoError(t, err)
		second, err := svc.FindOrCreateByEmail(VisitorInput{FullName: "Jane Doe", Purpose: "Interview"})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestVisitorService_Update(t *testing.T) {
	store := newMemVisitorStore()
	svc := NewVisitorService(store)

	visitor, err := svc.Create(VisitorInput{FullName: "Jane Doe", Purpose: "Interview"})
	require.NoError(t, err)
	timeIn := visitor.TimeIn

	updated, err := svc.Update(visitor.ID, VisitorInput{FullName: "Jane A. Doe", Purpose: "Interview"})
	require.NoError(t, err)
	assert.Equal(t, "Jane A. Doe", updated.FullName)
	assert.True(t, updated.TimeIn.Equal(timeIn))
	assert.False(t, updated.TimeOut.Valid)
}

func TestVisitorService_Delete(t *testing.T) {
	t.Run("Missing visitor", func(t *testing.T) {
		svc := NewVisitorService(newMemVisitorStore())

		err := svc.Delete(99)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
