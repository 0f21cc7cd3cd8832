package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// visitorStore is the slice of the visitor repository the service needs
type visitorStore interface {
	Create(visitor *models.Visitor) error
	GetByID(id int64) (*models.Visitor, error)
	List() ([]models.Visitor, error)
	Update(visitor *models.Visitor) error
	Delete(id int64) (bool, error)
	SetTimeOut(id int64, timeOut time.Time) (bool, error)
	FindLatestByEmail(email string) (*models.Visitor, error)
	CountBetween(start, end time.Time) (int, error)
	CountInside() (int, error)
	Recent(limit int) ([]models.Visitor, error)
}

// VisitorInput carries the fields staff or the kiosk collect for a visitor
type VisitorInput struct {
	FullName      string `json:"full_name"`
	Purpose       string `json:"purpose"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

// VisitorService handles visitor sign-in/sign-out business rules
type VisitorService struct {
	visitors visitorStore
}

// NewVisitorService creates a new VisitorService
func NewVisitorService(visitors visitorStore) *VisitorService {
	return &VisitorService{visitors: visitors}
}

// Create registers a new visitor with time_in = now
func (s *VisitorService) Create(input VisitorInput) (*models.Visitor, error) {
	input.trim()
	if err := input.validate(); err != nil {
		return nil, err
	}

	visitor := &models.Visitor{
		FullName:      input.FullName,
		Purpose:       input.Purpose,
		ContactNumber: models.NewNullString(input.ContactNumber),
		Email:         models.NewNullString(input.Email),
		TimeIn:        time.Now(),
	}

	if err := s.visitors.Create(visitor); err != nil {
		return nil, err
	}

	return visitor, nil
}

// Get returns a visitor by id
func (s *VisitorService) Get(id int64) (*models.Visitor, error) {
	visitor, err := s.visitors.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return visitor, nil
}

// List returns all visitors, most recent first
func (s *VisitorService) List() ([]models.Visitor, error) {
	return s.visitors.List()
}

// Update refreshes a visitor's details. Sign-in and sign-out
// timestamps are deliberately not editable here; time_out can only be
// set through CheckOut and never cleared.
func (s *VisitorService) Update(id int64, input VisitorInput) (*models.Visitor, error) {
	input.trim()
	if err := input.validate(); err != nil {
		return nil, err
	}

	visitor, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	visitor.FullName = input.FullName
	visitor.Purpose = input.Purpose
	visitor.ContactNumber = models.NewNullString(input.ContactNumber)
	visitor.Email = models.NewNullString(input.Email)

	if err := s.visitors.Update(visitor); err != nil {
		return nil, err
	}

	return visitor, nil
}

// Delete removes a visitor. A visitor who owns room visits cannot be
// deleted; the restrict constraint surfaces as ErrConflict.
func (s *VisitorService) Delete(id int64) error {
	ok, err := s.visitors.Delete(id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: visitor has room visit history", ErrConflict)
		}
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// CheckOut stamps time_out exactly once. A missing visitor or a
// repeated checkout both report failure; a second call never succeeds.
func (s *VisitorService) CheckOut(id int64) error {
	visitor, err := s.Get(id)
	if err != nil {
		return err
	}

	if visitor.TimeOut.Valid {
		return fmt.Errorf("%w: visitor already checked out", ErrInvalidState)
	}

	ok, err := s.visitors.SetTimeOut(id, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race with another checkout; same outcome for the caller.
		return fmt.Errorf("%w: visitor already checked out", ErrInvalidState)
	}

	return nil
}

// FindOrCreateByEmail dedups returning guests by email. When the
// input carries an email that matches an existing visitor
// (case-insensitive, most recent row wins), that row's name, contact
// and purpose are refreshed in place; otherwise a new visitor is
// created.
func (s *VisitorService) FindOrCreateByEmail(input VisitorInput) (*models.Visitor, error) {
	input.trim()
	if err := input.validate(); err != nil {
		return nil, err
	}

	if input.Email == "" {
		return s.Create(input)
	}

	existing, err := s.visitors.FindLatestByEmail(input.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.Create(input)
		}
		return nil, err
	}

	existing.FullName = input.FullName
	existing.ContactNumber = models.NewNullString(input.ContactNumber)
	existing.Purpose = input.Purpose

	if err := s.visitors.Update(existing); err != nil {
		return nil, err
	}

	return existing, nil
}

// TodayCount counts visitors whose time_in falls today
func (s *VisitorService) TodayCount() (int, error) {
	start := startOfDay(time.Now())
	return s.visitors.CountBetween(start, start.AddDate(0, 0, 1))
}

// MonthCount counts visitors whose time_in falls in the current month
func (s *VisitorService) MonthCount() (int, error) {
	start := startOfMonth(time.Now())
	return s.visitors.CountBetween(start, start.AddDate(0, 1, 0))
}

// InsideCount counts visitors currently inside
func (s *VisitorService) InsideCount() (int, error) {
	return s.visitors.CountInside()
}

// Recent returns the latest visitors by time_in
func (s *VisitorService) Recent(limit int) ([]models.Visitor, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.visitors.Recent(limit)
}

func (in *VisitorInput) trim() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Email = strings.TrimSpace(in.Email)
}

func (in *VisitorInput) validate() error {
	if in.FullName == "" {
		return Validationf("full_name", "full name is required")
	}
	if in.Purpose == "" {
		return Validationf("purpose", "purpose is required")
	}
	return nil
}
