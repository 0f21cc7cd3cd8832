package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// DefaultRoomName receives pre-registered visitors whose registration
// did not name a room.
const DefaultRoomName = "Main Office"

// txBeginner opens database transactions for the compound check-in write
type txBeginner interface {
	Beginx() (*sqlx.Tx, error)
}

// preRegStore is the slice of the pre-registration repository the service needs
type preRegStore interface {
	Create(preReg *models.PreRegisteredVisitor) error
	GetByID(id int64) (*models.PreRegisteredVisitor, error)
	GetByIDTx(q database.Queryer, id int64) (*models.PreRegisteredVisitor, error)
	List() ([]models.PreRegisteredVisitor, error)
	ListPending() ([]models.PreRegisteredVisitor, error)
	ListPendingByDate(date time.Time) ([]models.PreRegisteredVisitor, error)
	ListByHost(hostUserID int64) ([]models.PreRegisteredVisitor, error)
	SearchPending(term string) ([]models.PreRegisteredVisitor, error)
	SearchPendingByName(name string) ([]models.PreRegisteredVisitor, error)
	Update(preReg *models.PreRegisteredVisitor) (bool, error)
	Delete(id int64) (bool, error)
	MarkCheckedInTx(q database.Queryer, id, checkedInByUserID, roomVisitID int64, checkedInAt time.Time) (bool, error)
}

// visitorResolver resolves or creates the visitor behind a check-in
type visitorResolver interface {
	FindLatestByNameTx(q database.Queryer, fullName string) (*models.Visitor, error)
	CreateTx(q database.Queryer, visitor *models.Visitor) error
	UpdateContactTx(q database.Queryer, id int64, contactNumber, email string) error
}

// roomVisitWriter records the room entry produced by a check-in
type roomVisitWriter interface {
	CreateTx(q database.Queryer, visit *models.RoomVisit) error
}

// PreRegistrationInput carries the host-supplied fields of a pre-registration
type PreRegistrationInput struct {
	FullName          string    `json:"full_name"`
	Purpose           string    `json:"purpose"`
	ExpectedVisitDate time.Time `json:"expected_visit_date"`
	HostUserID        int64     `json:"host_user_id"`
	RoomName          string    `json:"room_name"`
}

// PreRegistrationService manages expected visitors and the kiosk
// check-in workflow. A pre-registration moves from pending to
// checked-in once and never back.
type PreRegistrationService struct {
	db         txBeginner
	preRegs    preRegStore
	visitors   visitorResolver
	roomVisits roomVisitWriter
}

// NewPreRegistrationService creates a new PreRegistrationService
func NewPreRegistrationService(db txBeginner, preRegs preRegStore, visitors visitorResolver, roomVisits roomVisitWriter) *PreRegistrationService {
	return &PreRegistrationService{
		db:         db,
		preRegs:    preRegs,
		visitors:   visitors,
		roomVisits: roomVisits,
	}
}

// Create registers a new pending pre-registration
func (s *PreRegistrationService) Create(input PreRegistrationInput) (*models.PreRegisteredVisitor, error) {
	input.trim()
	if err := input.validate(); err != nil {
		return nil, err
	}

	preReg := &models.PreRegisteredVisitor{
		FullName:          input.FullName,
		Purpose:           input.Purpose,
		ExpectedVisitDate: input.ExpectedVisitDate,
		HostUserID:        input.HostUserID,
		RoomName:          models.NewNullString(input.RoomName),
	}

	if err := s.preRegs.Create(preReg); err != nil {
		return nil, err
	}

	return preReg, nil
}

// Get returns a pre-registration by id
func (s *PreRegistrationService) Get(id int64) (*models.PreRegisteredVisitor, error) {
	preReg, err := s.preRegs.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return preReg, nil
}

// List returns all pre-registrations, newest first
func (s *PreRegistrationService) List() ([]models.PreRegisteredVisitor, error) {
	return s.preRegs.List()
}

// ListPending returns pre-registrations still awaiting arrival
func (s *PreRegistrationService) ListPending() ([]models.PreRegisteredVisitor, error) {
	return s.preRegs.ListPending()
}

// ListPendingByDate returns pending pre-registrations expected on a date
func (s *PreRegistrationService) ListPendingByDate(date time.Time) ([]models.PreRegisteredVisitor, error) {
	return s.preRegs.ListPendingByDate(date)
}

// ListByHost returns pre-registrations created for a host user
func (s *PreRegistrationService) ListByHost(hostUserID int64) ([]models.PreRegisteredVisitor, error) {
	return s.preRegs.ListByHost(hostUserID)
}

// SearchPending matches pending pre-registrations by name or purpose substring
func (s *PreRegistrationService) SearchPending(term string) ([]models.PreRegisteredVisitor, error) {
	return s.preRegs.SearchPending(strings.TrimSpace(term))
}

// FindTodaysPendingByName resolves a kiosk walk-up to at most one
// pending pre-registration expected today whose name matches the
// search term. Returns ErrNotFound when nothing matches.
func (s *PreRegistrationService) FindTodaysPendingByName(name string) (*models.PreRegisteredVisitor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validationf("full_name", "full name is required")
	}

	matches, err := s.preRegs.SearchPendingByName(name)
	if err != nil {
		return nil, err
	}

	// Expected visit dates come back from the DATE column anchored at
	// midnight UTC, so compare calendar components rather than instants.
	ty, tm, td := time.Now().Date()
	for i := range matches {
		ey, em, ed := matches[i].ExpectedVisitDate.Date()
		if ey == ty && em == tm && ed == td {
			return &matches[i], nil
		}
	}

	return nil, ErrNotFound
}

// Update edits a pre-registration while it is still pending
func (s *PreRegistrationService) Update(id int64, input PreRegistrationInput) (*models.PreRegisteredVisitor, error) {
	input.trim()
	if err := input.validate(); err != nil {
		return nil, err
	}

	preReg, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if preReg.IsCheckedIn {
		return nil, fmt.Errorf("%w: pre-registration has already been checked in", ErrInvalidState)
	}

	preReg.FullName = input.FullName
	preReg.Purpose = input.Purpose
	preReg.ExpectedVisitDate = input.ExpectedVisitDate
	preReg.HostUserID = input.HostUserID
	preReg.RoomName = models.NewNullString(input.RoomName)

	ok, err := s.preRegs.Update(preReg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: pre-registration has already been checked in", ErrInvalidState)
	}

	return preReg, nil
}

// Delete removes a pre-registration while it is still pending
func (s *PreRegistrationService) Delete(id int64) error {
	preReg, err := s.Get(id)
	if err != nil {
		return err
	}

	if preReg.IsCheckedIn {
		return fmt.Errorf("%w: pre-registration has already been checked in", ErrInvalidState)
	}

	ok, err := s.preRegs.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: pre-registration has already been checked in", ErrInvalidState)
	}

	return nil
}

// CheckInOptions carries the optional fields the caller may supply at
// check-in time. RoomName overrides the registered room; contact
// details are captured when the kiosk collects them at arrival.
type CheckInOptions struct {
	RoomName      string
	ContactNumber string
	Email         string
}

// CheckIn converts a pending pre-registration into a signed-in visitor
// with a room entry, as one transaction: resolve or create the
// visitor, record the room visit, flip the pre-registration to
// checked-in. If any step fails, no partial state is visible.
//
// Visitor matching here is exact full-name equality (ignoring case),
// not the email dedup used for walk-ins: pre-registration does not
// collect email. A matched visitor who has already signed out is not
// reused, because room entries may only be recorded for visitors
// still inside; a fresh visitor row represents the new visit.
func (s *PreRegistrationService) CheckIn(id, performedByUserID int64, opts CheckInOptions) (*models.RoomVisit, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin check-in transaction: %w", err)
	}
	defer tx.Rollback()

	preReg, err := s.preRegs.GetByIDTx(tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if preReg.IsCheckedIn {
		return nil, fmt.Errorf("%w: visitor has already been checked in", ErrInvalidState)
	}

	now := time.Now()
	contactNumber := strings.TrimSpace(opts.ContactNumber)
	email := strings.TrimSpace(opts.Email)

	visitor, err := s.visitors.FindLatestByNameTx(tx, preReg.FullName)
	switch {
	case err == nil && visitor.IsInside():
		// Returning match still inside the building; reuse it, but
		// refresh contact details when the kiosk collected fresh ones.
		if contactNumber != "" || email != "" {
			if err := s.visitors.UpdateContactTx(tx, visitor.ID, contactNumber, email); err != nil {
				return nil, err
			}
		}
	case err == nil || errors.Is(err, sql.ErrNoRows):
		visitor = &models.Visitor{
			FullName:      preReg.FullName,
			Purpose:       preReg.Purpose,
			ContactNumber: models.NewNullString(contactNumber),
			Email:         models.NewNullString(email),
			TimeIn:        now,
		}
		if err := s.visitors.CreateTx(tx, visitor); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	roomName := strings.TrimSpace(opts.RoomName)
	if roomName == "" {
		roomName = preReg.RoomName.String
	}
	if roomName == "" {
		roomName = DefaultRoomName
	}

	visit := &models.RoomVisit{
		VisitorID:   visitor.ID,
		RoomName:    roomName,
		EnteredAt:   now,
		Purpose:     models.NewNullString(preReg.Purpose),
		VisitorName: visitor.FullName,
	}
	if err := s.roomVisits.CreateTx(tx, visit); err != nil {
		return nil, err
	}

	ok, err := s.preRegs.MarkCheckedInTx(tx, id, performedByUserID, visit.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: visitor has already been checked in", ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit check-in transaction: %w", err)
	}

	return visit, nil
}

func (in *PreRegistrationInput) trim() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.RoomName = strings.TrimSpace(in.RoomName)
}

func (in *PreRegistrationInput) validate() error {
	if in.FullName == "" {
		return Validationf("full_name", "full name is required")
	}
	if in.ExpectedVisitDate.IsZero() {
		return Validationf("expected_visit_date", "expected visit date is required")
	}
	if in.HostUserID <= 0 {
		return Validationf("host_user_id", "host user is required")
	}
	return nil
}
