package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// roomVisitStore is the slice of the room visit repository the service needs
type roomVisitStore interface {
	Create(visit *models.RoomVisit) error
	GetByID(id int64) (*models.RoomVisit, error)
	List() ([]models.RoomVisit, error)
	ListByVisitor(visitorID int64) ([]models.RoomVisit, error)
	ListByRoom(roomName string) ([]models.RoomVisit, error)
	ListByDateRange(start, end time.Time) ([]models.RoomVisit, error)
	LatestByVisitor(visitorID int64) (*models.RoomVisit, error)
}

// visitorReader resolves visitors for room-entry validation
type visitorReader interface {
	GetByID(id int64) (*models.Visitor, error)
}

// RoomVisitService records and queries room entry events
type RoomVisitService struct {
	roomVisits roomVisitStore
	visitors   visitorReader
}

// NewRoomVisitService creates a new RoomVisitService
func NewRoomVisitService(roomVisits roomVisitStore, visitors visitorReader) *RoomVisitService {
	return &RoomVisitService{roomVisits: roomVisits, visitors: visitors}
}

// RecordEntry appends a room entry for a visitor who is still inside
// the building. There is no corresponding exit operation.
func (s *RoomVisitService) RecordEntry(visitorID int64, roomName, purpose string) (*models.RoomVisit, error) {
	visitor, err := s.visitors.GetByID(visitorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if visitor.TimeOut.Valid {
		return nil, fmt.Errorf("%w: %s has already checked out", ErrInvalidState, visitor.FullName)
	}

	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return nil, Validationf("room_name", "room name is required")
	}

	visit := &models.RoomVisit{
		VisitorID:   visitorID,
		RoomName:    roomName,
		EnteredAt:   time.Now(),
		Purpose:     models.NewNullString(strings.TrimSpace(purpose)),
		VisitorName: visitor.FullName,
	}

	if err := s.roomVisits.Create(visit); err != nil {
		return nil, err
	}

	return visit, nil
}

// Get returns a single room visit
func (s *RoomVisitService) Get(id int64) (*models.RoomVisit, error) {
	visit, err := s.roomVisits.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return visit, nil
}

// List returns all room visits, most recent first
func (s *RoomVisitService) List() ([]models.RoomVisit, error) {
	return s.roomVisits.List()
}

// VisitorHistory returns a visitor's room entries in chronological order
func (s *RoomVisitService) VisitorHistory(visitorID int64) ([]models.RoomVisit, error) {
	return s.roomVisits.ListByVisitor(visitorID)
}

// RoomHistory returns all entries into a named room, most recent first
func (s *RoomVisitService) RoomHistory(roomName string) ([]models.RoomVisit, error) {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return nil, Validationf("room_name", "room name is required")
	}
	return s.roomVisits.ListByRoom(roomName)
}

// HistoryBetween returns entries with entered_at in [start, end)
func (s *RoomVisitService) HistoryBetween(start, end time.Time) ([]models.RoomVisit, error) {
	if !end.After(start) {
		return nil, Validationf("end", "end must be after start")
	}
	return s.roomVisits.ListByDateRange(start, end)
}

// CurrentLocation returns the visitor's latest room entry, or
// ErrNotFound when the visitor has never entered a room.
func (s *RoomVisitService) CurrentLocation(visitorID int64) (*models.RoomVisit, error) {
	visit, err := s.roomVisits.LatestByVisitor(visitorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return visit, nil
}
