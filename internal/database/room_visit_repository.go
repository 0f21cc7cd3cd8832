package database

import (
	"fmt"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// RoomVisitRepository handles room visit database operations
type RoomVisitRepository struct {
	db DB
}

// NewRoomVisitRepository creates a new room visit repository
func NewRoomVisitRepository(db DB) *RoomVisitRepository {
	return &RoomVisitRepository{db: db}
}

const roomVisitColumns = `rv.id, rv.visitor_id, rv.room_name, rv.entered_at, rv.purpose, rv.created_at, v.full_name AS visitor_name`

// Create inserts a room visit and fills in the generated fields
func (r *RoomVisitRepository) Create(visit *models.RoomVisit) error {
	return r.CreateTx(r.db, visit)
}

// CreateTx is Create against an arbitrary Queryer, so the
// pre-registration check-in can run it inside a transaction.
func (r *RoomVisitRepository) CreateTx(q Queryer, visit *models.RoomVisit) error {
	visit.CreatedAt = time.Now()

	query := `
		INSERT INTO room_visits (visitor_id, room_name, entered_at, purpose, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := q.Get(
		&visit.ID,
		query,
		visit.VisitorID,
		visit.RoomName,
		visit.EnteredAt,
		visit.Purpose,
		visit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room visit: %w", err)
	}

	return nil
}

// GetByID returns a room visit with the visitor name joined in
func (r *RoomVisitRepository) GetByID(id int64) (*models.RoomVisit, error) {
	visit := &models.RoomVisit{}
	query := `
		SELECT ` + roomVisitColumns + `
		FROM room_visits rv
		JOIN visitors v ON v.id = rv.visitor_id
		WHERE rv.id = $1
	`

	if err := r.db.Get(visit, query, id); err != nil {
		return nil, fmt.Errorf("failed to get room visit by id: %w", err)
	}

	return visit, nil
}

// List returns all room visits, most recent entry first
func (r *RoomVisitRepository) List() ([]models.RoomVisit, error) {
	visits := []models.RoomVisit{}
	query := `
		SELECT ` + roomVisitColumns + `
		FROM room_visits rv
		JOIN visitors v ON v.id = rv.visitor_id
		ORDER BY rv.entered_at DESC
	`

	if err := r.db.Select(&visits, query); err != nil {
		return nil, fmt.Errorf("failed to list room visits: %w", err)
	}

	return visits, nil
}

// ListByVisitor returns a visitor's room history in chronological order
func (r *RoomVisitRepository) ListByVisitor(visitorID int64) ([]models.RoomVisit, error) {
	visits := []models.RoomVisit{}
	query := `
		SELECT ` + roomVisitColumns + `
		FROM room_visits rv
		JOIN visitors v ON v.id = rv.visitor_id
		WHERE rv.visitor_id = $1
		ORDER BY rv.entered_at
	`

	if err := r.db.Select(&visits, query, visitorID); err != nil {
		return nil, fmt.Errorf("failed to list room visits by visitor: %w", err)
	}

	return visits, nil
}

// ListByRoom returns all entries into a named room, most recent first
func (r *RoomVisitRepository) ListByRoom(roomName string) ([]models.RoomVisit, error) {
	visits := []models.RoomVisit{}
	query := `
		SELECT ` + roomVisitColumns + `
		FROM room_visits rv
		JOIN visitors v ON v.id = rv.visitor_id
		WHERE rv.room_name = $1
		ORDER BY rv.entered_at DESC
	`

	if err := r.db.Select(&visits, query, roomName); err != nil {
		return nil, fmt.Errorf("failed to list room visits by room: %w", err)
	}

	return visits, nil
}

// ListByDateRange returns entries with entered_at in [start, end)
func (r *RoomVisitRepository) ListByDateRange(start, end time.Time) ([]models.RoomVisit, error) {
	visits := []models.RoomVisit{}
	query := `
		SELECT ` + roomVisitColumns + `
		FROM room_visits rv
		JOIN visitors v ON v.id = rv.visitor_id
		WHERE rv.entered_at >= $1 AND rv.entered_at < $2
		ORDER BY rv.entered_at
	`

	if err := r.db.Select(&visits, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to list room visits by date range: %w", err)
	}

	return visits, nil
}

// LatestByVisitor returns the most recent room entry for a visitor,
// used as their current location, or sql.ErrNoRows.
func (r *RoomVisitRepository) LatestByVisitor(visitorID int64) (*models.RoomVisit, error) {
	visit := &models.RoomVisit{}
	query := `
		SELECT ` + roomVisitColumns + `
		FROM room_visits rv
		JOIN visitors v ON v.id = rv.visitor_id
		WHERE rv.visitor_id = $1
		ORDER BY rv.entered_at DESC
		LIMIT 1
	`

	if err := r.db.Get(visit, query, visitorID); err != nil {
		return nil, fmt.Errorf("failed to get latest room visit: %w", err)
	}

	return visit, nil
}

// CountBetween counts room entries with entered_at in [start, end)
func (r *RoomVisitRepository) CountBetween(start, end time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM room_visits WHERE entered_at >= $1 AND entered_at < $2`

	if err := r.db.Get(&count, query, start, end); err != nil {
		return 0, fmt.Errorf("failed to count room visits in range: %w", err)
	}

	return count, nil
}

// TopRooms returns the busiest rooms over [start, end), busiest first
func (r *RoomVisitRepository) TopRooms(limit int, start, end time.Time) ([]models.RoomCount, error) {
	rooms := []models.RoomCount{}
	query := `
		SELECT room_name, COUNT(*) AS count
		FROM room_visits
		WHERE entered_at >= $1 AND entered_at < $2
		GROUP BY room_name
		ORDER BY count DESC, room_name
		LIMIT $3
	`

	if err := r.db.Select(&rooms, query, start, end, limit); err != nil {
		return nil, fmt.Errorf("failed to list top rooms: %w", err)
	}

	return rooms, nil
}
