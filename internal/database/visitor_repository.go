package database

import (
	"fmt"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// VisitorRepository handles visitor database operations
type VisitorRepository struct {
	db DB
}

// NewVisitorRepository creates a new visitor repository
func NewVisitorRepository(db DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

const visitorColumns = `id, full_name, purpose, contact_number, email, time_in, time_out, created_at, updated_at`

// Create inserts a visitor row and fills in the generated fields
func (r *VisitorRepository) Create(visitor *models.Visitor) error {
	return r.CreateTx(r.db, visitor)
}

// CreateTx is Create against an arbitrary Queryer, so the kiosk
// check-in can run it inside a transaction.
func (r *VisitorRepository) CreateTx(q Queryer, visitor *models.Visitor) error {
	now := time.Now()
	visitor.CreatedAt = now
	visitor.UpdatedAt = now

	query := `
		INSERT INTO visitors (full_name, purpose, contact_number, email, time_in, time_out, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := q.Get(
		&visitor.ID,
		query,
		visitor.FullName,
		visitor.Purpose,
		visitor.ContactNumber,
		visitor.Email,
		visitor.TimeIn,
		visitor.TimeOut,
		visitor.CreatedAt,
		visitor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visitor: %w", err)
	}

	return nil
}

// GetByID returns a visitor by primary key
func (r *VisitorRepository) GetByID(id int64) (*models.Visitor, error) {
	return r.GetByIDTx(r.db, id)
}

// GetByIDTx is GetByID against an arbitrary Queryer
func (r *VisitorRepository) GetByIDTx(q Queryer, id int64) (*models.Visitor, error) {
	visitor := &models.Visitor{}
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`

	if err := q.Get(visitor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get visitor by id: %w", err)
	}

	return visitor, nil
}

// List returns all visitors, most recent sign-in first
func (r *VisitorRepository) List() ([]models.Visitor, error) {
	visitors := []models.Visitor{}
	query := `SELECT ` + visitorColumns + ` FROM visitors ORDER BY time_in DESC`

	if err := r.db.Select(&visitors, query); err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}

	return visitors, nil
}

// Update rewrites the mutable visitor fields
func (r *VisitorRepository) Update(visitor *models.Visitor) error {
	return r.UpdateTx(r.db, visitor)
}

// UpdateTx is Update against an arbitrary Queryer
func (r *VisitorRepository) UpdateTx(q Queryer, visitor *models.Visitor) error {
	visitor.UpdatedAt = time.Now()

	query := `
		UPDATE visitors
		SET full_name = $2, purpose = $3, contact_number = $4, email = $5,
		    time_in = $6, time_out = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := q.Exec(
		query,
		visitor.ID,
		visitor.FullName,
		visitor.Purpose,
		visitor.ContactNumber,
		visitor.Email,
		visitor.TimeIn,
		visitor.TimeOut,
		visitor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update visitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visitor %d not found", visitor.ID)
	}

	return nil
}

// UpdateContactTx refreshes a visitor's contact details, keeping the
// stored value for any field passed as empty.
func (r *VisitorRepository) UpdateContactTx(q Queryer, id int64, contactNumber, email string) error {
	query := `
		UPDATE visitors
		SET contact_number = COALESCE(NULLIF($2, ''), contact_number),
		    email = COALESCE(NULLIF($3, ''), email),
		    updated_at = $4
		WHERE id = $1
	`

	result, err := q.Exec(query, id, contactNumber, email, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update visitor contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read contact update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visitor %d not found", id)
	}

	return nil
}

// Delete removes a visitor row; returns false when no row matched.
// Room visits reference visitors with ON DELETE RESTRICT, so a
// visitor with history fails with a foreign-key violation.
func (r *VisitorRepository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM visitors WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete visitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return rows > 0, nil
}

// SetTimeOut stamps time_out for a visitor who is still inside. The
// time_out IS NULL guard makes the sign-out write-once even under
// concurrent requests; returns false when no open visit matched.
func (r *VisitorRepository) SetTimeOut(id int64, timeOut time.Time) (bool, error) {
	query := `
		UPDATE visitors
		SET time_out = $2, updated_at = $3
		WHERE id = $1 AND time_out IS NULL
	`

	result, err := r.db.Exec(query, id, timeOut, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to set visitor time out: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read time out result: %w", err)
	}

	return rows > 0, nil
}

// FindLatestByEmail returns the most recently created visitor whose
// email matches case-insensitively, or sql.ErrNoRows.
func (r *VisitorRepository) FindLatestByEmail(email string) (*models.Visitor, error) {
	visitor := &models.Visitor{}
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		WHERE email IS NOT NULL AND LOWER(email) = LOWER($1)
		ORDER BY created_at DESC
		LIMIT 1
	`

	if err := r.db.Get(visitor, query, email); err != nil {
		return nil, fmt.Errorf("failed to find visitor by email: %w", err)
	}

	return visitor, nil
}

// FindLatestByNameTx returns the most recent visitor whose full name
// matches exactly (ignoring case), or sql.ErrNoRows. Used by the
// pre-registration check-in, which does not collect email.
func (r *VisitorRepository) FindLatestByNameTx(q Queryer, fullName string) (*models.Visitor, error) {
	visitor := &models.Visitor{}
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		WHERE LOWER(full_name) = LOWER($1)
		ORDER BY time_in DESC
		LIMIT 1
	`

	if err := q.Get(visitor, query, fullName); err != nil {
		return nil, fmt.Errorf("failed to find visitor by name: %w", err)
	}

	return visitor, nil
}

// CountBetween counts visitors whose time_in falls in [start, end)
func (r *VisitorRepository) CountBetween(start, end time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM visitors WHERE time_in >= $1 AND time_in < $2`

	if err := r.db.Get(&count, query, start, end); err != nil {
		return 0, fmt.Errorf("failed to count visitors in range: %w", err)
	}

	return count, nil
}

// CountInside counts visitors whose time_out is still unset
func (r *VisitorRepository) CountInside() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM visitors WHERE time_out IS NULL`

	if err := r.db.Get(&count, query); err != nil {
		return 0, fmt.Errorf("failed to count visitors inside: %w", err)
	}

	return count, nil
}

// CountSignedOut counts visitors who have already signed out
func (r *VisitorRepository) CountSignedOut() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM visitors WHERE time_out IS NOT NULL`

	if err := r.db.Get(&count, query); err != nil {
		return 0, fmt.Errorf("failed to count signed-out visitors: %w", err)
	}

	return count, nil
}

// Recent returns the latest visitors ordered by time_in descending
func (r *VisitorRepository) Recent(limit int) ([]models.Visitor, error) {
	visitors := []models.Visitor{}
	query := `SELECT ` + visitorColumns + ` FROM visitors ORDER BY time_in DESC LIMIT $1`

	if err := r.db.Select(&visitors, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent visitors: %w", err)
	}

	return visitors, nil
}

// CountPerDay buckets visitor sign-ins per calendar day over
// [start, end). Days without visitors are absent from the result;
// the dashboard service zero-fills the series.
func (r *VisitorRepository) CountPerDay(start, end time.Time) ([]models.DayCount, error) {
	counts := []models.DayCount{}
	query := `
		SELECT date_trunc('day', time_in) AS day, COUNT(*) AS count
		FROM visitors
		WHERE time_in >= $1 AND time_in < $2
		GROUP BY day
		ORDER BY day
	`

	if err := r.db.Select(&counts, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to count visitors per day: %w", err)
	}

	return counts, nil
}
