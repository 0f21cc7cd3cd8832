package database

import (
	"fmt"
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// PreRegistrationRepository handles pre-registered visitor database operations
type PreRegistrationRepository struct {
	db DB
}

// NewPreRegistrationRepository creates a new pre-registration repository
func NewPreRegistrationRepository(db DB) *PreRegistrationRepository {
	return &PreRegistrationRepository{db: db}
}

const preRegColumns = `p.id, p.full_name, p.purpose, p.expected_visit_date, p.host_user_id,
	p.room_name, p.is_checked_in, p.created_at, p.checked_in_by_user_id, p.checked_in_at,
	p.room_visit_id, u.username AS host_username`

const preRegFrom = ` FROM pre_registered_visitors p JOIN users u ON u.id = p.host_user_id `

// Create inserts a pending pre-registration
func (r *PreRegistrationRepository) Create(preReg *models.PreRegisteredVisitor) error {
	preReg.IsCheckedIn = false
	preReg.CreatedAt = time.Now()

	query := `
		INSERT INTO pre_registered_visitors (full_name, purpose, expected_visit_date, host_user_id, room_name, is_checked_in, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id
	`

	err := r.db.Get(
		&preReg.ID,
		query,
		preReg.FullName,
		preReg.Purpose,
		preReg.ExpectedVisitDate,
		preReg.HostUserID,
		preReg.RoomName,
		preReg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pre-registration: %w", err)
	}

	return nil
}

// GetByID returns a pre-registration with the host username joined in
func (r *PreRegistrationRepository) GetByID(id int64) (*models.PreRegisteredVisitor, error) {
	return r.GetByIDTx(r.db, id)
}

// GetByIDTx is GetByID against an arbitrary Queryer
func (r *PreRegistrationRepository) GetByIDTx(q Queryer, id int64) (*models.PreRegisteredVisitor, error) {
	preReg := &models.PreRegisteredVisitor{}
	query := `SELECT ` + preRegColumns + preRegFrom + `WHERE p.id = $1`

	if err := q.Get(preReg, query, id); err != nil {
		return nil, fmt.Errorf("failed to get pre-registration by id: %w", err)
	}

	return preReg, nil
}

// List returns all pre-registrations, newest first
func (r *PreRegistrationRepository) List() ([]models.PreRegisteredVisitor, error) {
	preRegs := []models.PreRegisteredVisitor{}
	query := `SELECT ` + preRegColumns + preRegFrom + `ORDER BY p.created_at DESC`

	if err := r.db.Select(&preRegs, query); err != nil {
		return nil, fmt.Errorf("failed to list pre-registrations: %w", err)
	}

	return preRegs, nil
}

// ListPending returns pre-registrations not yet checked in, ordered by
// expected visit date.
func (r *PreRegistrationRepository) ListPending() ([]models.PreRegisteredVisitor, error) {
	preRegs := []models.PreRegisteredVisitor{}
	query := `SELECT ` + preRegColumns + preRegFrom + `WHERE NOT p.is_checked_in ORDER BY p.expected_visit_date`

	if err := r.db.Select(&preRegs, query); err != nil {
		return nil, fmt.Errorf("failed to list pending pre-registrations: %w", err)
	}

	return preRegs, nil
}

// ListPendingByDate returns pending pre-registrations expected on a
// given calendar date.
func (r *PreRegistrationRepository) ListPendingByDate(date time.Time) ([]models.PreRegisteredVisitor, error) {
	preRegs := []models.PreRegisteredVisitor{}
	query := `
		SELECT ` + preRegColumns + preRegFrom + `
		WHERE NOT p.is_checked_in AND p.expected_visit_date = $1::date
		ORDER BY p.expected_visit_date
	`

	if err := r.db.Select(&preRegs, query, date); err != nil {
		return nil, fmt.Errorf("failed to list pending pre-registrations by date: %w", err)
	}

	return preRegs, nil
}

// ListByHost returns all pre-registrations created for a host user
func (r *PreRegistrationRepository) ListByHost(hostUserID int64) ([]models.PreRegisteredVisitor, error) {
	preRegs := []models.PreRegisteredVisitor{}
	query := `SELECT ` + preRegColumns + preRegFrom + `WHERE p.host_user_id = $1 ORDER BY p.created_at DESC`

	if err := r.db.Select(&preRegs, query, hostUserID); err != nil {
		return nil, fmt.Errorf("failed to list pre-registrations by host: %w", err)
	}

	return preRegs, nil
}

// SearchPending matches pending pre-registrations whose name or
// purpose contains the term, case-insensitively.
func (r *PreRegistrationRepository) SearchPending(term string) ([]models.PreRegisteredVisitor, error) {
	if term == "" {
		return r.ListPending()
	}

	preRegs := []models.PreRegisteredVisitor{}
	query := `
		SELECT ` + preRegColumns + preRegFrom + `
		WHERE NOT p.is_checked_in AND (p.full_name ILIKE $1 OR p.purpose ILIKE $1)
		ORDER BY p.expected_visit_date
	`

	if err := r.db.Select(&preRegs, query, "%"+term+"%"); err != nil {
		return nil, fmt.Errorf("failed to search pending pre-registrations: %w", err)
	}

	return preRegs, nil
}

// SearchPendingByName matches pending pre-registrations whose full
// name contains the term, case-insensitively. Unlike SearchPending it
// never matches on purpose; the kiosk walk-up lookup must not check a
// visitor in against someone else's registration because the term
// happened to appear in its purpose text.
func (r *PreRegistrationRepository) SearchPendingByName(name string) ([]models.PreRegisteredVisitor, error) {
	preRegs := []models.PreRegisteredVisitor{}
	query := `
		SELECT ` + preRegColumns + preRegFrom + `
		WHERE NOT p.is_checked_in AND p.full_name ILIKE $1
		ORDER BY p.expected_visit_date
	`

	if err := r.db.Select(&preRegs, query, "%"+name+"%"); err != nil {
		return nil, fmt.Errorf("failed to search pending pre-registrations by name: %w", err)
	}

	return preRegs, nil
}

// Update rewrites the editable fields of a pending pre-registration.
// The NOT is_checked_in guard keeps checked-in records immutable even
// if the caller's state check raced with a check-in.
func (r *PreRegistrationRepository) Update(preReg *models.PreRegisteredVisitor) (bool, error) {
	query := `
		UPDATE pre_registered_visitors
		SET full_name = $2, purpose = $3, expected_visit_date = $4, host_user_id = $5, room_name = $6
		WHERE id = $1 AND NOT is_checked_in
	`

	result, err := r.db.Exec(
		query,
		preReg.ID,
		preReg.FullName,
		preReg.Purpose,
		preReg.ExpectedVisitDate,
		preReg.HostUserID,
		preReg.RoomName,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update pre-registration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	return rows > 0, nil
}

// Delete removes a pending pre-registration; returns false when the
// record is missing or already checked in.
func (r *PreRegistrationRepository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM pre_registered_visitors WHERE id = $1 AND NOT is_checked_in`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete pre-registration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return rows > 0, nil
}

// MarkCheckedInTx flips a pending pre-registration to checked-in and
// stamps who performed it, when, and the room visit it produced. The
// NOT is_checked_in guard makes the transition monotonic; returns
// false when the record was already checked in or missing.
func (r *PreRegistrationRepository) MarkCheckedInTx(q Queryer, id, checkedInByUserID, roomVisitID int64, checkedInAt time.Time) (bool, error) {
	query := `
		UPDATE pre_registered_visitors
		SET is_checked_in = TRUE, checked_in_by_user_id = $2, checked_in_at = $3, room_visit_id = $4
		WHERE id = $1 AND NOT is_checked_in
	`

	result, err := q.Exec(query, id, checkedInByUserID, checkedInAt, roomVisitID)
	if err != nil {
		return false, fmt.Errorf("failed to mark pre-registration checked in: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read check-in result: %w", err)
	}

	return rows > 0, nil
}
