package models

import "time"

// Visitor represents a person who has signed in at the front desk.
// TimeOut is set exactly once on sign-out; a NULL TimeOut means the
// visitor is still inside the building.
type Visitor struct {
	ID            int64      `json:"id" db:"id"`
	FullName      string     `json:"full_name" db:"full_name"`
	Purpose       string     `json:"purpose" db:"purpose"`
	ContactNumber NullString `json:"contact_number" db:"contact_number"`
	Email         NullString `json:"email" db:"email"`
	TimeIn        time.Time  `json:"time_in" db:"time_in"`
	TimeOut       NullTime   `json:"time_out" db:"time_out"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// IsInside reports whether the visitor has not signed out yet
func (v *Visitor) IsInside() bool {
	return !v.TimeOut.Valid
}
