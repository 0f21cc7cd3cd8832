package models

import "time"

// PreRegisteredVisitor is an expected visitor announced by a host
// ahead of time. The record transitions once, irreversibly, from
// pending to checked-in; after that it can no longer be edited or
// deleted.
type PreRegisteredVisitor struct {
	ID                int64      `json:"id" db:"id"`
	FullName          string     `json:"full_name" db:"full_name"`
	Purpose           string     `json:"purpose" db:"purpose"`
	ExpectedVisitDate time.Time  `json:"expected_visit_date" db:"expected_visit_date"`
	HostUserID        int64      `json:"host_user_id" db:"host_user_id"`
	RoomName          NullString `json:"room_name" db:"room_name"`
	IsCheckedIn       bool       `json:"is_checked_in" db:"is_checked_in"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	CheckedInByUserID NullInt64  `json:"checked_in_by_user_id" db:"checked_in_by_user_id"`
	CheckedInAt       NullTime   `json:"checked_in_at" db:"checked_in_at"`
	RoomVisitID       NullInt64  `json:"room_visit_id" db:"room_visit_id"`

	// HostUsername is populated by queries that join the users table
	HostUsername NullString `json:"host_username,omitempty" db:"host_username"`
}
