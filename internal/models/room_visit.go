package models

import "time"

// RoomVisit is an append-only record of a visitor entering a named
// room. There is no exit event; occupancy history only grows.
type RoomVisit struct {
	ID        int64      `json:"id" db:"id"`
	VisitorID int64      `json:"visitor_id" db:"visitor_id"`
	RoomName  string     `json:"room_name" db:"room_name"`
	EnteredAt time.Time  `json:"entered_at" db:"entered_at"`
	Purpose   NullString `json:"purpose" db:"purpose"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	// VisitorName is populated by queries that join the visitors table
	VisitorName string `json:"visitor_name,omitempty" db:"visitor_name"`
}

// RoomCount pairs a room name with a visit count for dashboard charts
type RoomCount struct {
	RoomName string `json:"room_name" db:"room_name"`
	Count    int    `json:"count" db:"count"`
}

// DayCount pairs a calendar day with a visitor count
type DayCount struct {
	Day   time.Time `json:"day" db:"day"`
	Count int       `json:"count" db:"count"`
}
