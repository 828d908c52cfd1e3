package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID        uint
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
	// Membership columns come from LEFT JOINs on the profile tables.
	AttendeeOrgID sql.NullInt64
	LeaderOrgID   sql.NullInt64
	FacultyOrgID  sql.NullInt64
}
