package models

import (
	"database/sql"
	"time"
)

type Organization struct {
	ID           int64
	Name         string
	Abbreviation string
	Slug         string
	Description  string
	Image        string
	ParentID     sql.NullInt64
	MaxDepth     int
	IsActive     bool
	CreatedBy    sql.NullInt64
	UpdatedBy    sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    sql.NullTime
}

// Labels holds one value per slot column, keyed by column name.
type Labels struct {
	ID             int64
	OrganizationID int64
	Values         map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
