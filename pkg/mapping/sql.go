// Package mapping converts between domain pointers and database/sql null
// types.
package mapping

import (
	"database/sql"
	"time"
)

func ValueToSQLNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func PointerToSQLNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func SQLNullInt64ToPointer(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func UintPointerToSQLNullInt64(v *uint) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func SQLNullInt64ToUintPointer(v sql.NullInt64) *uint {
	if !v.Valid || v.Int64 < 0 {
		return nil
	}
	out := uint(v.Int64)
	return &out
}

func PointerToSQLNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func SQLNullTimeToPointer(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	out := t.Time
	return &out
}
