package mapping

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullInt64(t *testing.T) {
	assert.False(t, PointerToSQLNullInt64(nil).Valid)
	v := int64(7)
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, PointerToSQLNullInt64(&v))
	assert.Equal(t, &v, SQLNullInt64ToPointer(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Nil(t, SQLNullInt64ToPointer(sql.NullInt64{}))
}

func TestUintPointer(t *testing.T) {
	u := uint(3)
	assert.Equal(t, sql.NullInt64{Int64: 3, Valid: true}, UintPointerToSQLNullInt64(&u))
	assert.Equal(t, &u, SQLNullInt64ToUintPointer(sql.NullInt64{Int64: 3, Valid: true}))
	assert.Nil(t, SQLNullInt64ToUintPointer(sql.NullInt64{Int64: -1, Valid: true}))
}

func TestNullTime(t *testing.T) {
	now := time.Now()
	assert.Equal(t, &now, SQLNullTimeToPointer(PointerToSQLNullTime(&now)))
	assert.Nil(t, SQLNullTimeToPointer(PointerToSQLNullTime(nil)))
	assert.False(t, ValueToSQLNullString("").Valid)
}
