package persistence

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders(1, 3))
	assert.Equal(t, "$4", placeholders(4, 1))
	assert.Empty(t, placeholders(1, 0))
}

func TestAssignments(t *testing.T) {
	assert.Equal(t, "a = $2, b = $3", assignments(2, []string{"a", "b"}))
}

func TestLabelsQueries(t *testing.T) {
	n := len(labels.Keys())

	assert.Contains(t, labelsInsertQuery, "$"+itoa(n+3)+")")
	assert.NotContains(t, labelsInsertQuery, "$"+itoa(n+4))
	assert.Contains(t, labelsUpdateQuery, "updated_at = $"+itoa(n+2))
	assert.Contains(t, labelsUpdateQuery, labels.AttendeeLabel+" = $2")
	assert.True(t, strings.HasSuffix(labelsFindQuery, "WHERE organization_id = $1"))
	for _, k := range labels.Keys() {
		assert.Contains(t, labelsFindQuery, k)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
