package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/infrastructure/persistence/models"
)

func TestOrganizationMapping(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	deleted := created.Add(time.Hour)
	m := &models.Organization{
		ID:           7,
		Name:         "Campus",
		Abbreviation: "CMP",
		Slug:         "campus",
		Description:  "North campus",
		Image:        "uploads/7.png",
		ParentID:     sql.NullInt64{Int64: 1, Valid: true},
		MaxDepth:     3,
		IsActive:     false,
		CreatedBy:    sql.NullInt64{Int64: 5, Valid: true},
		CreatedAt:    created,
		UpdatedAt:    created,
		DeletedAt:    sql.NullTime{Time: deleted, Valid: true},
	}

	o := ToDomainOrganization(m)
	assert.Equal(t, int64(7), o.ID())
	assert.Equal(t, organization.Slug("campus"), o.Slug())
	require.NotNil(t, o.ParentID())
	assert.Equal(t, int64(1), *o.ParentID())
	assert.Equal(t, uint(3), o.MaxDepth())
	assert.False(t, o.IsActive())
	assert.True(t, o.IsDeleted())
	require.NotNil(t, o.CreatedBy())
	assert.Equal(t, uint(5), *o.CreatedBy())
	assert.Nil(t, o.UpdatedBy())
	assert.Equal(t, "uploads/7.png", o.Image().Ref())

	assert.Equal(t, m, ToDBOrganization(o))
}

func TestOrganizationMapping_NegativeDepthClampsToZero(t *testing.T) {
	o := ToDomainOrganization(&models.Organization{Name: "Broken", MaxDepth: -1})
	assert.Equal(t, uint(0), o.MaxDepth())
	assert.True(t, o.IsRoot())
}

func TestLabelsMapping(t *testing.T) {
	values := labels.New(1).Values()
	values[labels.WeekLabel] = "Cycle"
	m := &models.Labels{ID: 3, OrganizationID: 1, Values: values}

	l := ToDomainLabels(m)
	assert.Equal(t, "Cycle", l.Get(labels.WeekLabel))
	assert.Equal(t, "Period", l.Get(labels.PeriodLabel))
	assert.Equal(t, m.Values, ToDBLabels(l).Values)
}
