package labels_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

func TestNew_FillsEveryDefault(t *testing.T) {
	l := labels.New(7)

	require.Equal(t, int64(7), l.OrganizationID())
	values := l.Values()
	require.Len(t, values, 18)
	for _, k := range labels.Keys() {
		def, ok := labels.Default(k)
		require.True(t, ok, k)
		assert.Equal(t, def, values[k], k)
	}
	assert.Equal(t, "Sub-Faction", l.Get(labels.SubFactionLabel))
	assert.Equal(t, "Attendee Class Enrollment", l.Get(labels.AttendeeClassEnrollmentLabel))
}

func TestSet_BlankResetsToDefault(t *testing.T) {
	l := labels.New(1)

	require.True(t, l.Set(labels.AttendeeLabel, "Student"))
	assert.Equal(t, "Student", l.Get(labels.AttendeeLabel))

	require.True(t, l.Set(labels.AttendeeLabel, "   "))
	assert.Equal(t, "Attendee", l.Get(labels.AttendeeLabel))
}

func TestSet_UnknownKeyRejected(t *testing.T) {
	l := labels.New(1)

	assert.False(t, l.Set("bogus_label", "x"))
	_, present := l.Values()["bogus_label"]
	assert.False(t, present)
}

func TestUpdate_IgnoresUnknownKeys(t *testing.T) {
	l := labels.New(1)

	l.Update(map[string]string{
		labels.FacilityLabel: "Campus",
		labels.WeekLabel:     "",
		"color":              "blue",
	})

	values := l.Values()
	assert.Equal(t, "Campus", values[labels.FacilityLabel])
	assert.Equal(t, "Week", values[labels.WeekLabel])
	assert.Len(t, values, 18)
}

func TestValues_ReturnsCopy(t *testing.T) {
	l := labels.New(1)

	values := l.Values()
	values[labels.AttendeeLabel] = "mutated"

	assert.Equal(t, "Attendee", l.Get(labels.AttendeeLabel))
}

func TestWithValues(t *testing.T) {
	l := labels.New(3, labels.WithID(11), labels.WithValues(map[string]string{
		labels.LeaderLabel: "Coach",
	}))

	assert.Equal(t, int64(11), l.ID())
	assert.Equal(t, "Coach", l.Get(labels.LeaderLabel))
	assert.Equal(t, "Faction", l.Get(labels.FactionLabel))
}

func TestIsKnown(t *testing.T) {
	assert.True(t, labels.IsKnown(labels.PeriodLabel))
	assert.False(t, labels.IsKnown("period"))
}
