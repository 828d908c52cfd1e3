package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/core/domain/entities/permission"
)

func TestResolveProfile_Precedence(t *testing.T) {
	a, l, f := int64(1), int64(2), int64(3)

	cases := []struct {
		name     string
		attendee *int64
		leader   *int64
		faculty  *int64
		kind     user.ProfileKind
		orgID    int64
	}{
		{"attendee wins", &a, &l, &f, user.ProfileAttendee, 1},
		{"leader over faculty", nil, &l, &f, user.ProfileLeader, 2},
		{"faculty only", nil, nil, &f, user.ProfileFaculty, 3},
		{"none", nil, nil, nil, user.ProfileNone, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := user.ResolveProfile(tc.attendee, tc.leader, tc.faculty)
			assert.Equal(t, tc.kind, p.Kind())
			id, ok := p.OrganizationID()
			assert.Equal(t, tc.kind != user.ProfileNone, ok)
			assert.Equal(t, tc.orgID, id)
		})
	}
}

func TestUser_Can(t *testing.T) {
	change := permission.New("organization", permission.ActionChange)
	del := permission.New("organization", permission.ActionDelete)
	u := user.New("a@example.com", user.WithPermissions(change.Name))

	assert.Equal(t, "organization.change_organization", change.Name)
	assert.True(t, u.Can(change))
	assert.False(t, u.Can(del))
	assert.False(t, u.Can(nil))
}
