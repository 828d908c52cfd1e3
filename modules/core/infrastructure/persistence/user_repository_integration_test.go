//go:build integration

package persistence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/core"
	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/core/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/core/services"
	"github.com/iota-uz/orgtree/modules/org"
	"github.com/iota-uz/orgtree/pkg/itf"
)

// Profiles reference organizations, so both schemas are needed.
func setupTest(t *testing.T) *itf.TestEnvironment {
	t.Helper()
	return itf.NewTestContext().WithModules(core.NewModule(), org.NewModule()).Build(t)
}

func seedOrganization(t *testing.T, env *itf.TestEnvironment, id int64, slug string) {
	t.Helper()
	env.Exec(t, `INSERT INTO organizations (id, name, slug) VALUES ($1, $2, $2)`, id, slug)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	env := setupTest(t)
	r := persistence.NewUserRepository()

	created, err := r.Create(env.Ctx, user.New(
		"jane@example.com",
		user.WithName("Jane", "Doe"),
		user.WithPermissions("organization.view_organization"),
	))
	require.NoError(t, err)
	assert.Positive(t, created.ID())
	assert.Equal(t, "Jane Doe", created.FullName())
	assert.Equal(t, user.ProfileNone, created.Profile().Kind())
	assert.Equal(t, []string{"organization.view_organization"}, created.Permissions())

	byEmail, err := r.GetByEmail(env.Ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), byEmail.ID())

	_, err = r.GetByID(env.Ctx, 424242)
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = r.Create(env.Ctx, user.New("jane@example.com"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUserRepository_ProfilePrecedence(t *testing.T) {
	env := setupTest(t)
	r := persistence.NewUserRepository()
	seedOrganization(t, env, 101, "academy")
	seedOrganization(t, env, 102, "campus")

	u, err := r.Create(env.Ctx, user.New("lead@example.com", user.WithProfile(user.LeaderProfile(102))))
	require.NoError(t, err)
	orgID, ok := u.Profile().OrganizationID()
	require.True(t, ok)
	assert.Equal(t, user.ProfileLeader, u.Profile().Kind())
	assert.Equal(t, int64(102), orgID)

	env.Exec(t, `INSERT INTO faculty_profiles (user_id, organization_id) VALUES ($1, 101)`, u.ID())
	u, err = r.GetByID(env.Ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, user.ProfileLeader, u.Profile().Kind(), "leader outranks faculty")

	env.Exec(t, `INSERT INTO attendee_profiles (user_id, organization_id) VALUES ($1, 101)`, u.ID())
	u, err = r.GetByID(env.Ctx, u.ID())
	require.NoError(t, err)
	orgID, _ = u.Profile().OrganizationID()
	assert.Equal(t, user.ProfileAttendee, u.Profile().Kind())
	assert.Equal(t, int64(101), orgID)
}

func TestUserService_GrantPermissions(t *testing.T) {
	env := setupTest(t)
	svc := services.NewUserService(persistence.NewUserRepository())

	u, err := svc.Create(env.Ctx, user.New("ops@example.com", user.WithPermissions("a.view_a")))
	require.NoError(t, err)

	u, err = svc.GrantPermissions(env.Ctx, u.ID(), []string{"b.view_b", " a.view_a ", "b.view_b", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.view_a", "b.view_b"}, u.Permissions())

	_, err = svc.GrantPermissions(env.Ctx, 424242, []string{"a.view_a"})
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = svc.Create(env.Ctx, user.New("  "))
	assert.ErrorIs(t, err, services.ErrInvalidEmail)
}
