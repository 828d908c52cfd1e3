package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/modules/org/testhelpers"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

type recordedEvents struct {
	mu      sync.Mutex
	created []*organization.CreatedEvent
	updated []*organization.UpdatedEvent
	deleted []*organization.DeletedEvent
	labels  []*labels.UpdatedEvent
}

func (r *recordedEvents) onCreated(e *organization.CreatedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, e)
}

func (r *recordedEvents) onUpdated(e *organization.UpdatedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, e)
}

func (r *recordedEvents) onDeleted(e *organization.DeletedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, e)
}

func (r *recordedEvents) onLabels(e *labels.UpdatedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, e)
}

type orgFixture struct {
	orgs   *testhelpers.OrganizationRepository
	labels *testhelpers.LabelsRepository
	events *recordedEvents
	svc    *services.OrganizationService
	now    time.Time
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()
	f := &orgFixture{
		orgs:   testhelpers.NewOrganizationRepository(),
		labels: testhelpers.NewLabelsRepository(),
		events: &recordedEvents{},
		now:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	publisher := eventbus.NewEventPublisher(logrus.New())
	publisher.Subscribe(f.events.onCreated)
	publisher.Subscribe(f.events.onUpdated)
	publisher.Subscribe(f.events.onDeleted)
	publisher.Subscribe(f.events.onLabels)

	f.svc = services.NewOrganizationService(
		f.orgs,
		f.labels,
		publisher,
		services.WithTransactor(passthroughTx),
		services.WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *orgFixture) create(t *testing.T, name string, parentID *int64, maxDepth uint) *organization.Organization {
	t.Helper()
	org, err := f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name:     name,
		ParentID: parentID,
		MaxDepth: maxDepth,
	})
	require.NoError(t, err)
	return org
}

func requireServiceError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *services.ServiceError
	require.True(t, errors.As(err, &svcErr), "expected ServiceError, got %T: %v", err, err)
	assert.Equal(t, status, svcErr.Status)
	assert.Equal(t, code, svcErr.Code)
}

func TestCreate_CreatesLabelsAndPublishes(t *testing.T) {
	f := newOrgFixture(t)
	uid := uint(9)

	org, err := f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name:         "North Academy",
		Abbreviation: "NA",
		CreatedBy:    &uid,
	})
	require.NoError(t, err)

	assert.NotZero(t, org.ID())
	assert.Equal(t, "north-academy", org.Slug().String())
	assert.True(t, org.IsActive())
	assert.Equal(t, &uid, org.CreatedBy())
	assert.Equal(t, f.now, org.CreatedAt())

	l, err := f.labels.GetByOrganizationID(context.Background(), org.ID())
	require.NoError(t, err)
	assert.Equal(t, "Attendee", l.Get(labels.AttendeeLabel))
	assert.Equal(t, 1, f.labels.Len())

	require.Len(t, f.events.created, 1)
	assert.Equal(t, org.ID(), f.events.created[0].Result.ID())
}

func TestCreate_SlugIsMadeUnique(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Academy", nil, 0)
	a := f.create(t, "Campus", ptr(root.ID()), 1)

	other := f.create(t, "Other", nil, 0)
	b := f.create(t, "Campus", ptr(other.ID()), 1)

	assert.Equal(t, "campus", a.Slug().String())
	assert.Equal(t, "campus-2", b.Slug().String())
}

func TestCreate_ReservedSlugIsSkipped(t *testing.T) {
	f := newOrgFixture(t)
	byName := f.create(t, "Root", nil, 0)
	assert.Equal(t, "root-2", byName.Slug().String())

	explicit, err := f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name: "Academy",
		Slug: "root",
	})
	require.NoError(t, err)
	assert.Equal(t, "root-3", explicit.Slug().String())

	reserved := "root"
	renamed, err := f.svc.Update(context.Background(), explicit.ID(), services.UpdateOrganizationInput{Slug: &reserved})
	require.NoError(t, err)
	assert.Equal(t, "root-3", renamed.Slug().String(), "the organization keeps the first free suffix it already owns")
}

func TestCreate_ExplicitSlug(t *testing.T) {
	f := newOrgFixture(t)
	org, err := f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name: "Academy",
		Slug: "My Custom Slug",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-slug", org.Slug().String())
}

func TestCreate_Validation(t *testing.T) {
	f := newOrgFixture(t)
	cases := []struct {
		name string
		in   services.CreateOrganizationInput
		code string
	}{
		{"blank name", services.CreateOrganizationInput{Name: "  "}, services.CodeInvalidBody},
		{"long abbreviation", services.CreateOrganizationInput{Name: "A", Abbreviation: "ABCDEFGHIJKLMNOPQRSTUVWXYZ"}, services.CodeInvalidBody},
		{"missing parent", services.CreateOrganizationInput{Name: "A", ParentID: ptr(404), MaxDepth: 3}, services.CodeParentNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tc.in)
			requireServiceError(t, err, http.StatusUnprocessableEntity, tc.code)
		})
	}
	assert.Equal(t, 0, f.orgs.CallCount("Create"))
}

func TestCreate_DuplicateSiblingName(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Academy", nil, 0)
	f.create(t, "Campus", ptr(root.ID()), 1)

	_, err := f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name:     "Campus",
		ParentID: ptr(root.ID()),
		MaxDepth: 1,
	})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeDuplicateName)

	// The same name under another parent is fine.
	other := f.create(t, "Institute", nil, 0)
	f.create(t, "Campus", ptr(other.ID()), 1)
}

func TestCreate_DepthLimit(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Root", nil, 0)
	mid := f.create(t, "Mid", ptr(root.ID()), 1)

	// Two ancestors need maxDepth >= 2.
	_, err := f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name:     "Leaf",
		ParentID: ptr(mid.ID()),
		MaxDepth: 1,
	})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeDepthExceeded)
	assert.Equal(t, 2, f.labels.Len(), "rejected create writes nothing")

	leaf := f.create(t, "Leaf", ptr(mid.ID()), 2)
	assert.Equal(t, mid.ID(), *leaf.ParentID())

	// The default depth of zero only admits roots.
	_, err = f.svc.Create(context.Background(), services.CreateOrganizationInput{
		Name:     "Child",
		ParentID: ptr(root.ID()),
	})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeDepthExceeded)
}

func TestUpdate_ReparentValidatesDepth(t *testing.T) {
	f := newOrgFixture(t)
	a := f.create(t, "A", nil, 0)
	b := f.create(t, "B", ptr(a.ID()), 1)
	c := f.create(t, "C", nil, 1)

	_, err := f.svc.Update(context.Background(), c.ID(), services.UpdateOrganizationInput{
		SetParent: true,
		ParentID:  ptr(b.ID()),
	})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeDepthExceeded)

	stored, err := f.orgs.GetByID(context.Background(), c.ID())
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID(), "rejected update leaves the row untouched")

	depth := uint(2)
	updated, err := f.svc.Update(context.Background(), c.ID(), services.UpdateOrganizationInput{
		SetParent: true,
		ParentID:  ptr(b.ID()),
		MaxDepth:  &depth,
	})
	require.NoError(t, err)
	assert.Equal(t, b.ID(), *updated.ParentID())

	require.Len(t, f.events.updated, 1)
	assert.Equal(t, c.ID(), f.events.updated[0].PreviousRootID)
	assert.Equal(t, a.ID(), f.events.updated[0].RootID)
}

func TestUpdate_RejectsCycles(t *testing.T) {
	f := newOrgFixture(t)
	a := f.create(t, "A", nil, 5)
	b := f.create(t, "B", ptr(a.ID()), 5)
	c := f.create(t, "C", ptr(b.ID()), 5)

	_, err := f.svc.Update(context.Background(), a.ID(), services.UpdateOrganizationInput{
		SetParent: true,
		ParentID:  ptr(c.ID()),
	})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCyclicParent)

	_, err = f.svc.Update(context.Background(), a.ID(), services.UpdateOrganizationInput{
		SetParent: true,
		ParentID:  ptr(a.ID()),
	})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeCyclicParent)
}

func TestUpdate_PartialFields(t *testing.T) {
	f := newOrgFixture(t)
	org := f.create(t, "Academy", nil, 0)
	name := "Renamed Academy"
	inactive := false
	uid := uint(3)

	updated, err := f.svc.Update(context.Background(), org.ID(), services.UpdateOrganizationInput{
		Name:      &name,
		IsActive:  &inactive,
		UpdatedBy: &uid,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name())
	assert.False(t, updated.IsActive())
	assert.Equal(t, "academy", updated.Slug().String(), "slug is kept on rename")
	assert.Equal(t, &uid, updated.UpdatedBy())
}

func TestDelete_SoftDeletesAndKeepsLabels(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Academy", nil, 0)
	child := f.create(t, "Campus", ptr(root.ID()), 1)
	ctx := context.Background()

	deleted, err := f.svc.Delete(ctx, child.ID(), nil)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.Equal(t, f.now, *deleted.DeletedAt())

	_, err = f.svc.GetByID(ctx, child.ID())
	requireServiceError(t, err, http.StatusNotFound, services.CodeNotFound)

	list, err := f.svc.GetPaginated(ctx, &organization.FindParams{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, root.ID(), list[0].ID())

	row, err := f.orgs.GetAnyByID(ctx, child.ID())
	require.NoError(t, err)
	assert.True(t, row.IsDeleted())
	_, err = f.labels.GetByOrganizationID(ctx, child.ID())
	require.NoError(t, err)

	require.Len(t, f.events.deleted, 1)
	assert.Equal(t, root.ID(), f.events.deleted[0].RootID)

	_, err = f.svc.Delete(ctx, child.ID(), nil)
	requireServiceError(t, err, http.StatusNotFound, services.CodeNotFound)
}

func TestDelete_SubtreeStaysInAggregates(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Root", nil, 0)
	mid := f.create(t, "Mid", ptr(root.ID()), 1)
	leaf := f.create(t, "Leaf", ptr(mid.ID()), 2)
	f.orgs.SetFactions(leaf.ID(), 5, 5)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, mid.ID(), nil)
	require.NoError(t, err)

	gotRoot, err := f.svc.RootOf(ctx, leaf.ID())
	require.NoError(t, err)
	assert.Equal(t, root.ID(), gotRoot.ID())

	ids, err := f.svc.DescendantIDs(ctx, root.ID())
	require.NoError(t, err)
	assert.Contains(t, ids, leaf.ID())

	total, err := f.svc.TotalFactionCount(ctx, root.ID())
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	children, err := f.svc.Children(ctx, root.ID())
	require.NoError(t, err)
	assert.Empty(t, children, "list views still hide the deleted node")
}

func TestDelete_DuplicateNameAllowedAfterDelete(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Academy", nil, 0)
	child := f.create(t, "Campus", ptr(root.ID()), 1)
	_, err := f.svc.Delete(context.Background(), child.ID(), nil)
	require.NoError(t, err)

	again := f.create(t, "Campus", ptr(root.ID()), 1)
	assert.Equal(t, "campus-2", again.Slug().String())
}

func TestGetByKey(t *testing.T) {
	f := newOrgFixture(t)
	org := f.create(t, "Academy", nil, 0)
	numeric := f.create(t, "2024", nil, 0)
	ctx := context.Background()

	byID, err := f.svc.GetByKey(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, org.ID(), byID.ID())

	bySlug, err := f.svc.GetByKey(ctx, "academy")
	require.NoError(t, err)
	assert.Equal(t, org.ID(), bySlug.ID())

	numericSlug, err := f.svc.GetByKey(ctx, "2024")
	require.NoError(t, err)
	assert.Equal(t, numeric.ID(), numericSlug.ID())

	_, err = f.svc.GetByKey(ctx, "missing")
	requireServiceError(t, err, http.StatusNotFound, services.CodeNotFound)
}

func TestHierarchyQueries(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Root", nil, 0)
	a := f.create(t, "A", ptr(root.ID()), 1)
	b := f.create(t, "B", ptr(root.ID()), 1)
	leaf := f.create(t, "Leaf", ptr(a.ID()), 2)
	f.orgs.SetFactions(root.ID(), 1, 1)
	f.orgs.SetFactions(a.ID(), 2, 1)
	f.orgs.SetFactions(leaf.ID(), 4, 0)
	ctx := context.Background()

	ids, err := f.svc.DescendantIDs(ctx, root.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{root.ID(), a.ID(), b.ID(), leaf.ID()}, ids)

	total, err := f.svc.TotalFactionCount(ctx, root.ID())
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	active, err := f.svc.ActiveFactionCount(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	gotRoot, err := f.svc.RootOf(ctx, leaf.ID())
	require.NoError(t, err)
	assert.Equal(t, root.ID(), gotRoot.ID())

	chain, err := f.svc.FallbackChain(ctx, leaf.ID())
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, a.ID(), chain[0].ID())
	assert.Equal(t, root.ID(), chain[1].ID())

	children, err := f.svc.Children(ctx, root.ID())
	require.NoError(t, err)
	assert.Len(t, children, 2)

	roots, err := f.svc.Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID(), roots[0].ID())

	withCounts, err := f.svc.ListWithFactionCounts(ctx, &organization.FindParams{HasFactions: true})
	require.NoError(t, err)
	got := map[int64]int{}
	for _, row := range withCounts {
		got[row.Organization.ID()] = row.TotalFactions
	}
	assert.Equal(t, map[int64]int{root.ID(): 7, a.ID(): 6, leaf.ID(): 4}, got)
}

func TestUpdateLabels(t *testing.T) {
	f := newOrgFixture(t)
	root := f.create(t, "Academy", nil, 0)
	child := f.create(t, "Campus", ptr(root.ID()), 1)
	ctx := context.Background()

	l, err := f.svc.UpdateLabels(ctx, child.ID(), map[string]string{
		labels.FacultyLabel:  "Staff",
		labels.AttendeeLabel: "  ",
		"unknown_label":      "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "Staff", l.Get(labels.FacultyLabel))
	assert.Equal(t, "Attendee", l.Get(labels.AttendeeLabel))
	_, ok := l.Values()["unknown_label"]
	assert.False(t, ok)

	require.Len(t, f.events.labels, 1)
	assert.Equal(t, root.ID(), f.events.labels[0].RootID)

	long := make([]byte, labels.MaxLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.svc.UpdateLabels(ctx, child.ID(), map[string]string{labels.WeekLabel: string(long)})
	requireServiceError(t, err, http.StatusUnprocessableEntity, services.CodeLabelTooLong)
}

func TestEnsureLabels_CreatesMissingRecord(t *testing.T) {
	f := newOrgFixture(t)
	f.orgs.Put(organization.New("Imported", organization.WithID(50), organization.WithSlug("imported")))
	ctx := context.Background()

	l, err := f.svc.Labels(ctx, 50)
	require.NoError(t, err)
	assert.Zero(t, l.ID(), "missing labels are reported as unsaved defaults")
	assert.Equal(t, 0, f.labels.Len())

	l, err = f.svc.EnsureLabels(ctx, 50)
	require.NoError(t, err)
	assert.NotZero(t, l.ID())
	assert.Equal(t, 1, f.labels.Len())

	again, err := f.svc.EnsureLabels(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, l.ID(), again.ID())
	assert.Equal(t, 1, f.labels.Len())
}
