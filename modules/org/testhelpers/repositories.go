// Package testhelpers provides in-memory implementations of the org
// repositories for unit tests.
package testhelpers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

// CallLog counts repository method invocations by name.
type CallLog struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *CallLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[name]++
}

func (c *CallLog) CallCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

func (c *CallLog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = nil
}

// OrganizationRepository keeps organizations in memory. Faction counts are
// seeded with SetFactions.
type OrganizationRepository struct {
	CallLog

	mu       sync.RWMutex
	nextID   int64
	rows     map[int64]*organization.Organization
	factions map[int64][2]int // total, active
}

func NewOrganizationRepository() *OrganizationRepository {
	return &OrganizationRepository{
		rows:     make(map[int64]*organization.Organization),
		factions: make(map[int64][2]int),
	}
}

// Put stores org as is, bypassing validation. It is meant for seeding
// shapes the service would refuse, such as cycles.
func (r *OrganizationRepository) Put(org *organization.Organization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if org.ID() > r.nextID {
		r.nextID = org.ID()
	}
	r.rows[org.ID()] = clone(org)
}

func (r *OrganizationRepository) SetFactions(id int64, total, active int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factions[id] = [2]int{total, active}
}

func (r *OrganizationRepository) GetByID(_ context.Context, id int64) (*organization.Organization, error) {
	r.add("GetByID")
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.rows[id]
	if !ok || org.IsDeleted() {
		return nil, organization.ErrNotFound
	}
	return clone(org), nil
}

func (r *OrganizationRepository) GetAnyByID(_ context.Context, id int64) (*organization.Organization, error) {
	r.add("GetAnyByID")
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.rows[id]
	if !ok {
		return nil, organization.ErrNotFound
	}
	return clone(org), nil
}

func (r *OrganizationRepository) GetBySlug(_ context.Context, slug string) (*organization.Organization, error) {
	r.add("GetBySlug")
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, org := range r.rows {
		if !org.IsDeleted() && org.Slug().String() == slug {
			return clone(org), nil
		}
	}
	return nil, organization.ErrNotFound
}

func (r *OrganizationRepository) GetPaginated(_ context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	r.add("GetPaginated")
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(params)
	if params != nil {
		if params.Offset > 0 {
			if params.Offset >= len(out) {
				return []*organization.Organization{}, nil
			}
			out = out[params.Offset:]
		}
		if params.Limit > 0 && params.Limit < len(out) {
			out = out[:params.Limit]
		}
	}
	return out, nil
}

func (r *OrganizationRepository) Count(_ context.Context, params *organization.FindParams) (int64, error) {
	r.add("Count")
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.filter(params))), nil
}

func (r *OrganizationRepository) filter(params *organization.FindParams) []*organization.Organization {
	if params == nil {
		params = &organization.FindParams{}
	}
	search := strings.ToLower(strings.TrimSpace(params.Search))
	out := make([]*organization.Organization, 0, len(r.rows))
	for _, org := range r.rows {
		switch {
		case org.IsDeleted():
			continue
		case params.ParentID != nil && !org.SameParent(params.ParentID):
			continue
		case params.RootsOnly && !org.IsRoot():
			continue
		case params.Active != nil && org.IsActive() != *params.Active:
			continue
		case params.HasFactions && r.factions[org.ID()][0] == 0:
			continue
		case search != "" &&
			!strings.Contains(strings.ToLower(org.Name()), search) &&
			!strings.Contains(strings.ToLower(org.Abbreviation()), search):
			continue
		}
		out = append(out, clone(org))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

func (r *OrganizationRepository) ChildIDs(_ context.Context, parentID int64) ([]int64, error) {
	r.add("ChildIDs")
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []int64
	for id, org := range r.rows {
		if p := org.ParentID(); p != nil && *p == parentID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *OrganizationRepository) FactionCount(_ context.Context, id int64) (int, error) {
	r.add("FactionCount")
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factions[id][0], nil
}

func (r *OrganizationRepository) ActiveFactionCount(_ context.Context, id int64) (int, error) {
	r.add("ActiveFactionCount")
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factions[id][1], nil
}

func (r *OrganizationRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	r.add("SlugExists")
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, org := range r.rows {
		if org.Slug().String() == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *OrganizationRepository) SiblingNameExists(_ context.Context, parentID *int64, name string, excludeID int64) (bool, error) {
	r.add("SiblingNameExists")
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, org := range r.rows {
		if id == excludeID || org.IsDeleted() {
			continue
		}
		if org.SameParent(parentID) && org.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *OrganizationRepository) Create(_ context.Context, org *organization.Organization) (*organization.Organization, error) {
	r.add("Create")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := withID(org, r.nextID)
	r.rows[stored.ID()] = stored
	return clone(stored), nil
}

func (r *OrganizationRepository) Update(_ context.Context, org *organization.Organization) (*organization.Organization, error) {
	r.add("Update")
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[org.ID()]
	if !ok || current.IsDeleted() {
		return nil, organization.ErrNotFound
	}
	r.rows[org.ID()] = clone(org)
	return clone(org), nil
}

func (r *OrganizationRepository) SoftDelete(_ context.Context, id int64, by *uint, at time.Time) error {
	r.add("SoftDelete")
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.rows[id]
	if !ok || org.IsDeleted() {
		return organization.ErrNotFound
	}
	org.ChangedBy(by)
	org.MarkDeleted(at)
	return nil
}

func clone(org *organization.Organization) *organization.Organization {
	c := *org
	return &c
}

func withID(org *organization.Organization, id int64) *organization.Organization {
	return organization.New(
		org.Name(),
		organization.WithID(id),
		organization.WithSlug(org.Slug()),
		organization.WithAbbreviation(org.Abbreviation()),
		organization.WithDescription(org.Description()),
		organization.WithImage(org.Image().Ref()),
		organization.WithParentID(org.ParentID()),
		organization.WithMaxDepth(org.MaxDepth()),
		organization.WithIsActive(org.IsActive()),
		organization.WithDeletedAt(org.DeletedAt()),
		organization.WithCreatedBy(org.CreatedBy()),
		organization.WithUpdatedBy(org.UpdatedBy()),
		organization.WithCreatedAt(org.CreatedAt()),
		organization.WithUpdatedAt(org.UpdatedAt()),
	)
}

// LabelsRepository keeps labels records in memory keyed by organization id.
type LabelsRepository struct {
	CallLog

	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*labels.Labels
}

func NewLabelsRepository() *LabelsRepository {
	return &LabelsRepository{rows: make(map[int64]*labels.Labels)}
}

func (r *LabelsRepository) GetByOrganizationID(_ context.Context, organizationID int64) (*labels.Labels, error) {
	r.add("GetByOrganizationID")
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.rows[organizationID]
	if !ok {
		return nil, labels.ErrNotFound
	}
	return copyLabels(l, l.ID()), nil
}

func (r *LabelsRepository) Create(_ context.Context, l *labels.Labels) (*labels.Labels, error) {
	r.add("Create")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := copyLabels(l, r.nextID)
	r.rows[l.OrganizationID()] = stored
	return copyLabels(stored, stored.ID()), nil
}

func (r *LabelsRepository) Update(_ context.Context, l *labels.Labels) (*labels.Labels, error) {
	r.add("Update")
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[l.OrganizationID()]
	if !ok {
		return nil, labels.ErrNotFound
	}
	stored := copyLabels(l, current.ID())
	r.rows[l.OrganizationID()] = stored
	return copyLabels(stored, stored.ID()), nil
}

// Len returns the number of stored labels records.
func (r *LabelsRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func copyLabels(l *labels.Labels, id int64) *labels.Labels {
	return labels.New(
		l.OrganizationID(),
		labels.WithID(id),
		labels.WithValues(l.Values()),
		labels.WithCreatedAt(l.CreatedAt()),
		labels.WithUpdatedAt(l.UpdatedAt()),
	)
}
