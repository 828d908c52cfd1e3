package organization

import (
	"strings"
	"time"
)

// DefaultMaxDepth is used when an organization is created without one.
const DefaultMaxDepth uint = 0

type Option func(o *Organization)

func WithID(id int64) Option {
	return func(o *Organization) {
		o.id = id
	}
}

func WithSlug(slug Slug) Option {
	return func(o *Organization) {
		o.slug = slug
	}
}

func WithAbbreviation(abbreviation string) Option {
	return func(o *Organization) {
		o.abbreviation = abbreviation
	}
}

func WithDescription(description string) Option {
	return func(o *Organization) {
		o.description = description
	}
}

func WithImage(ref string) Option {
	return func(o *Organization) {
		o.image = Image{ref: ref}
	}
}

func WithParentID(parentID *int64) Option {
	return func(o *Organization) {
		o.hierarchy = NewHierarchy(parentID, o.hierarchy.maxDepth)
	}
}

func WithMaxDepth(maxDepth uint) Option {
	return func(o *Organization) {
		o.hierarchy.maxDepth = maxDepth
	}
}

func WithIsActive(active bool) Option {
	return func(o *Organization) {
		o.activity = Activity{active: active}
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(o *Organization) {
		o.timestamps.createdAt = t
	}
}

func WithUpdatedAt(t time.Time) Option {
	return func(o *Organization) {
		o.timestamps.updatedAt = t
	}
}

func WithDeletedAt(t *time.Time) Option {
	return func(o *Organization) {
		if t == nil {
			o.softDelete = SoftDelete{}
			return
		}
		v := *t
		o.softDelete = SoftDelete{deletedAt: &v}
	}
}

func WithCreatedBy(userID *uint) Option {
	return func(o *Organization) {
		o.audit.createdBy = userID
	}
}

func WithUpdatedBy(userID *uint) Option {
	return func(o *Organization) {
		o.audit.updatedBy = userID
	}
}

// Organization is a node in the organizational tree.
type Organization struct {
	id           int64
	name         string
	abbreviation string
	description  string
	slug         Slug
	image        Image
	hierarchy    Hierarchy
	activity     Activity
	softDelete   SoftDelete
	audit        Audit
	timestamps   Timestamps
}

func New(name string, opts ...Option) *Organization {
	now := time.Now()
	o := &Organization{
		name:       strings.TrimSpace(name),
		hierarchy:  Hierarchy{maxDepth: DefaultMaxDepth},
		activity:   Activity{active: true},
		timestamps: Timestamps{createdAt: now, updatedAt: now},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Organization) ID() int64 { return o.id }
func (o *Organization) Name() string { return o.name }
func (o *Organization) Abbreviation() string { return o.abbreviation }
func (o *Organization) Description() string { return o.description }
func (o *Organization) Slug() Slug { return o.slug }
func (o *Organization) Image() Image { return o.image }
func (o *Organization) Hierarchy() Hierarchy { return o.hierarchy }
func (o *Organization) ParentID() *int64 { return o.hierarchy.ParentID() }
func (o *Organization) MaxDepth() uint { return o.hierarchy.MaxDepth() }
func (o *Organization) IsActive() bool { return o.activity.IsActive() }
func (o *Organization) IsDeleted() bool { return o.softDelete.IsDeleted() }
func (o *Organization) DeletedAt() *time.Time { return o.softDelete.DeletedAt() }
func (o *Organization) CreatedBy() *uint { return o.audit.CreatedBy() }
func (o *Organization) UpdatedBy() *uint { return o.audit.UpdatedBy() }
func (o *Organization) CreatedAt() time.Time { return o.timestamps.CreatedAt() }
func (o *Organization) UpdatedAt() time.Time { return o.timestamps.UpdatedAt() }
func (o *Organization) SameParent(p *int64) bool { return equalIDs(o.hierarchy.parentID, p) }
func (o *Organization) DisplayName() string { return displayName(o.name, o.abbreviation) }
func (o *Organization) IsRoot() bool { return o.hierarchy.IsRoot() }
func (o *Organization) String() string { return o.name }

func (o *Organization) SetName(name string) {
	o.name = strings.TrimSpace(name)
	o.touch()
}

func (o *Organization) SetAbbreviation(abbreviation string) {
	o.abbreviation = strings.TrimSpace(abbreviation)
	o.touch()
}

func (o *Organization) SetDescription(description string) {
	o.description = description
	o.touch()
}

func (o *Organization) SetSlug(slug Slug) {
	o.slug = slug
	o.touch()
}

func (o *Organization) SetImage(ref string) {
	o.image = Image{ref: ref}
	o.touch()
}

func (o *Organization) SetParent(parentID *int64) {
	o.hierarchy = NewHierarchy(parentID, o.hierarchy.maxDepth)
	o.touch()
}

func (o *Organization) SetMaxDepth(maxDepth uint) {
	o.hierarchy.maxDepth = maxDepth
	o.touch()
}

func (o *Organization) SetActive(active bool) {
	o.activity = Activity{active: active}
	o.touch()
}

// ChangedBy stamps the audit trail with userID. A nil userID is ignored.
func (o *Organization) ChangedBy(userID *uint) {
	o.audit = o.audit.ChangedBy(userID)
}

// MarkDeleted soft-deletes the organization. Repeated calls keep the first
// deletion time.
func (o *Organization) MarkDeleted(now time.Time) {
	o.softDelete = o.softDelete.Delete(now)
	o.timestamps = o.timestamps.Touch(now)
}

func (o *Organization) touch() {
	o.timestamps = o.timestamps.Touch(time.Now())
}

func equalIDs(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func displayName(name, abbreviation string) string {
	if abbreviation == "" {
		return name
	}
	return name + " (" + abbreviation + ")"
}
