package organization

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Timestamps tracks creation and last modification.
type Timestamps struct {
	createdAt time.Time
	updatedAt time.Time
}

func NewTimestamps(createdAt, updatedAt time.Time) Timestamps {
	return Timestamps{createdAt: createdAt, updatedAt: updatedAt}
}

func (t Timestamps) CreatedAt() time.Time { return t.createdAt }
func (t Timestamps) UpdatedAt() time.Time { return t.updatedAt }

func (t Timestamps) Touch(now time.Time) Timestamps {
	t.updatedAt = now
	return t
}

// SoftDelete marks a record hidden from default queries without removing it.
type SoftDelete struct {
	deletedAt *time.Time
}

func (s SoftDelete) IsDeleted() bool { return s.deletedAt != nil }
func (s SoftDelete) DeletedAt() *time.Time { return s.deletedAt }

// Delete is idempotent: the first deletion time is kept.
func (s SoftDelete) Delete(now time.Time) SoftDelete {
	if s.deletedAt != nil {
		return s
	}
	t := now
	return SoftDelete{deletedAt: &t}
}

// Audit records which users created and last changed a record.
type Audit struct {
	createdBy *uint
	updatedBy *uint
}

func (a Audit) CreatedBy() *uint { return a.createdBy }
func (a Audit) UpdatedBy() *uint { return a.updatedBy }

func (a Audit) ChangedBy(userID *uint) Audit {
	if userID == nil {
		return a
	}
	id := *userID
	if a.createdBy == nil {
		a.createdBy = &id
	}
	a.updatedBy = &id
	return a
}

// Activity is the operator-controlled on/off switch.
type Activity struct {
	active bool
}

func (a Activity) IsActive() bool { return a.active }

// Image holds a reference to stored image bytes.
type Image struct {
	ref string
}

func (i Image) Ref() string { return i.ref }
func (i Image) HasImage() bool { return i.ref != "" }

// Hierarchy is the parent link plus the depth limit enforced on the chain
// above a node.
type Hierarchy struct {
	parentID *int64
	maxDepth uint
}

func NewHierarchy(parentID *int64, maxDepth uint) Hierarchy {
	var p *int64
	if parentID != nil {
		v := *parentID
		p = &v
	}
	return Hierarchy{parentID: p, maxDepth: maxDepth}
}

func (h Hierarchy) ParentID() *int64 { return h.parentID }
func (h Hierarchy) HasParent() bool { return h.parentID != nil }
func (h Hierarchy) MaxDepth() uint { return h.maxDepth }

// IsRoot reports whether the node has no parent.
func (h Hierarchy) IsRoot() bool { return h.parentID == nil }

// Slug is the URL-safe identifier of an organization.
type Slug string

var (
	slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	slugValid    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// NewSlug derives a slug from free text. Accents are folded first, so
// "École" becomes "ecole". Text without any latin letters or digits yields
// "organization".
func NewSlug(text string) Slug {
	s := strings.ToLower(strings.TrimSpace(foldAccents(text)))
	s = slugNonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 200 {
		s = strings.TrimRight(s[:200], "-")
	}
	if s == "" {
		s = "organization"
	}
	return Slug(s)
}

// foldAccents strips combining marks. A transformer is stateful, so each
// call builds its own chain.
func foldAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func (s Slug) String() string { return string(s) }

// reservedSlugs collide with fixed routes under /organizations.
var reservedSlugs = map[Slug]struct{}{
	"root": {},
}

// Reserved reports whether s is taken by a route and cannot name an
// organization.
func (s Slug) Reserved() bool {
	_, ok := reservedSlugs[s]
	return ok
}

func (s Slug) Valid() bool {
	return slugValid.MatchString(string(s))
}
