package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/domain/hierarchy"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

const (
	maxNameLength         = 255
	maxAbbreviationLength = 25
	maxSlugAttempts       = 1000
)

// Transactor runs fn inside a unit of work.
type Transactor func(ctx context.Context, fn func(txCtx context.Context) error) error

type OrganizationServiceOption func(s *OrganizationService)

func WithTransactor(t Transactor) OrganizationServiceOption {
	return func(s *OrganizationService) {
		s.inTx = t
	}
}

func WithClock(now func() time.Time) OrganizationServiceOption {
	return func(s *OrganizationService) {
		s.now = now
	}
}

type OrganizationService struct {
	repo       organization.Repository
	labelsRepo labels.Repository
	publisher  eventbus.EventBus
	inTx       Transactor
	now        func() time.Time
}

func NewOrganizationService(
	repo organization.Repository,
	labelsRepo labels.Repository,
	publisher eventbus.EventBus,
	opts ...OrganizationServiceOption,
) *OrganizationService {
	s := &OrganizationService{
		repo:       repo,
		labelsRepo: labelsRepo,
		publisher:  publisher,
		inTx:       composables.InTx,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateOrganizationInput struct {
	Name         string
	Abbreviation string
	Description  string
	Slug         string
	Image        string
	ParentID     *int64
	MaxDepth     uint
	// IsActive defaults to true when nil.
	IsActive  *bool
	CreatedBy *uint
}

// UpdateOrganizationInput carries a partial update. Nil fields are left
// untouched. The parent link changes only when SetParent is true, in which
// case a nil ParentID turns the organization into a root.
type UpdateOrganizationInput struct {
	Name         *string
	Abbreviation *string
	Description  *string
	Slug         *string
	Image        *string
	SetParent    bool
	ParentID     *int64
	MaxDepth     *uint
	IsActive     *bool
	UpdatedBy    *uint
}

type OrganizationWithFactions struct {
	Organization  *organization.Organization
	TotalFactions int
}

func (s *OrganizationService) store() hierarchy.Store {
	return hierarchyStore{repo: s.repo}
}

func (s *OrganizationService) GetByID(ctx context.Context, id int64) (*organization.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, toServiceError(ctx, "get", err)
	}
	return org, nil
}

func (s *OrganizationService) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	org, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, toServiceError(ctx, "get", err)
	}
	return org, nil
}

// GetByKey looks an organization up by numeric id or by slug. A numeric key
// that matches no id is retried as a slug.
func (s *OrganizationService) GetByKey(ctx context.Context, key string) (*organization.Organization, error) {
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		org, err := s.repo.GetByID(ctx, id)
		if err == nil {
			return org, nil
		}
		if !errors.Is(err, organization.ErrNotFound) {
			return nil, toServiceError(ctx, "get", err)
		}
	}
	return s.GetBySlug(ctx, key)
}

func (s *OrganizationService) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *OrganizationService) Count(ctx context.Context, params *organization.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

func (s *OrganizationService) Children(ctx context.Context, parentID int64) ([]*organization.Organization, error) {
	if _, err := s.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, &organization.FindParams{ParentID: &parentID})
}

func (s *OrganizationService) Roots(ctx context.Context) ([]*organization.Organization, error) {
	return s.repo.GetPaginated(ctx, &organization.FindParams{RootsOnly: true})
}

// ListWithFactionCounts pairs every listed organization with the number of
// factions in its whole subtree.
func (s *OrganizationService) ListWithFactionCounts(ctx context.Context, params *organization.FindParams) ([]OrganizationWithFactions, error) {
	orgs, err := s.repo.GetPaginated(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]OrganizationWithFactions, 0, len(orgs))
	for _, org := range orgs {
		total, err := hierarchy.TotalFactionCount(ctx, s.store(), org.ID())
		if err != nil {
			return nil, toServiceError(ctx, "total_faction_count", err)
		}
		out = append(out, OrganizationWithFactions{Organization: org, TotalFactions: total})
	}
	return out, nil
}

func (s *OrganizationService) RootOf(ctx context.Context, id int64) (*organization.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	root, err := hierarchy.RootOf(ctx, s.store(), org)
	if err != nil {
		return nil, toServiceError(ctx, "root_of", err)
	}
	return root.(*organization.Organization), nil
}

// FallbackChain lists the ancestors of id, nearest first, ending at the root.
func (s *OrganizationService) FallbackChain(ctx context.Context, id int64) ([]*organization.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	nodes, err := hierarchy.FallbackChain(ctx, s.store(), org)
	if err != nil {
		return nil, toServiceError(ctx, "fallback_chain", err)
	}
	out := make([]*organization.Organization, len(nodes))
	for i, n := range nodes {
		out[i] = n.(*organization.Organization)
	}
	return out, nil
}

func (s *OrganizationService) DescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	ids, err := hierarchy.DescendantIDs(ctx, s.store(), id)
	if err != nil {
		return nil, toServiceError(ctx, "descendant_ids", err)
	}
	return ids, nil
}

func (s *OrganizationService) TotalFactionCount(ctx context.Context, id int64) (int, error) {
	total, err := hierarchy.TotalFactionCount(ctx, s.store(), id)
	if err != nil {
		return 0, toServiceError(ctx, "total_faction_count", err)
	}
	return total, nil
}

func (s *OrganizationService) ActiveFactionCount(ctx context.Context, id int64) (int, error) {
	return s.repo.ActiveFactionCount(ctx, id)
}

func (s *OrganizationService) Create(ctx context.Context, in CreateOrganizationInput) (*organization.Organization, error) {
	if err := validateFields(in.Name, in.Abbreviation); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := s.now()
	org := organization.New(
		in.Name,
		organization.WithAbbreviation(in.Abbreviation),
		organization.WithDescription(in.Description),
		organization.WithImage(in.Image),
		organization.WithParentID(in.ParentID),
		organization.WithMaxDepth(in.MaxDepth),
		organization.WithIsActive(active),
		organization.WithCreatedBy(in.CreatedBy),
		organization.WithCreatedAt(now),
		organization.WithUpdatedAt(now),
	)

	var created *organization.Organization
	err := s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.checkParent(txCtx, org.ParentID()); err != nil {
			return err
		}
		if err := s.checkSiblingName(txCtx, org.ParentID(), org.Name(), 0); err != nil {
			return err
		}
		slug, err := s.uniqueSlug(txCtx, slugSource(in.Slug, org.Name()), 0)
		if err != nil {
			return err
		}
		org.SetSlug(slug)
		if err := hierarchy.ValidateDepth(txCtx, s.store(), org); err != nil {
			return err
		}

		created, err = s.repo.Create(txCtx, org)
		if err != nil {
			return err
		}
		return s.afterCreate(txCtx, created)
	})
	if err != nil {
		return nil, toServiceError(ctx, "create", err)
	}

	s.publisher.Publish(&organization.CreatedEvent{Result: created})
	return created, nil
}

// afterCreate gives every new organization its labels record inside the
// creating transaction.
func (s *OrganizationService) afterCreate(ctx context.Context, org *organization.Organization) error {
	if _, err := s.labelsRepo.Create(ctx, labels.New(org.ID())); err != nil {
		return errors.Wrapf(err, "create labels for organization %d", org.ID())
	}
	return nil
}

func (s *OrganizationService) Update(ctx context.Context, id int64, in UpdateOrganizationInput) (*organization.Organization, error) {
	var (
		updated        *organization.Organization
		previousRootID int64
		newRootID      int64
	)
	err := s.inTx(ctx, func(txCtx context.Context) error {
		org, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		previousRootID, err = rootID(txCtx, s.store(), org)
		if err != nil {
			return err
		}

		name := org.Name()
		if in.Name != nil {
			name = *in.Name
		}
		abbreviation := org.Abbreviation()
		if in.Abbreviation != nil {
			abbreviation = *in.Abbreviation
		}
		if err := validateFields(name, abbreviation); err != nil {
			return err
		}
		org.SetName(name)
		org.SetAbbreviation(abbreviation)
		if in.Description != nil {
			org.SetDescription(*in.Description)
		}
		if in.Image != nil {
			org.SetImage(*in.Image)
		}
		if in.MaxDepth != nil {
			org.SetMaxDepth(*in.MaxDepth)
		}
		if in.IsActive != nil {
			org.SetActive(*in.IsActive)
		}
		if in.SetParent && !org.SameParent(in.ParentID) {
			if in.ParentID != nil && *in.ParentID == org.ID() {
				return hierarchy.ErrCyclicParent
			}
			if err := s.checkParent(txCtx, in.ParentID); err != nil {
				return err
			}
			org.SetParent(in.ParentID)
		}
		if in.Slug != nil && strings.TrimSpace(*in.Slug) != org.Slug().String() {
			slug, err := s.uniqueSlug(txCtx, slugSource(*in.Slug, org.Name()), org.ID())
			if err != nil {
				return err
			}
			org.SetSlug(slug)
		}
		org.ChangedBy(in.UpdatedBy)

		if err := s.checkSiblingName(txCtx, org.ParentID(), org.Name(), org.ID()); err != nil {
			return err
		}
		if err := hierarchy.ValidateDepth(txCtx, s.store(), org); err != nil {
			return err
		}

		updated, err = s.repo.Update(txCtx, org)
		if err != nil {
			return err
		}
		newRootID, err = rootID(txCtx, s.store(), updated)
		return err
	})
	if err != nil {
		return nil, toServiceError(ctx, "update", err)
	}

	s.publisher.Publish(&organization.UpdatedEvent{
		Result:         updated,
		PreviousRootID: previousRootID,
		RootID:         newRootID,
	})
	return updated, nil
}

// Delete soft-deletes the organization. The row and its labels stay in place
// and the children keep their parent link.
func (s *OrganizationService) Delete(ctx context.Context, id int64, by *uint) (*organization.Organization, error) {
	var (
		deleted *organization.Organization
		root    int64
	)
	err := s.inTx(ctx, func(txCtx context.Context) error {
		org, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		root, err = rootID(txCtx, s.store(), org)
		if err != nil {
			return err
		}
		now := s.now()
		if err := s.repo.SoftDelete(txCtx, id, by, now); err != nil {
			return err
		}
		org.ChangedBy(by)
		org.MarkDeleted(now)
		deleted = org
		return nil
	})
	if err != nil {
		return nil, toServiceError(ctx, "delete", err)
	}

	s.publisher.Publish(&organization.DeletedEvent{Result: deleted, RootID: root})
	return deleted, nil
}

// Labels returns the stored labels of the organization, or an unsaved record
// holding the defaults when none exists.
func (s *OrganizationService) Labels(ctx context.Context, orgID int64) (*labels.Labels, error) {
	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	l, err := s.labelsRepo.GetByOrganizationID(ctx, orgID)
	if errors.Is(err, labels.ErrNotFound) {
		return labels.New(orgID), nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// EnsureLabels creates the labels record of orgID when it is missing and
// restores any blank slot of an existing one.
func (s *OrganizationService) EnsureLabels(ctx context.Context, orgID int64) (*labels.Labels, error) {
	var out *labels.Labels
	err := s.inTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, orgID); err != nil {
			return err
		}
		var err error
		out, err = s.ensureLabels(txCtx, orgID)
		return err
	})
	if err != nil {
		return nil, toServiceError(ctx, "ensure_labels", err)
	}
	return out, nil
}

func (s *OrganizationService) ensureLabels(ctx context.Context, orgID int64) (*labels.Labels, error) {
	l, err := s.labelsRepo.GetByOrganizationID(ctx, orgID)
	if errors.Is(err, labels.ErrNotFound) {
		return s.labelsRepo.Create(ctx, labels.New(orgID))
	}
	if err != nil {
		return nil, err
	}
	l.FillDefaults()
	return l, nil
}

// UpdateLabels applies values to the labels of orgID. Unknown keys are
// ignored and blank values restore the slot default.
func (s *OrganizationService) UpdateLabels(ctx context.Context, orgID int64, values map[string]string) (*labels.Labels, error) {
	for k, v := range values {
		if labels.IsKnown(k) && utf8.RuneCountInString(strings.TrimSpace(v)) > labels.MaxLength {
			return nil, newServiceError(
				http.StatusUnprocessableEntity,
				CodeLabelTooLong,
				fmt.Sprintf("%s must be at most %d characters", k, labels.MaxLength),
				nil,
			)
		}
	}

	var (
		updated *labels.Labels
		root    int64
	)
	err := s.inTx(ctx, func(txCtx context.Context) error {
		org, err := s.repo.GetByID(txCtx, orgID)
		if err != nil {
			return err
		}
		l, err := s.ensureLabels(txCtx, orgID)
		if err != nil {
			return err
		}
		l.Update(values)
		updated, err = s.labelsRepo.Update(txCtx, l)
		if err != nil {
			return err
		}
		root, err = rootID(txCtx, s.store(), org)
		return err
	})
	if err != nil {
		return nil, toServiceError(ctx, "update_labels", err)
	}

	s.publisher.Publish(&labels.UpdatedEvent{Result: updated, RootID: root})
	return updated, nil
}

func (s *OrganizationService) checkParent(ctx context.Context, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			return newServiceError(http.StatusUnprocessableEntity, CodeParentNotFound, "parent organization not found", err)
		}
		return err
	}
	return nil
}

func (s *OrganizationService) checkSiblingName(ctx context.Context, parentID *int64, name string, excludeID int64) error {
	exists, err := s.repo.SiblingNameExists(ctx, parentID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return newServiceError(
			http.StatusUnprocessableEntity,
			CodeDuplicateName,
			"an organization with this name already exists under the same parent",
			nil,
		)
	}
	return nil
}

// uniqueSlug derives a slug from text and appends "-2", "-3", ... until it is
// free. Reserved slugs are never free. The organization identified by ownerID
// may keep its own slug.
func (s *OrganizationService) uniqueSlug(ctx context.Context, text string, ownerID int64) (organization.Slug, error) {
	base := organization.NewSlug(text)
	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		if candidate.Reserved() {
			candidate = organization.Slug(fmt.Sprintf("%s-%d", base, i))
			continue
		}
		if ownerID != 0 {
			if owner, err := s.repo.GetBySlug(ctx, candidate.String()); err == nil && owner.ID() == ownerID {
				return candidate, nil
			}
		}
		exists, err := s.repo.SlugExists(ctx, candidate.String())
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = organization.Slug(fmt.Sprintf("%s-%d", base, i))
	}
	return "", newServiceError(http.StatusConflict, CodeSlugConflict, "could not allocate a unique slug", nil)
}

func slugSource(slug, name string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return s
	}
	return name
}

func validateFields(name, abbreviation string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return newServiceError(http.StatusUnprocessableEntity, CodeInvalidBody, "name is required", nil)
	case utf8.RuneCountInString(name) > maxNameLength:
		return newServiceError(http.StatusUnprocessableEntity, CodeInvalidBody, fmt.Sprintf("name must be at most %d characters", maxNameLength), nil)
	case utf8.RuneCountInString(strings.TrimSpace(abbreviation)) > maxAbbreviationLength:
		return newServiceError(http.StatusUnprocessableEntity, CodeInvalidBody, fmt.Sprintf("abbreviation must be at most %d characters", maxAbbreviationLength), nil)
	}
	return nil
}
