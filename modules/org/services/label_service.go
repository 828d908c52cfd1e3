package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/domain/hierarchy"
)

// LabelCache stores resolved mappings per user. Entries are indexed by the
// root organization they were resolved from so a labels write can drop every
// mapping derived from that tree. A zero rootID stores the entry without an
// index; such entries only expire through the TTL.
//
// Every InvalidateRoot bumps the generation of that root. Set drops the
// write when the generation no longer matches the one read before the
// labels were loaded, so a miss racing a labels write cannot cache the old
// mapping.
type LabelCache interface {
	Backend() string
	Get(ctx context.Context, userID uint) (labels.Mapping, bool, error)
	Generation(ctx context.Context, rootID int64) (uint64, error)
	Set(ctx context.Context, rootID int64, generation uint64, userID uint, m labels.Mapping) error
	InvalidateRoot(ctx context.Context, rootID int64) error
}

type LabelService struct {
	orgRepo    organization.Repository
	labelsRepo labels.Repository
	cache      LabelCache
}

func NewLabelService(orgRepo organization.Repository, labelsRepo labels.Repository, cache LabelCache) *LabelService {
	return &LabelService{
		orgRepo:    orgRepo,
		labelsRepo: labelsRepo,
		cache:      cache,
	}
}

// ResolveLabels returns the terminology for u. Anonymous users get an empty
// mapping. Users without a profile get the defaults.
func (s *LabelService) ResolveLabels(ctx context.Context, u user.User) (labels.Mapping, error) {
	if u == nil {
		return labels.Mapping{}, nil
	}

	cached, ok, err := s.cache.Get(ctx, u.ID())
	if err != nil {
		return nil, errors.Wrap(err, "get cached labels")
	}
	recordLabelCacheRequest(s.cache.Backend(), ok)
	if ok {
		return cached, nil
	}

	m, root, gen, err := s.resolve(ctx, u.Profile())
	if err != nil {
		if errors.Is(err, hierarchy.ErrCorruptHierarchy) {
			reportCorruption(ctx, "resolve_labels", err)
		}
		return nil, err
	}
	if err := s.cache.Set(ctx, root, gen, u.ID(), m); err != nil {
		return nil, errors.Wrap(err, "cache labels")
	}
	return m, nil
}

// resolve returns the mapping, the root it came from and the cache
// generation of that root read before the labels were loaded.
func (s *LabelService) resolve(ctx context.Context, profile user.Profile) (labels.Mapping, int64, uint64, error) {
	orgID, ok := profile.OrganizationID()
	if !ok {
		return labels.DefaultMapping(), 0, 0, nil
	}

	org, err := s.orgRepo.GetAnyByID(ctx, orgID)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "load %s organization %d", profile.Kind(), orgID)
	}
	root, err := hierarchy.RootOf(ctx, hierarchyStore{repo: s.orgRepo}, org)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "resolve root of organization %d", orgID)
	}
	gen, err := s.cache.Generation(ctx, root.ID())
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "read cache generation of root %d", root.ID())
	}

	l, err := s.labelsRepo.GetByOrganizationID(ctx, root.ID())
	if errors.Is(err, labels.ErrNotFound) {
		return labels.DefaultMapping(), root.ID(), gen, nil
	}
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "load labels of organization %d", root.ID())
	}
	return labels.Resolve(l), root.ID(), gen, nil
}

func (s *LabelService) CacheBackend() string {
	return s.cache.Backend()
}

// InvalidateRoot drops every cached mapping resolved from the tree rooted at
// rootID.
func (s *LabelService) InvalidateRoot(ctx context.Context, rootID int64, reason string) error {
	if rootID == 0 {
		return nil
	}
	recordLabelCacheInvalidate(reason)
	if err := s.cache.InvalidateRoot(ctx, rootID); err != nil {
		return errors.Wrapf(err, "invalidate labels of root %d", rootID)
	}
	return nil
}
