package services

import (
	"context"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/hierarchy"
)

// hierarchyStore exposes the organization repository to the hierarchy
// walker. Soft-deleted nodes are walked in both directions so their subtree
// keeps resolving to the same root and keeps counting towards it.
type hierarchyStore struct {
	repo organization.Repository
}

func (s hierarchyStore) Get(ctx context.Context, id int64) (hierarchy.Node, error) {
	org, err := s.repo.GetAnyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s hierarchyStore) ChildIDs(ctx context.Context, id int64) ([]int64, error) {
	return s.repo.ChildIDs(ctx, id)
}

func (s hierarchyStore) FactionCount(ctx context.Context, id int64) (int, error) {
	return s.repo.FactionCount(ctx, id)
}

func rootID(ctx context.Context, store hierarchy.Store, org *organization.Organization) (int64, error) {
	root, err := hierarchy.RootOf(ctx, store, org)
	if err != nil {
		return 0, err
	}
	return root.ID(), nil
}
