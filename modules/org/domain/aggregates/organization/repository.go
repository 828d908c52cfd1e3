package organization

import (
	"context"
	"errors"
	"time"

	"github.com/iota-uz/orgtree/pkg/repo"
)

var ErrNotFound = errors.New("organization not found")

type Field int

const (
	FieldName Field = iota
	FieldAbbreviation
	FieldCreatedAt
)

type SortBy = repo.SortBy[Field]

type FindParams struct {
	Limit  int
	Offset int
	SortBy SortBy

	// ParentID restricts the result to direct children of the given parent.
	ParentID *int64
	// RootsOnly restricts the result to organizations without a parent.
	RootsOnly bool
	Active    *bool
	// Search matches name or abbreviation, case-insensitively.
	Search string
	// HasFactions restricts the result to organizations owning at least one
	// faction.
	HasFactions bool
}

type Repository interface {
	// GetByID and GetBySlug skip soft-deleted rows.
	GetByID(ctx context.Context, id int64) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	// GetAnyByID includes soft-deleted rows. Hierarchy walks use it so a
	// deleted ancestor still links its subtree to the root.
	GetAnyByID(ctx context.Context, id int64) (*Organization, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Organization, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	// ChildIDs includes soft-deleted children, mirroring GetAnyByID, so a
	// deleted node keeps its live descendants inside the subtree.
	ChildIDs(ctx context.Context, parentID int64) ([]int64, error)
	FactionCount(ctx context.Context, id int64) (int, error)
	ActiveFactionCount(ctx context.Context, id int64) (int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// SiblingNameExists reports whether a non-deleted organization under the
	// same parent already uses name. excludeID is ignored when zero.
	SiblingNameExists(ctx context.Context, parentID *int64, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, org *Organization) (*Organization, error)
	Update(ctx context.Context, org *Organization) (*Organization, error)
	SoftDelete(ctx context.Context, id int64, by *uint, at time.Time) error
}
