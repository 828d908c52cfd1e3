package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/domain/hierarchy"
)

type HierarchyIssueKind string

const (
	IssueCorruptHierarchy HierarchyIssueKind = "corrupt_hierarchy"
	IssueDepthExceeded    HierarchyIssueKind = "depth_exceeded"
	IssueMissingLabels    HierarchyIssueKind = "missing_labels"
)

type HierarchyIssue struct {
	OrganizationID int64              `json:"organization_id"`
	Slug           string             `json:"slug"`
	Kind           HierarchyIssueKind `json:"kind"`
	Detail         string             `json:"detail"`
}

// CheckHierarchy walks every live organization and reports broken parent
// chains, depth violations that slipped past validation, and missing labels
// records. Store failures abort the check.
func (s *OrganizationService) CheckHierarchy(ctx context.Context) ([]HierarchyIssue, error) {
	orgs, err := s.repo.GetPaginated(ctx, &organization.FindParams{})
	if err != nil {
		return nil, errors.Wrap(err, "list organizations")
	}

	store := s.store()
	issues := make([]HierarchyIssue, 0)
	for _, org := range orgs {
		issue := func(kind HierarchyIssueKind, detail string) {
			issues = append(issues, HierarchyIssue{
				OrganizationID: org.ID(),
				Slug:           org.Slug().String(),
				Kind:           kind,
				Detail:         detail,
			})
		}

		if _, err := hierarchy.RootOf(ctx, store, org); err != nil {
			if !errors.Is(err, hierarchy.ErrCorruptHierarchy) {
				return nil, errors.Wrapf(err, "resolve root of organization %d", org.ID())
			}
			reportCorruption(ctx, "check_hierarchy", err)
			issue(IssueCorruptHierarchy, err.Error())
			continue
		}
		if err := hierarchy.ValidateDepth(ctx, store, org); err != nil {
			if !errors.Is(err, hierarchy.ErrDepthExceeded) {
				return nil, errors.Wrapf(err, "validate depth of organization %d", org.ID())
			}
			issue(IssueDepthExceeded, err.Error())
		}

		_, err := s.labelsRepo.GetByOrganizationID(ctx, org.ID())
		if errors.Is(err, labels.ErrNotFound) {
			issue(IssueMissingLabels, "no labels record")
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load labels of organization %d", org.ID())
		}
	}
	return issues, nil
}
