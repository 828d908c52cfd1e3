package mappers

import (
	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/presentation/viewmodels"
)

func OrganizationToViewModel(o *organization.Organization) *viewmodels.Organization {
	if o == nil {
		return nil
	}
	return &viewmodels.Organization{
		ID:           o.ID(),
		Name:         o.Name(),
		DisplayName:  o.DisplayName(),
		Abbreviation: o.Abbreviation(),
		Slug:         o.Slug().String(),
		Description:  o.Description(),
		Image:        o.Image().Ref(),
		ParentID:     o.ParentID(),
		MaxDepth:     o.MaxDepth(),
		IsActive:     o.IsActive(),
		CreatedBy:    o.CreatedBy(),
		UpdatedBy:    o.UpdatedBy(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
		DeletedAt:    o.DeletedAt(),
	}
}

func OrganizationToRef(o *organization.Organization) *viewmodels.OrganizationRef {
	if o == nil {
		return nil
	}
	return &viewmodels.OrganizationRef{
		ID:          o.ID(),
		Slug:        o.Slug().String(),
		DisplayName: o.DisplayName(),
	}
}

func OrganizationsToRefs(orgs []*organization.Organization) []*viewmodels.OrganizationRef {
	out := make([]*viewmodels.OrganizationRef, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, OrganizationToRef(o))
	}
	return out
}

func OrganizationsToViewModels(orgs []*organization.Organization) []*viewmodels.Organization {
	out := make([]*viewmodels.Organization, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, OrganizationToViewModel(o))
	}
	return out
}
