package persistence

import (
	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/infrastructure/persistence/models"
	"github.com/iota-uz/orgtree/pkg/mapping"
)

func ToDomainOrganization(m *models.Organization) *organization.Organization {
	maxDepth := uint(0)
	if m.MaxDepth > 0 {
		maxDepth = uint(m.MaxDepth)
	}
	return organization.New(
		m.Name,
		organization.WithID(m.ID),
		organization.WithSlug(organization.Slug(m.Slug)),
		organization.WithAbbreviation(m.Abbreviation),
		organization.WithDescription(m.Description),
		organization.WithImage(m.Image),
		organization.WithParentID(mapping.SQLNullInt64ToPointer(m.ParentID)),
		organization.WithMaxDepth(maxDepth),
		organization.WithIsActive(m.IsActive),
		organization.WithCreatedBy(mapping.SQLNullInt64ToUintPointer(m.CreatedBy)),
		organization.WithUpdatedBy(mapping.SQLNullInt64ToUintPointer(m.UpdatedBy)),
		organization.WithCreatedAt(m.CreatedAt),
		organization.WithUpdatedAt(m.UpdatedAt),
		organization.WithDeletedAt(mapping.SQLNullTimeToPointer(m.DeletedAt)),
	)
}

func ToDBOrganization(o *organization.Organization) *models.Organization {
	return &models.Organization{
		ID:           o.ID(),
		Name:         o.Name(),
		Abbreviation: o.Abbreviation(),
		Slug:         o.Slug().String(),
		Description:  o.Description(),
		Image:        o.Image().Ref(),
		ParentID:     mapping.PointerToSQLNullInt64(o.ParentID()),
		MaxDepth:     int(o.MaxDepth()),
		IsActive:     o.IsActive(),
		CreatedBy:    mapping.UintPointerToSQLNullInt64(o.CreatedBy()),
		UpdatedBy:    mapping.UintPointerToSQLNullInt64(o.UpdatedBy()),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
		DeletedAt:    mapping.PointerToSQLNullTime(o.DeletedAt()),
	}
}

func ToDomainLabels(m *models.Labels) *labels.Labels {
	return labels.New(
		m.OrganizationID,
		labels.WithID(m.ID),
		labels.WithValues(m.Values),
		labels.WithCreatedAt(m.CreatedAt),
		labels.WithUpdatedAt(m.UpdatedAt),
	)
}

func ToDBLabels(l *labels.Labels) *models.Labels {
	return &models.Labels{
		ID:             l.ID(),
		OrganizationID: l.OrganizationID(),
		Values:         l.Values(),
		CreatedAt:      l.CreatedAt(),
		UpdatedAt:      l.UpdatedAt(),
	}
}
