package viewmodels

import (
	"time"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

type Organization struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	DisplayName  string     `json:"display_name"`
	Abbreviation string     `json:"abbreviation"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Image        string     `json:"image"`
	ParentID     *int64     `json:"parent_id"`
	MaxDepth     uint       `json:"max_depth"`
	IsActive     bool       `json:"is_active"`
	CreatedBy    *uint      `json:"created_by"`
	UpdatedBy    *uint      `json:"updated_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// OrganizationRef is the short form used in breadcrumbs and chains.
type OrganizationRef struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
}

type OrganizationListItem struct {
	*Organization
	TotalFactions int  `json:"total_factions"`
	CanEdit       bool `json:"can_edit"`
	CanDelete     bool `json:"can_delete"`
}

type OrganizationListPage struct {
	Items              []*OrganizationListItem `json:"items"`
	Total              int64                   `json:"total"`
	Page               int                     `json:"page"`
	Limit              int                     `json:"limit"`
	Q                  string                  `json:"q,omitempty"`
	Parent             *OrganizationRef        `json:"parent,omitempty"`
	CanAdd             bool                    `json:"can_add"`
	OrganizationLabels labels.Mapping          `json:"organization_labels"`
}

type OrganizationDetailPage struct {
	Organization       *Organization      `json:"organization"`
	TotalFactions      int                `json:"total_factions"`
	ActiveFactions     int                `json:"active_factions"`
	FallbackChain      []*OrganizationRef `json:"fallback_chain"`
	Children           []*OrganizationRef `json:"children"`
	CanEdit            bool               `json:"can_edit"`
	CanDelete          bool               `json:"can_delete"`
	OrganizationLabels labels.Mapping     `json:"organization_labels"`
}

type LabelsPage struct {
	Organization       *OrganizationRef  `json:"organization"`
	Labels             map[string]string `json:"labels"`
	Defaults           map[string]string `json:"defaults"`
	CanEdit            bool              `json:"can_edit"`
	OrganizationLabels labels.Mapping    `json:"organization_labels"`
}

// FormErrorsPage answers a rejected form submission with the submitted
// values and per-field messages.
type FormErrorsPage struct {
	Form               any               `json:"form"`
	Errors             map[string]string `json:"errors"`
	OrganizationLabels labels.Mapping    `json:"organization_labels"`
}
