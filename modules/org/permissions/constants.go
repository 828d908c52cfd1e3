package permissions

import (
	"github.com/iota-uz/orgtree/modules/core/domain/entities/permission"
)

const ResourceOrganization permission.Resource = "organization"

var (
	OrganizationView   = permission.New(ResourceOrganization, permission.ActionView)
	OrganizationAdd    = permission.New(ResourceOrganization, permission.ActionAdd)
	OrganizationChange = permission.New(ResourceOrganization, permission.ActionChange)
	OrganizationDelete = permission.New(ResourceOrganization, permission.ActionDelete)
)

var Permissions = []*permission.Permission{
	OrganizationView,
	OrganizationAdd,
	OrganizationChange,
	OrganizationDelete,
}
