package permission

type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

type Resource string

// Permission is identified by its codename, "<resource>.<action>_<resource>".
type Permission struct {
	Name     string
	Resource Resource
	Action   Action
}

func New(resource Resource, action Action) *Permission {
	return &Permission{
		Name:     string(resource) + "." + string(action) + "_" + string(resource),
		Resource: resource,
		Action:   action,
	}
}

func (p *Permission) String() string {
	return p.Name
}
