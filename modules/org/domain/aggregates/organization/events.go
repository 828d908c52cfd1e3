package organization

type CreatedEvent struct {
	Result *Organization
}

// UpdatedEvent carries the root before and after the update. They differ when
// the parent link moved the organization to another tree.
type UpdatedEvent struct {
	Result         *Organization
	PreviousRootID int64
	RootID         int64
}

type DeletedEvent struct {
	Result *Organization
	RootID int64
}
