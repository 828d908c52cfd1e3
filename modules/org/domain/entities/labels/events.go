package labels

// UpdatedEvent is published after an organization's labels were saved.
// RootID is the root of the organization's tree; cached mappings keyed under
// it are stale.
type UpdatedEvent struct {
	Result *Labels
	RootID int64
}
