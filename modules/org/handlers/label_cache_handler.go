package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/pkg/application"
)

// RootInvalidator drops every cached label mapping resolved under a root.
type RootInvalidator interface {
	InvalidateRoot(ctx context.Context, rootID int64, reason string) error
}

// LabelCacheHandler keeps resolved label mappings in line with writes to
// labels and to the tree shape.
type LabelCacheHandler struct {
	cache  RootInvalidator
	logger *logrus.Logger
}

func NewLabelCacheHandler(cache RootInvalidator, logger *logrus.Logger) *LabelCacheHandler {
	return &LabelCacheHandler{cache: cache, logger: logger}
}

func RegisterLabelCacheHandlers(app application.Application, cache RootInvalidator) {
	h := NewLabelCacheHandler(cache, app.Logger())
	bus := app.EventPublisher()
	bus.Subscribe(h.OnLabelsUpdated)
	bus.Subscribe(h.OnOrganizationUpdated)
	bus.Subscribe(h.OnOrganizationDeleted)
}

func (h *LabelCacheHandler) OnLabelsUpdated(e *labels.UpdatedEvent) error {
	return h.invalidate("labels_updated", e.RootID)
}

// OnOrganizationUpdated invalidates both trees when a node moved between
// roots. Its users now resolve against the new root.
func (h *LabelCacheHandler) OnOrganizationUpdated(e *organization.UpdatedEvent) error {
	if e.PreviousRootID == e.RootID {
		return nil
	}
	return h.invalidate("organization_moved", e.PreviousRootID, e.RootID)
}

func (h *LabelCacheHandler) OnOrganizationDeleted(e *organization.DeletedEvent) error {
	return h.invalidate("organization_deleted", e.RootID)
}

func (h *LabelCacheHandler) invalidate(reason string, roots ...int64) error {
	ctx := context.Background()
	for _, root := range roots {
		if err := h.cache.InvalidateRoot(ctx, root, reason); err != nil {
			h.logger.WithFields(logrus.Fields{
				"reason":  reason,
				"root_id": root,
			}).WithError(err).Warn("failed to invalidate label cache")
			return err
		}
	}
	return nil
}
