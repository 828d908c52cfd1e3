package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/domain/hierarchy"
	"github.com/iota-uz/orgtree/pkg/composables"
)

const (
	CodeInvalidBody      = "ORG_INVALID_BODY"
	CodeNotFound         = "ORG_NOT_FOUND"
	CodeParentNotFound   = "ORG_PARENT_NOT_FOUND"
	CodeDuplicateName    = "ORG_DUPLICATE_NAME"
	CodeSlugConflict     = "ORG_SLUG_CONFLICT"
	CodeDepthExceeded    = "ORG_DEPTH_EXCEEDED"
	CodeCyclicParent     = "ORG_CYCLIC_PARENT"
	CodeCorruptHierarchy = "ORG_CORRUPT_HIERARCHY"
	CodeLabelTooLong     = "ORG_LABEL_TOO_LONG"
)

// Constraint names from the org schema migration.
const (
	constraintSiblingName = "organizations_sibling_name_uidx"
	constraintSlug        = "organizations_slug_key"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

// toServiceError classifies domain and storage errors. Errors it does not
// recognise are returned as is.
func toServiceError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	switch {
	case errors.Is(err, hierarchy.ErrDepthExceeded):
		return newServiceError(http.StatusUnprocessableEntity, CodeDepthExceeded, "maximum depth exceeded", err)
	case errors.Is(err, hierarchy.ErrCyclicParent):
		return newServiceError(http.StatusUnprocessableEntity, CodeCyclicParent, "parent cannot be a descendant of the organization", err)
	case errors.Is(err, hierarchy.ErrCorruptHierarchy):
		reportCorruption(ctx, op, err)
		return newServiceError(http.StatusInternalServerError, CodeCorruptHierarchy, "organization hierarchy is corrupt", err)
	case errors.Is(err, organization.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return newServiceError(http.StatusNotFound, CodeNotFound, "organization not found", err)
	case errors.Is(err, labels.ErrNotFound):
		return newServiceError(http.StatusNotFound, CodeNotFound, "organization labels not found", err)
	}
	return mapPgError(err)
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != "23505" { // unique_violation
		return err
	}
	switch pgErr.ConstraintName {
	case constraintSiblingName:
		return newServiceError(http.StatusUnprocessableEntity, CodeDuplicateName, "an organization with this name already exists under the same parent", err)
	case constraintSlug:
		return newServiceError(http.StatusConflict, CodeSlugConflict, "slug already exists", err)
	default:
		return newServiceError(http.StatusConflict, "ORG_CONFLICT", "unique constraint violated", err)
	}
}

// reportCorruption logs a hierarchy integrity incident. Cycles in stored
// parent links can only come from out-of-band writes, so they are surfaced
// loudly instead of being repaired.
func reportCorruption(ctx context.Context, op string, err error) {
	recordHierarchyIncident(op)
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"incident":  "data_integrity",
		"operation": op,
	}).WithError(err).Error("organization hierarchy is corrupt")
}
