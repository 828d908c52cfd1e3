package composables

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/core/domain/entities/permission"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/pkg/constants"
	"github.com/iota-uz/orgtree/pkg/shared"
)

var (
	ErrNoUserFound = errors.New("no user found")
	ErrForbidden   = errors.New("forbidden")
)

type Params struct {
	IP            string
	UserAgent     string
	Authenticated bool
	Request       *http.Request
	Writer        http.ResponseWriter
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

// UseLogger returns the request-scoped logger. Outside a request it falls
// back to the standard logger.
func UseLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, entry)
}

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the authenticated user or ErrNoUserFound.
func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok || u == nil {
		return nil, ErrNoUserFound
	}
	return u, nil
}

// UseUserID returns a pointer suitable for audit columns, nil when anonymous.
func UseUserID(ctx context.Context) *uint {
	u, err := UseUser(ctx)
	if err != nil {
		return nil
	}
	id := u.ID()
	return &id
}

func WithLabels(ctx context.Context, m labels.Mapping) context.Context {
	return context.WithValue(ctx, constants.LabelsKey, m)
}

// UseLabels returns the terminology resolved for the current request. It is
// empty, never nil, when nothing was resolved.
func UseLabels(ctx context.Context) labels.Mapping {
	m, ok := ctx.Value(constants.LabelsKey).(labels.Mapping)
	if !ok || m == nil {
		return labels.Mapping{}
	}
	return m
}

// CanUser returns nil when the current user holds perm.
func CanUser(ctx context.Context, perm *permission.Permission) error {
	u, err := UseUser(ctx)
	if err != nil {
		return err
	}
	if !u.Can(perm) {
		return ErrForbidden
	}
	return nil
}

func UseForm[T comparable](v T, r *http.Request) (T, error) {
	if err := r.ParseForm(); err != nil {
		return v, err
	}
	return v, shared.Decoder.Decode(v, r.Form)
}
