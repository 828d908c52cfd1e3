package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/httpapi"
)

type LabelResolver interface {
	ResolveLabels(ctx context.Context, u user.User) (labels.Mapping, error)
}

// ProvideLabels puts the terminology of the current user's organization
// tree on the request context. Anonymous requests get an empty mapping.
func ProvideLabels(resolver LabelResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var u user.User
			if current, err := composables.UseUser(r.Context()); err == nil {
				u = current
			}
			m, err := resolver.ResolveLabels(r.Context(), u)
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Error("failed to resolve organization labels")
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "LABELS_UNAVAILABLE", "failed to resolve organization labels", httpapi.RequestMeta(httpapi.RequestID(w, r)))
				return
			}
			ctx := composables.WithLabels(r.Context(), m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
