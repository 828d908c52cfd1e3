package middleware

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/httpapi"
	"github.com/iota-uz/orgtree/pkg/jwt"
)

type UserProvider interface {
	GetByID(ctx context.Context, id uint) (user.User, error)
}

type AuthOptions struct {
	SigningKey []byte
	Issuer     string
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", message, httpapi.RequestMeta(httpapi.RequestID(w, r)))
}

// Authenticate resolves a bearer token to a user and stores it on the
// context. Requests without an Authorization header pass through anonymous;
// a present but invalid token is rejected.
func Authenticate(users UserProvider, opts AuthOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			logger := composables.UseLogger(r.Context())

			signed, err := jwt.HeaderValueToSignedString(header)
			if err != nil {
				writeUnauthorized(w, r, "malformed authorization header")
				return
			}
			token, err := jwt.Decode(signed, opts.SigningKey, opts.Issuer)
			if err != nil {
				logger.WithError(err).Debug("rejected bearer token")
				writeUnauthorized(w, r, "invalid token")
				return
			}
			userID, err := jwt.UserID(token)
			if err != nil {
				writeUnauthorized(w, r, "invalid token subject")
				return
			}
			u, err := users.GetByID(r.Context(), userID)
			if errors.Is(err, user.ErrNotFound) {
				writeUnauthorized(w, r, "unknown user")
				return
			}
			if err != nil {
				logger.WithError(err).Error("failed to load user")
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load user", httpapi.RequestMeta(httpapi.RequestID(w, r)))
				return
			}

			ctx := composables.WithUser(r.Context(), u)
			if params, ok := composables.UseParams(ctx); ok {
				params.Authenticated = true
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize rejects anonymous requests.
func Authorize() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				writeUnauthorized(w, r, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
