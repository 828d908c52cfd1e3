package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/modules/core/domain/entities/permission"
	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/httpapi"
	"github.com/iota-uz/orgtree/pkg/repo"
)

func requestID(w http.ResponseWriter, r *http.Request) string {
	return httpapi.RequestID(w, r)
}

// ensurePermission answers 403 and returns false when the current user
// lacks perm.
func ensurePermission(w http.ResponseWriter, r *http.Request, perm *permission.Permission) bool {
	err := composables.CanUser(r.Context(), perm)
	if err == nil {
		return true
	}
	if errors.Is(err, composables.ErrNoUserFound) {
		writeAPIError(w, http.StatusUnauthorized, requestID(w, r), "UNAUTHORIZED", "authentication required")
		return false
	}
	writeAPIError(w, http.StatusForbidden, requestID(w, r), "FORBIDDEN", "missing permission "+perm.Name)
	return false
}

func can(r *http.Request, perm *permission.Permission) bool {
	return composables.CanUser(r.Context(), perm) == nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// findParams reads the list filters shared by the admin and REST surfaces.
func findParams(r *http.Request) (*organization.FindParams, composables.PaginationParams) {
	q := r.URL.Query()
	pagination := composables.UsePaginated(r)
	params := &organization.FindParams{
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
		Search: strings.TrimSpace(q.Get("q")),
	}
	if v, err := strconv.ParseBool(q.Get("active")); err == nil {
		params.Active = &v
	}
	if v, err := strconv.ParseBool(q.Get("has_factions")); err == nil {
		params.HasFactions = v
	}
	if v, err := strconv.ParseInt(q.Get("parent_id"), 10, 64); err == nil && v > 0 {
		params.ParentID = &v
	}
	if v, err := strconv.ParseBool(q.Get("roots")); err == nil {
		params.RootsOnly = v
	}
	switch q.Get("sort") {
	case "name":
		params.SortBy = sortBy(organization.FieldName, true)
	case "-name":
		params.SortBy = sortBy(organization.FieldName, false)
	case "created_at":
		params.SortBy = sortBy(organization.FieldCreatedAt, true)
	case "-created_at":
		params.SortBy = sortBy(organization.FieldCreatedAt, false)
	}
	return params, pagination
}

func sortBy(field organization.Field, ascending bool) organization.SortBy {
	return organization.SortBy{
		Fields: []repo.SortByField[organization.Field]{{Field: field, Ascending: ascending}},
	}
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID(w, r), svcErr.Code, svcErr.Message)
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("organization request failed")
	writeAPIError(w, http.StatusInternalServerError, requestID(w, r), "ORG_INTERNAL", "internal error")
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	_ = httpapi.WriteError(w, status, code, message, httpapi.RequestMeta(requestID))
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	_ = httpapi.WriteValidationError(w, requestID(w, r), fields)
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	_ = httpapi.WriteJSON(w, status, payload)
}
