package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/modules/org/permissions"
	"github.com/iota-uz/orgtree/modules/org/presentation/controllers/dtos"
	"github.com/iota-uz/orgtree/modules/org/presentation/mappers"
	"github.com/iota-uz/orgtree/modules/org/presentation/viewmodels"
	"github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/middleware"
)

type OrganizationAPIController struct {
	app       application.Application
	orgs      *services.OrganizationService
	apiPrefix string
}

func NewOrganizationAPIController(app application.Application) application.Controller {
	return &OrganizationAPIController{
		app:       app,
		orgs:      app.Service(services.OrganizationService{}).(*services.OrganizationService),
		apiPrefix: "/api/organizations",
	}
}

func (c *OrganizationAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrganizationAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.Authorize())

	api.HandleFunc("", c.instrumentAPI("organizations.list", c.List)).Methods(http.MethodGet)
	api.HandleFunc("", c.instrumentAPI("organizations.create", c.Create)).Methods(http.MethodPost)
	api.HandleFunc("/{id:[0-9]+}", c.instrumentAPI("organizations.get", c.Get)).Methods(http.MethodGet)
	api.HandleFunc("/{id:[0-9]+}", c.instrumentAPI("organizations.update", c.Update)).Methods(http.MethodPut)
	api.HandleFunc("/{id:[0-9]+}", c.instrumentAPI("organizations.patch", c.Patch)).Methods(http.MethodPatch)
	api.HandleFunc("/{id:[0-9]+}", c.instrumentAPI("organizations.delete", c.Delete)).Methods(http.MethodDelete)
}

type listOrganizationsResponse struct {
	Items []*viewmodels.Organization `json:"items"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

func (c *OrganizationAPIController) List(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationView) {
		return
	}
	params, pagination := findParams(r)
	orgs, err := c.orgs.GetPaginated(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := c.orgs.Count(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listOrganizationsResponse{
		Items: mappers.OrganizationsToViewModels(orgs),
		Total: total,
		Page:  pagination.Page,
		Limit: pagination.Limit,
	})
}

func (c *OrganizationAPIController) Get(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationView) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusNotFound, requestID(w, r), services.CodeNotFound, "organization not found")
		return
	}
	org, err := c.orgs.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.OrganizationToViewModel(org))
}

func (c *OrganizationAPIController) Create(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationAdd) {
		return
	}
	var dto dtos.OrganizationDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID(w, r), services.CodeInvalidBody, "invalid json body")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, errs)
		return
	}
	org, err := c.orgs.Create(r.Context(), dto.ToCreateInput(composables.UseUserID(r.Context())))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", c.apiPrefix+"/"+strconv.FormatInt(org.ID(), 10))
	writeJSON(w, http.StatusCreated, mappers.OrganizationToViewModel(org))
}

func (c *OrganizationAPIController) Update(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationChange) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusNotFound, requestID(w, r), services.CodeNotFound, "organization not found")
		return
	}
	var dto dtos.OrganizationDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID(w, r), services.CodeInvalidBody, "invalid json body")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, errs)
		return
	}
	org, err := c.orgs.Update(r.Context(), id, dto.ToUpdateInput(composables.UseUserID(r.Context())))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.OrganizationToViewModel(org))
}

func (c *OrganizationAPIController) Patch(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationChange) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusNotFound, requestID(w, r), services.CodeNotFound, "organization not found")
		return
	}
	var dto dtos.PatchOrganizationDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID(w, r), services.CodeInvalidBody, "invalid json body")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		writeValidationError(w, r, errs)
		return
	}
	org, err := c.orgs.Update(r.Context(), id, dto.ToUpdateInput(composables.UseUserID(r.Context())))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.OrganizationToViewModel(org))
}

func (c *OrganizationAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationDelete) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeAPIError(w, http.StatusNotFound, requestID(w, r), services.CodeNotFound, "organization not found")
		return
	}
	if _, err := c.orgs.Delete(r.Context(), id, composables.UseUserID(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
