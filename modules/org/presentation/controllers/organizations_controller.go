package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/permissions"
	"github.com/iota-uz/orgtree/modules/org/presentation/controllers/dtos"
	"github.com/iota-uz/orgtree/modules/org/presentation/mappers"
	"github.com/iota-uz/orgtree/modules/org/presentation/viewmodels"
	"github.com/iota-uz/orgtree/modules/org/services"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/middleware"
)

// OrganizationsController serves the admin pages. Every page is a view
// model rendered as JSON and carries the caller's organization_labels.
type OrganizationsController struct {
	app      application.Application
	orgs     *services.OrganizationService
	basePath string
}

func NewOrganizationsController(app application.Application) application.Controller {
	return &OrganizationsController{
		app:      app,
		orgs:     app.Service(services.OrganizationService{}).(*services.OrganizationService),
		basePath: "/organizations",
	}
}

func (c *OrganizationsController) Key() string {
	return c.basePath
}

func (c *OrganizationsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.Authorize())

	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/root", c.Roots).Methods(http.MethodGet)
	router.HandleFunc("/{key}", c.Detail).Methods(http.MethodGet)
	router.HandleFunc("/{key}/children", c.Children).Methods(http.MethodGet)
	router.HandleFunc("/{key}/children", c.CreateChild).Methods(http.MethodPost)
	router.HandleFunc("/{key}/edit", c.Edit).Methods(http.MethodPost)
	router.HandleFunc("/{key}/delete", c.Delete).Methods(http.MethodPost)
	router.HandleFunc("/{key}/labels", c.GetLabels).Methods(http.MethodGet)
	router.HandleFunc("/{key}/labels", c.UpdateLabels).Methods(http.MethodPost)
}

func (c *OrganizationsController) List(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationView) {
		return
	}
	params, pagination := findParams(r)
	c.renderList(w, r, params, pagination, nil)
}

func (c *OrganizationsController) Roots(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationView) {
		return
	}
	params, pagination := findParams(r)
	params.RootsOnly = true
	params.ParentID = nil
	c.renderList(w, r, params, pagination, nil)
}

func (c *OrganizationsController) Children(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationView) {
		return
	}
	parent, err := c.orgs.GetByKey(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	params, pagination := findParams(r)
	parentID := parent.ID()
	params.ParentID = &parentID
	params.RootsOnly = false
	c.renderList(w, r, params, pagination, parent)
}

func (c *OrganizationsController) renderList(
	w http.ResponseWriter,
	r *http.Request,
	params *organization.FindParams,
	pagination composables.PaginationParams,
	parent *organization.Organization,
) {
	items, err := c.orgs.ListWithFactionCounts(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := c.orgs.Count(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	canEdit := can(r, permissions.OrganizationChange)
	canDelete := can(r, permissions.OrganizationDelete)
	props := &viewmodels.OrganizationListPage{
		Items:              make([]*viewmodels.OrganizationListItem, 0, len(items)),
		Total:              total,
		Page:               pagination.Page,
		Limit:              pagination.Limit,
		Q:                  params.Search,
		Parent:             mappers.OrganizationToRef(parent),
		CanAdd:             can(r, permissions.OrganizationAdd),
		OrganizationLabels: composables.UseLabels(r.Context()),
	}
	for _, item := range items {
		props.Items = append(props.Items, &viewmodels.OrganizationListItem{
			Organization:  mappers.OrganizationToViewModel(item.Organization),
			TotalFactions: item.TotalFactions,
			CanEdit:       canEdit,
			CanDelete:     canDelete,
		})
	}
	writeJSON(w, http.StatusOK, props)
}

func (c *OrganizationsController) Detail(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationView) {
		return
	}
	ctx := r.Context()
	org, err := c.orgs.GetByKey(ctx, mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := c.orgs.TotalFactionCount(ctx, org.ID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	active, err := c.orgs.ActiveFactionCount(ctx, org.ID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	chain, err := c.orgs.FallbackChain(ctx, org.ID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	children, err := c.orgs.Children(ctx, org.ID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, &viewmodels.OrganizationDetailPage{
		Organization:       mappers.OrganizationToViewModel(org),
		TotalFactions:      total,
		ActiveFactions:     active,
		FallbackChain:      mappers.OrganizationsToRefs(chain),
		Children:           mappers.OrganizationsToRefs(children),
		CanEdit:            can(r, permissions.OrganizationChange),
		CanDelete:          can(r, permissions.OrganizationDelete),
		OrganizationLabels: composables.UseLabels(ctx),
	})
}

func (c *OrganizationsController) Create(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationAdd) {
		return
	}
	c.create(w, r, nil)
}

func (c *OrganizationsController) CreateChild(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationAdd) {
		return
	}
	parent, err := c.orgs.GetByKey(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c.create(w, r, parent)
}

func (c *OrganizationsController) create(w http.ResponseWriter, r *http.Request, parent *organization.Organization) {
	dto, err := composables.UseForm(&dtos.OrganizationDTO{}, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID(w, r), services.CodeInvalidBody, "invalid form body")
		return
	}
	if parent != nil {
		parentID := parent.ID()
		dto.ParentID = &parentID
	}
	if errs, ok := dto.Ok(); !ok {
		c.renderFormErrors(w, r, dto, errs)
		return
	}

	org, err := c.orgs.Create(r.Context(), dto.ToCreateInput(composables.UseUserID(r.Context())))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", c.basePath+"/"+org.Slug().String())
	writeJSON(w, http.StatusCreated, mappers.OrganizationToViewModel(org))
}

func (c *OrganizationsController) Edit(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationChange) {
		return
	}
	org, err := c.orgs.GetByKey(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	dto, err := composables.UseForm(&dtos.OrganizationDTO{}, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID(w, r), services.CodeInvalidBody, "invalid form body")
		return
	}
	if errs, ok := dto.Ok(); !ok {
		c.renderFormErrors(w, r, dto, errs)
		return
	}

	updated, err := c.orgs.Update(r.Context(), org.ID(), dto.ToUpdateInput(composables.UseUserID(r.Context())))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.OrganizationToViewModel(updated))
}

func (c *OrganizationsController) Delete(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationDelete) {
		return
	}
	org, err := c.orgs.GetByKey(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	deleted, err := c.orgs.Delete(r.Context(), org.ID(), composables.UseUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.OrganizationToViewModel(deleted))
}

func (c *OrganizationsController) GetLabels(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationChange) {
		return
	}
	org, err := c.orgs.GetByKey(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	l, err := c.orgs.Labels(r.Context(), org.ID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c.renderLabels(w, r, http.StatusOK, org, l)
}

func (c *OrganizationsController) UpdateLabels(w http.ResponseWriter, r *http.Request) {
	if !ensurePermission(w, r, permissions.OrganizationChange) {
		return
	}
	org, err := c.orgs.GetByKey(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID(w, r), services.CodeInvalidBody, "invalid form body")
		return
	}
	dto := dtos.LabelsFromForm(r.PostForm)
	if errs, ok := dto.Ok(); !ok {
		c.renderFormErrors(w, r, dto, errs)
		return
	}
	l, err := c.orgs.UpdateLabels(r.Context(), org.ID(), dto)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c.renderLabels(w, r, http.StatusOK, org, l)
}

func (c *OrganizationsController) renderLabels(w http.ResponseWriter, r *http.Request, status int, org *organization.Organization, l *labels.Labels) {
	writeJSON(w, status, &viewmodels.LabelsPage{
		Organization:       mappers.OrganizationToRef(org),
		Labels:             l.Values(),
		Defaults:           labels.New(0).Values(),
		CanEdit:            can(r, permissions.OrganizationChange),
		OrganizationLabels: composables.UseLabels(r.Context()),
	})
}

func (c *OrganizationsController) renderFormErrors(w http.ResponseWriter, r *http.Request, form any, errs map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, &viewmodels.FormErrorsPage{
		Form:               form,
		Errors:             errs,
		OrganizationLabels: composables.UseLabels(r.Context()),
	})
}
