package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/orgtree/modules/org/domain/aggregates/organization"
	"github.com/iota-uz/orgtree/modules/org/infrastructure/persistence/models"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/mapping"
	"github.com/iota-uz/orgtree/pkg/repo"
)

const (
	organizationFindQuery = `
		SELECT o.id, o.name, o.abbreviation, o.slug, o.description, o.image,
		       o.parent_id, o.max_depth, o.is_active, o.created_by, o.updated_by,
		       o.created_at, o.updated_at, o.deleted_at
		FROM organizations o`

	organizationCountQuery = `SELECT COUNT(*) FROM organizations o`

	organizationInsertQuery = `
		INSERT INTO organizations (
			name, abbreviation, slug, description, image, parent_id, max_depth,
			is_active, created_by, updated_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	organizationUpdateQuery = `
		UPDATE organizations
		SET name = $1, abbreviation = $2, slug = $3, description = $4, image = $5,
		    parent_id = $6, max_depth = $7, is_active = $8, updated_by = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL`

	organizationSoftDeleteQuery = `
		UPDATE organizations
		SET deleted_at = $2, updated_at = $2, updated_by = COALESCE($3, updated_by)
		WHERE id = $1 AND deleted_at IS NULL`

	organizationChildIDsQuery = `
		SELECT id FROM organizations
		WHERE parent_id = $1
		ORDER BY id`

	factionCountQuery       = `SELECT COUNT(*) FROM factions WHERE organization_id = $1`
	activeFactionCountQuery = `SELECT COUNT(*) FROM factions WHERE organization_id = $1 AND is_active`

	slugExistsQuery = `SELECT EXISTS (SELECT 1 FROM organizations WHERE slug = $1)`

	siblingNameExistsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM organizations
			WHERE name = $1
			  AND parent_id IS NOT DISTINCT FROM $2
			  AND id <> $3
			  AND deleted_at IS NULL
		)`
)

type OrganizationRepository struct {
	fieldMap map[organization.Field]string
}

func NewOrganizationRepository() organization.Repository {
	return &OrganizationRepository{
		fieldMap: map[organization.Field]string{
			organization.FieldName:         "o.name",
			organization.FieldAbbreviation: "o.abbreviation",
			organization.FieldCreatedAt:    "o.created_at",
		},
	}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*organization.Organization, error) {
	return r.getOne(ctx, repo.Join(organizationFindQuery, "WHERE o.id = $1 AND o.deleted_at IS NULL"), id)
}

func (r *OrganizationRepository) GetAnyByID(ctx context.Context, id int64) (*organization.Organization, error) {
	return r.getOne(ctx, repo.Join(organizationFindQuery, "WHERE o.id = $1"), id)
}

func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	return r.getOne(ctx, repo.Join(organizationFindQuery, "WHERE o.slug = $1 AND o.deleted_at IS NULL"), slug)
}

func (r *OrganizationRepository) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	if params == nil {
		params = &organization.FindParams{}
	}
	where, args := r.buildFilters(params)
	orderBy := params.SortBy.ToSQL(r.fieldMap)
	if orderBy == "" {
		orderBy = "ORDER BY o.name ASC"
	}
	query := repo.Join(
		organizationFindQuery,
		"WHERE "+strings.Join(where, " AND "),
		orderBy+", o.id ASC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return r.queryOrganizations(ctx, query, args...)
}

func (r *OrganizationRepository) Count(ctx context.Context, params *organization.FindParams) (int64, error) {
	if params == nil {
		params = &organization.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	where, args := r.buildFilters(params)
	query := repo.Join(organizationCountQuery, "WHERE "+strings.Join(where, " AND "))
	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count organizations")
	}
	return count, nil
}

func (r *OrganizationRepository) ChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, organizationChildIDsQuery, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query child ids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan child ids")
	}
	return ids, nil
}

func (r *OrganizationRepository) FactionCount(ctx context.Context, id int64) (int, error) {
	return r.count(ctx, factionCountQuery, id)
}

func (r *OrganizationRepository) ActiveFactionCount(ctx context.Context, id int64) (int, error) {
	return r.count(ctx, activeFactionCountQuery, id)
}

func (r *OrganizationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, slugExistsQuery, slug)
}

func (r *OrganizationRepository) SiblingNameExists(ctx context.Context, parentID *int64, name string, excludeID int64) (bool, error) {
	return r.exists(ctx, siblingNameExistsQuery, name, mapping.PointerToSQLNullInt64(parentID), excludeID)
}

func (r *OrganizationRepository) Create(ctx context.Context, o *organization.Organization) (*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := ToDBOrganization(o)
	var id int64
	if err := tx.QueryRow(
		ctx,
		organizationInsertQuery,
		m.Name,
		m.Abbreviation,
		m.Slug,
		m.Description,
		m.Image,
		m.ParentID,
		m.MaxDepth,
		m.IsActive,
		m.CreatedBy,
		m.UpdatedBy,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to insert organization")
	}
	return r.GetAnyByID(ctx, id)
}

func (r *OrganizationRepository) Update(ctx context.Context, o *organization.Organization) (*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := ToDBOrganization(o)
	tag, err := tx.Exec(
		ctx,
		organizationUpdateQuery,
		m.Name,
		m.Abbreviation,
		m.Slug,
		m.Description,
		m.Image,
		m.ParentID,
		m.MaxDepth,
		m.IsActive,
		m.UpdatedBy,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update organization %d", m.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, organization.ErrNotFound
	}
	return r.GetAnyByID(ctx, m.ID)
}

func (r *OrganizationRepository) SoftDelete(ctx context.Context, id int64, by *uint, at time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, organizationSoftDeleteQuery, id, at, mapping.UintPointerToSQLNullInt64(by))
	if err != nil {
		return errors.Wrapf(err, "failed to delete organization %d", id)
	}
	if tag.RowsAffected() == 0 {
		return organization.ErrNotFound
	}
	return nil
}

func (r *OrganizationRepository) buildFilters(params *organization.FindParams) ([]string, []any) {
	var p repo.Placeholders
	where := []string{"o.deleted_at IS NULL"}
	if params.ParentID != nil {
		where = append(where, "o.parent_id = "+p.Add(*params.ParentID))
	}
	if params.RootsOnly {
		where = append(where, "o.parent_id IS NULL")
	}
	if params.Active != nil {
		where = append(where, "o.is_active = "+p.Add(*params.Active))
	}
	if q := strings.TrimSpace(params.Search); q != "" {
		ph := p.Add("%" + q + "%")
		where = append(where, "(o.name ILIKE "+ph+" OR o.abbreviation ILIKE "+ph+")")
	}
	if params.HasFactions {
		where = append(where, "EXISTS (SELECT 1 FROM factions f WHERE f.organization_id = o.id)")
	}
	return where, p.Args()
}

func (r *OrganizationRepository) getOne(ctx context.Context, query string, args ...any) (*organization.Organization, error) {
	orgs, err := r.queryOrganizations(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, organization.ErrNotFound
	}
	return orgs[0], nil
}

func (r *OrganizationRepository) queryOrganizations(ctx context.Context, query string, args ...any) ([]*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	orgs := make([]*organization.Organization, 0)
	for rows.Next() {
		var m models.Organization
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Abbreviation,
			&m.Slug,
			&m.Description,
			&m.Image,
			&m.ParentID,
			&m.MaxDepth,
			&m.IsActive,
			&m.CreatedBy,
			&m.UpdatedBy,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.DeletedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan organization row")
		}
		orgs = append(orgs, ToDomainOrganization(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return orgs, nil
}

func (r *OrganizationRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var n int
	if err := tx.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count rows")
	}
	return n, nil
}

func (r *OrganizationRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}
	var ok bool
	if err := tx.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "failed to check existence")
	}
	return ok, nil
}
