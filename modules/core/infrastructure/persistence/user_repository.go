package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/repo"
)

const (
	userFindQuery = `
		SELECT
			u.id,
			u.email,
			u.first_name,
			u.last_name,
			u.created_at,
			u.updated_at,
			ap.organization_id,
			lp.organization_id,
			fp.organization_id
		FROM users u
		LEFT JOIN attendee_profiles ap ON ap.user_id = u.id
		LEFT JOIN leader_profiles lp ON lp.user_id = u.id
		LEFT JOIN faculty_profiles fp ON fp.user_id = u.id`

	userInsertQuery = `
		INSERT INTO users (email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	userPermissionsQuery       = `SELECT permission FROM user_permissions WHERE user_id = $1 ORDER BY permission`
	userPermissionDeleteQuery  = `DELETE FROM user_permissions WHERE user_id = $1`
	userPermissionInsertQuery  = `INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	userUniqueEmailConstraint  = "users_email_key"
	pgUniqueViolationErrorCode = "23505"
)

// Profile rows live next to the organizations they point at.
var profileTables = map[user.ProfileKind]string{
	user.ProfileAttendee: "attendee_profiles",
	user.ProfileLeader:   "leader_profiles",
	user.ProfileFaculty:  "faculty_profiles",
}

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uint) (user.User, error) {
	return g.getOne(ctx, repo.Join(userFindQuery, "WHERE u.id = $1"), id)
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return g.getOne(ctx, repo.Join(userFindQuery, "WHERE lower(u.email) = lower($1)"), email)
}

func (g *PgUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := ToDBUser(data)
	if err := tx.QueryRow(
		ctx,
		userInsertQuery,
		m.Email,
		m.FirstName,
		m.LastName,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&m.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationErrorCode && pgErr.ConstraintName == userUniqueEmailConstraint {
			return nil, user.ErrEmailTaken
		}
		return nil, errors.Wrap(err, "failed to insert user")
	}

	profile := data.Profile()
	if orgID, ok := profile.OrganizationID(); ok {
		query := "INSERT INTO " + profileTables[profile.Kind()] + " (user_id, organization_id) VALUES ($1, $2)"
		if _, err := tx.Exec(ctx, query, m.ID, orgID); err != nil {
			return nil, errors.Wrapf(err, "failed to insert %s profile", profile.Kind())
		}
	}
	if err := g.SetPermissions(ctx, m.ID, data.Permissions()); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, m.ID)
}

// SetPermissions replaces every permission the user holds.
func (g *PgUserRepository) SetPermissions(ctx context.Context, id uint, names []string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, userPermissionDeleteQuery, id); err != nil {
		return errors.Wrapf(err, "failed to clear permissions of user %d", id)
	}
	for _, name := range names {
		if _, err := tx.Exec(ctx, userPermissionInsertQuery, id, name); err != nil {
			return errors.Wrapf(err, "failed to grant %s to user %d", name, id)
		}
	}
	return nil
}

func (g *PgUserRepository) getOne(ctx context.Context, query string, args ...any) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	var m models.User
	if err := tx.QueryRow(ctx, query, args...).Scan(
		&m.ID,
		&m.Email,
		&m.FirstName,
		&m.LastName,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.AttendeeOrgID,
		&m.LeaderOrgID,
		&m.FacultyOrgID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to scan user")
	}

	permissions, err := g.userPermissions(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return ToDomainUser(&m, permissions), nil
}

func (g *PgUserRepository) userPermissions(ctx context.Context, id uint) ([]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, userPermissionsQuery, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query permissions of user %d", id)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan permissions of user %d", id)
	}
	return names, nil
}
