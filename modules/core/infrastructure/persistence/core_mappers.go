package persistence

import (
	"time"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/modules/core/infrastructure/persistence/models"
	"github.com/iota-uz/orgtree/pkg/mapping"
)

func ToDomainUser(dbUser *models.User, permissions []string) user.User {
	return user.New(
		dbUser.Email,
		user.WithID(dbUser.ID),
		user.WithName(dbUser.FirstName, dbUser.LastName),
		user.WithProfile(user.ResolveProfile(
			mapping.SQLNullInt64ToPointer(dbUser.AttendeeOrgID),
			mapping.SQLNullInt64ToPointer(dbUser.LeaderOrgID),
			mapping.SQLNullInt64ToPointer(dbUser.FacultyOrgID),
		)),
		user.WithPermissions(permissions...),
		user.WithCreatedAt(dbUser.CreatedAt),
	)
}

func ToDBUser(u user.User) *models.User {
	return &models.User{
		ID:        u.ID(),
		Email:     u.Email(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: time.Now(),
	}
}
