package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgtree/modules/core/domain/aggregates/user"
	"github.com/iota-uz/orgtree/pkg/composables"
)

var ErrInvalidEmail = errors.New("email is required")

type UserService struct {
	repo user.Repository
}

func NewUserService(repo user.Repository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, strings.TrimSpace(email))
}

// Create stores u together with its profile and permissions in one
// transaction.
func (s *UserService) Create(ctx context.Context, u user.User) (user.User, error) {
	if strings.TrimSpace(u.Email()) == "" {
		return nil, ErrInvalidEmail
	}
	var created user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GrantPermissions replaces the permissions held by the user.
func (s *UserService) GrantPermissions(ctx context.Context, id uint, names []string) (user.User, error) {
	var updated user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}
		if err := s.repo.SetPermissions(txCtx, id, dedupe(names)); err != nil {
			return err
		}
		var err error
		updated, err = s.repo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
