package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iota-uz/orgtree/modules/core/domain/entities/permission"
)

var ErrNotFound = errors.New("user not found")

var ErrEmailTaken = errors.New("email already registered")

type Repository interface {
	GetByID(ctx context.Context, id uint) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	SetPermissions(ctx context.Context, id uint, names []string) error
}

type User interface {
	ID() uint
	Email() string
	FirstName() string
	LastName() string
	FullName() string
	Profile() Profile
	Permissions() []string
	Can(perm *permission.Permission) bool
	CreatedAt() time.Time
}

type Option func(u *user)

func WithID(id uint) Option {
	return func(u *user) {
		u.id = id
	}
}

func WithName(first, last string) Option {
	return func(u *user) {
		u.firstName = first
		u.lastName = last
	}
}

func WithProfile(p Profile) Option {
	return func(u *user) {
		u.profile = p
	}
}

func WithPermissions(names ...string) Option {
	return func(u *user) {
		u.permissions = append(u.permissions, names...)
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(u *user) {
		u.createdAt = t
	}
}

func New(email string, opts ...Option) User {
	u := &user{
		email:     email,
		profile:   NoProfile(),
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type user struct {
	id          uint
	email       string
	firstName   string
	lastName    string
	profile     Profile
	permissions []string
	createdAt   time.Time
}

func (u *user) ID() uint {
	return u.id
}

func (u *user) Email() string {
	return u.email
}

func (u *user) FirstName() string {
	return u.firstName
}

func (u *user) LastName() string {
	return u.lastName
}

func (u *user) FullName() string {
	return strings.TrimSpace(u.firstName + " " + u.lastName)
}

func (u *user) Profile() Profile {
	return u.profile
}

func (u *user) Permissions() []string {
	out := make([]string, len(u.permissions))
	copy(out, u.permissions)
	return out
}

func (u *user) Can(perm *permission.Permission) bool {
	if perm == nil {
		return false
	}
	for _, name := range u.permissions {
		if name == perm.Name {
			return true
		}
	}
	return false
}

func (u *user) CreatedAt() time.Time {
	return u.createdAt
}
