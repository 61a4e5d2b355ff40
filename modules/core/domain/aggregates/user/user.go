package user

import (
	"time"
)

// User is a governed account. Rows created through the approval flow start
// locked and inactive; activation happens when the insert request is
// approved.
type User struct {
	id            uint
	name          string
	email         string
	institutionID *uint
	passwordHash  *string
	active        bool
	locked        bool
	deletedAt     *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

type Option func(*User)

func WithID(id uint) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithInstitutionID(id *uint) Option {
	return func(u *User) {
		u.institutionID = id
	}
}

func WithPasswordHash(hash *string) Option {
	return func(u *User) {
		u.passwordHash = hash
	}
}

func WithActive(active bool) Option {
	return func(u *User) {
		u.active = active
	}
}

func WithLocked(locked bool) Option {
	return func(u *User) {
		u.locked = locked
	}
}

func WithDeletedAt(deletedAt *time.Time) Option {
	return func(u *User) {
		u.deletedAt = deletedAt
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *User) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *User) {
		u.updatedAt = updatedAt
	}
}

func New(name, email string, opts ...Option) *User {
	u := &User{
		name:      name,
		email:     email,
		active:    false,
		locked:    true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *User) ID() uint {
	return u.id
}

func (u *User) Name() string {
	return u.name
}

func (u *User) Email() string {
	return u.email
}

func (u *User) InstitutionID() *uint {
	return u.institutionID
}

func (u *User) PasswordHash() *string {
	return u.passwordHash
}

func (u *User) Active() bool {
	return u.active
}

func (u *User) Locked() bool {
	return u.locked
}

func (u *User) DeletedAt() *time.Time {
	return u.deletedAt
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}
