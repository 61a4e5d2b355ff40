package user

import "context"

// UpdateFields is the editable snapshot applied on an approved edit.
type UpdateFields struct {
	Name          string
	Email         string
	InstitutionID *uint
}

type Repository interface {
	Create(ctx context.Context, u *User) (uint, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ExistsActiveByEmail considers only non-deleted active users.
	ExistsActiveByEmail(ctx context.Context, email string) (bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, id uint, fields UpdateFields) error
	SetLocked(ctx context.Context, id uint, locked bool) error
	SetActive(ctx context.Context, id uint, active bool) error
	SetPasswordHash(ctx context.Context, id uint, hash string) error
	SoftDelete(ctx context.Context, id uint) error
}
