package institution

import "context"

type UpdateFields struct {
	Name              string
	Sector            string
	RCNumber          string
	RegisteredAddress string
	Link              string
	LogoPath          string
}

type Repository interface {
	Create(ctx context.Context, i *Institution) (uint, error)
	GetByID(ctx context.Context, id uint) (*Institution, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// ExistsActiveByRCNumber considers only non-deleted active rows.
	ExistsActiveByRCNumber(ctx context.Context, rcNumber string) (bool, error)
	Update(ctx context.Context, id uint, fields UpdateFields) error
	SetLocked(ctx context.Context, id uint, locked bool) error
	SetActive(ctx context.Context, id uint, active bool) error
	SoftDelete(ctx context.Context, id uint) error
}
