package publication

import "context"

type UpdateFields struct {
	Title         string
	InstitutionID uint
	DocumentPath  string
}

type Repository interface {
	Create(ctx context.Context, p *Publication) (uint, error)
	GetByID(ctx context.Context, id uint) (*Publication, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// ExistsActiveByTitle scopes the title to its institution.
	ExistsActiveByTitle(ctx context.Context, institutionID uint, title string) (bool, error)
	Update(ctx context.Context, id uint, fields UpdateFields) error
	SetLocked(ctx context.Context, id uint, locked bool) error
	SetActive(ctx context.Context, id uint, active bool) error
	SoftDelete(ctx context.Context, id uint) error
}
