package publication

import "time"

// Publication is a governed document record owned by an institution.
type Publication struct {
	id            uint
	title         string
	institutionID uint
	submittedBy   uint
	documentPath  string
	active        bool
	locked        bool
	deletedAt     *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

type Option func(*Publication)

func WithID(id uint) Option {
	return func(p *Publication) {
		p.id = id
	}
}

func WithDocumentPath(path string) Option {
	return func(p *Publication) {
		p.documentPath = path
	}
}

func WithActive(active bool) Option {
	return func(p *Publication) {
		p.active = active
	}
}

func WithLocked(locked bool) Option {
	return func(p *Publication) {
		p.locked = locked
	}
}

func WithDeletedAt(deletedAt *time.Time) Option {
	return func(p *Publication) {
		p.deletedAt = deletedAt
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(p *Publication) {
		p.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(p *Publication) {
		p.updatedAt = updatedAt
	}
}

func New(title string, institutionID, submittedBy uint, opts ...Option) *Publication {
	p := &Publication{
		title:         title,
		institutionID: institutionID,
		submittedBy:   submittedBy,
		active:        false,
		locked:        true,
		createdAt:     time.Now(),
		updatedAt:     time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publication) ID() uint {
	return p.id
}

func (p *Publication) Title() string {
	return p.title
}

func (p *Publication) InstitutionID() uint {
	return p.institutionID
}

func (p *Publication) SubmittedBy() uint {
	return p.submittedBy
}

func (p *Publication) DocumentPath() string {
	return p.documentPath
}

func (p *Publication) Active() bool {
	return p.active
}

func (p *Publication) Locked() bool {
	return p.locked
}

func (p *Publication) DeletedAt() *time.Time {
	return p.deletedAt
}

func (p *Publication) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Publication) UpdatedAt() time.Time {
	return p.updatedAt
}
