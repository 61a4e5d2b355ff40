package institution

import "time"

// Institution is a governed organization record. The registration number
// (rc number) is its natural key.
type Institution struct {
	id                uint
	name              string
	sector            string
	rcNumber          string
	registeredAddress string
	link              string
	logoPath          string
	active            bool
	locked            bool
	deletedAt         *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

type Option func(*Institution)

func WithID(id uint) Option {
	return func(i *Institution) {
		i.id = id
	}
}

func WithRegisteredAddress(addr string) Option {
	return func(i *Institution) {
		i.registeredAddress = addr
	}
}

func WithLink(link string) Option {
	return func(i *Institution) {
		i.link = link
	}
}

func WithLogoPath(path string) Option {
	return func(i *Institution) {
		i.logoPath = path
	}
}

func WithActive(active bool) Option {
	return func(i *Institution) {
		i.active = active
	}
}

func WithLocked(locked bool) Option {
	return func(i *Institution) {
		i.locked = locked
	}
}

func WithDeletedAt(deletedAt *time.Time) Option {
	return func(i *Institution) {
		i.deletedAt = deletedAt
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(i *Institution) {
		i.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(i *Institution) {
		i.updatedAt = updatedAt
	}
}

func New(name, sector, rcNumber string, opts ...Option) *Institution {
	i := &Institution{
		name:      name,
		sector:    sector,
		rcNumber:  rcNumber,
		active:    false,
		locked:    true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Institution) ID() uint {
	return i.id
}

func (i *Institution) Name() string {
	return i.name
}

func (i *Institution) Sector() string {
	return i.sector
}

func (i *Institution) RCNumber() string {
	return i.rcNumber
}

func (i *Institution) RegisteredAddress() string {
	return i.registeredAddress
}

func (i *Institution) Link() string {
	return i.link
}

func (i *Institution) LogoPath() string {
	return i.logoPath
}

func (i *Institution) Active() bool {
	return i.active
}

func (i *Institution) Locked() bool {
	return i.locked
}

func (i *Institution) DeletedAt() *time.Time {
	return i.deletedAt
}

func (i *Institution) CreatedAt() time.Time {
	return i.createdAt
}

func (i *Institution) UpdatedAt() time.Time {
	return i.updatedAt
}
