package services

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/core/domain/aggregates/user"
	"github.com/pubdesk/pubdesk/modules/core/domain/entities/role"
	"github.com/pubdesk/pubdesk/modules/core/infrastructure/persistence"
)

var ErrActorInactive = errors.New("actor is not active")

// ActorDirectory resolves engine actors against the user store.
type ActorDirectory struct {
	users user.Repository
	roles role.Repository
}

func NewActorDirectory(users user.Repository, roles role.Repository) *ActorDirectory {
	return &ActorDirectory{users: users, roles: roles}
}

func (d *ActorDirectory) FindActive(ctx context.Context, id uint) (*changerequest.Actor, error) {
	u, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to resolve actor")
	}
	if !u.Active() {
		return nil, ErrActorInactive
	}
	return &changerequest.Actor{
		ID:    u.ID(),
		Name:  u.Name(),
		Email: u.Email(),
	}, nil
}

func (d *ActorDirectory) HasRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	return d.roles.HasRole(ctx, userID, roleName)
}

var _ changerequest.ActorDirectory = (*ActorDirectory)(nil)
