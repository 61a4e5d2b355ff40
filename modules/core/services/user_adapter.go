package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/core/domain/aggregates/user"
	"github.com/pubdesk/pubdesk/modules/core/domain/entities/role"
	"github.com/pubdesk/pubdesk/pkg/constants"
)

// UserPayload is the proposed field snapshot carried by user change
// requests.
type UserPayload struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	Email         string `json:"email" validate:"required,email"`
	InstitutionID *uint  `json:"institution_id,omitempty"`
}

// UserAdapter bridges the user store to the approval workflow engine.
type UserAdapter struct {
	users user.Repository
}

func NewUserAdapter(users user.Repository) *UserAdapter {
	return &UserAdapter{users: users}
}

func (a *UserAdapter) Kind() changerequest.EntityKind {
	return changerequest.KindUser
}

func (a *UserAdapter) AuthorizerRole(changerequest.Action) string {
	return role.SuperAdminAuthoriser
}

func (a *UserAdapter) ValidatePayload(_ context.Context, action changerequest.Action, payload json.RawMessage) error {
	if action != changerequest.ActionInsert && action != changerequest.ActionEdit {
		return nil
	}
	p, err := decodeUserPayload(payload)
	if err != nil {
		return err
	}
	if err := constants.Validate.Struct(p); err != nil {
		return errors.Wrap(changerequest.ErrValidation, err.Error())
	}
	return nil
}

func (a *UserAdapter) NaturalKey(payload json.RawMessage) (string, error) {
	p, err := decodeUserPayload(payload)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(p.Email)), nil
}

func (a *UserAdapter) CreatePending(ctx context.Context, payload json.RawMessage) (uint, error) {
	p, err := decodeUserPayload(payload)
	if err != nil {
		return 0, err
	}
	u := user.New(p.Name, p.Email, user.WithInstitutionID(p.InstitutionID))
	return a.users.Create(ctx, u)
}

func (a *UserAdapter) SetLocked(ctx context.Context, entityID uint, locked bool) error {
	return a.users.SetLocked(ctx, entityID, locked)
}

func (a *UserAdapter) Exists(ctx context.Context, entityID uint) (bool, error) {
	return a.users.Exists(ctx, entityID)
}

func (a *UserAdapter) FindActiveByNaturalKey(ctx context.Context, key string) (bool, error) {
	return a.users.ExistsActiveByEmail(ctx, key)
}

func (a *UserAdapter) ApplyEffect(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	switch req.Action {
	case changerequest.ActionInsert:
		return a.applyInsert(ctx, req)
	case changerequest.ActionEdit:
		p, err := decodeUserPayload(req.Payload)
		if err != nil {
			return "", err
		}
		return "", a.users.Update(ctx, req.EntityID, user.UpdateFields{
			Name:          p.Name,
			Email:         p.Email,
			InstitutionID: p.InstitutionID,
		})
	case changerequest.ActionDelete:
		return "", a.users.SoftDelete(ctx, req.EntityID)
	case changerequest.ActionEnable:
		return "", a.users.SetActive(ctx, req.EntityID, true)
	case changerequest.ActionDisable:
		return "", a.users.SetActive(ctx, req.EntityID, false)
	}
	return "", errors.Wrapf(changerequest.ErrValidation, "unknown action %q", req.Action)
}

// applyInsert activates the account and materializes its one-time
// credential. The plaintext is never stored; it travels only in the
// returned note.
func (a *UserAdapter) applyInsert(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	plaintext, hash, err := generateTempPassword()
	if err != nil {
		return "", err
	}
	if err := a.users.SetPasswordHash(ctx, req.EntityID, hash); err != nil {
		return "", err
	}
	if err := a.users.SetActive(ctx, req.EntityID, true); err != nil {
		return "", err
	}
	return fmt.Sprintf("Temporary password for the new account: %s", plaintext), nil
}

func (a *UserAdapter) EntityLabel(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	u, err := a.users.GetByID(ctx, req.EntityID)
	if err != nil {
		return "", err
	}
	return u.Email(), nil
}

func decodeUserPayload(payload json.RawMessage) (*UserPayload, error) {
	if len(payload) == 0 {
		return nil, errors.Wrap(changerequest.ErrValidation, "payload is required")
	}
	var p UserPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.Wrap(changerequest.ErrValidation, err.Error())
	}
	return &p, nil
}

var _ changerequest.Adapter = (*UserAdapter)(nil)
