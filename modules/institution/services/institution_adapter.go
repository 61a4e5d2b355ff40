package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/core/domain/entities/role"
	"github.com/pubdesk/pubdesk/modules/institution/domain/aggregates/institution"
	"github.com/pubdesk/pubdesk/pkg/constants"
)

type InstitutionPayload struct {
	Name              string `json:"name" validate:"required,min=2,max=255"`
	Sector            string `json:"sector" validate:"required,max=255"`
	RCNumber          string `json:"rc_number" validate:"required,max=64"`
	RegisteredAddress string `json:"registered_address,omitempty"`
	Link              string `json:"link,omitempty" validate:"omitempty,url"`
	LogoPath          string `json:"logo,omitempty"`
}

type InstitutionAdapter struct {
	institutions institution.Repository
}

func NewInstitutionAdapter(institutions institution.Repository) *InstitutionAdapter {
	return &InstitutionAdapter{institutions: institutions}
}

func (a *InstitutionAdapter) Kind() changerequest.EntityKind {
	return changerequest.KindInstitution
}

func (a *InstitutionAdapter) AuthorizerRole(changerequest.Action) string {
	return role.SuperAdminAuthoriser
}

func (a *InstitutionAdapter) ValidatePayload(_ context.Context, action changerequest.Action, payload json.RawMessage) error {
	if action != changerequest.ActionInsert && action != changerequest.ActionEdit {
		return nil
	}
	p, err := decodeInstitutionPayload(payload)
	if err != nil {
		return err
	}
	if err := constants.Validate.Struct(p); err != nil {
		return errors.Wrap(changerequest.ErrValidation, err.Error())
	}
	return nil
}

func (a *InstitutionAdapter) NaturalKey(payload json.RawMessage) (string, error) {
	p, err := decodeInstitutionPayload(payload)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(p.RCNumber)), nil
}

func (a *InstitutionAdapter) CreatePending(ctx context.Context, payload json.RawMessage) (uint, error) {
	p, err := decodeInstitutionPayload(payload)
	if err != nil {
		return 0, err
	}
	i := institution.New(
		p.Name,
		p.Sector,
		p.RCNumber,
		institution.WithRegisteredAddress(p.RegisteredAddress),
		institution.WithLink(p.Link),
		institution.WithLogoPath(p.LogoPath),
	)
	return a.institutions.Create(ctx, i)
}

func (a *InstitutionAdapter) SetLocked(ctx context.Context, entityID uint, locked bool) error {
	return a.institutions.SetLocked(ctx, entityID, locked)
}

func (a *InstitutionAdapter) Exists(ctx context.Context, entityID uint) (bool, error) {
	return a.institutions.Exists(ctx, entityID)
}

func (a *InstitutionAdapter) FindActiveByNaturalKey(ctx context.Context, key string) (bool, error) {
	return a.institutions.ExistsActiveByRCNumber(ctx, key)
}

func (a *InstitutionAdapter) ApplyEffect(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	switch req.Action {
	case changerequest.ActionInsert:
		return "", a.institutions.SetActive(ctx, req.EntityID, true)
	case changerequest.ActionEdit:
		p, err := decodeInstitutionPayload(req.Payload)
		if err != nil {
			return "", err
		}
		return "", a.institutions.Update(ctx, req.EntityID, institution.UpdateFields{
			Name:              p.Name,
			Sector:            p.Sector,
			RCNumber:          p.RCNumber,
			RegisteredAddress: p.RegisteredAddress,
			Link:              p.Link,
			LogoPath:          p.LogoPath,
		})
	case changerequest.ActionDelete:
		return "", a.institutions.SoftDelete(ctx, req.EntityID)
	case changerequest.ActionEnable:
		return "", a.institutions.SetActive(ctx, req.EntityID, true)
	case changerequest.ActionDisable:
		return "", a.institutions.SetActive(ctx, req.EntityID, false)
	}
	return "", errors.Wrapf(changerequest.ErrValidation, "unknown action %q", req.Action)
}

func (a *InstitutionAdapter) EntityLabel(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	i, err := a.institutions.GetByID(ctx, req.EntityID)
	if err != nil {
		return "", err
	}
	return i.Name(), nil
}

func decodeInstitutionPayload(payload json.RawMessage) (*InstitutionPayload, error) {
	if len(payload) == 0 {
		return nil, errors.Wrap(changerequest.ErrValidation, "payload is required")
	}
	var p InstitutionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.Wrap(changerequest.ErrValidation, err.Error())
	}
	return &p, nil
}

var _ changerequest.Adapter = (*InstitutionAdapter)(nil)
