package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/core/domain/entities/role"
	"github.com/pubdesk/pubdesk/modules/publication/domain/aggregates/publication"
	"github.com/pubdesk/pubdesk/pkg/constants"
)

type PublicationPayload struct {
	Title         string `json:"title" validate:"required,min=2,max=512"`
	InstitutionID uint   `json:"institution_id" validate:"required"`
	UserID        uint   `json:"user_id" validate:"required"`
	DocumentPath  string `json:"publication_doc,omitempty"`
}

type PublicationAdapter struct {
	publications publication.Repository
}

func NewPublicationAdapter(publications publication.Repository) *PublicationAdapter {
	return &PublicationAdapter{publications: publications}
}

func (a *PublicationAdapter) Kind() changerequest.EntityKind {
	return changerequest.KindPublication
}

func (a *PublicationAdapter) AuthorizerRole(changerequest.Action) string {
	return role.InstitutionAuthoriser
}

func (a *PublicationAdapter) ValidatePayload(_ context.Context, action changerequest.Action, payload json.RawMessage) error {
	if action != changerequest.ActionInsert && action != changerequest.ActionEdit {
		return nil
	}
	p, err := decodePublicationPayload(payload)
	if err != nil {
		return err
	}
	if err := constants.Validate.Struct(p); err != nil {
		return errors.Wrap(changerequest.ErrValidation, err.Error())
	}
	return nil
}

// NaturalKey scopes the title to its institution so the same title may
// exist under different institutions.
func (a *PublicationAdapter) NaturalKey(payload json.RawMessage) (string, error) {
	p, err := decodePublicationPayload(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%s", p.InstitutionID, strings.ToLower(strings.TrimSpace(p.Title))), nil
}

func (a *PublicationAdapter) CreatePending(ctx context.Context, payload json.RawMessage) (uint, error) {
	p, err := decodePublicationPayload(payload)
	if err != nil {
		return 0, err
	}
	pub := publication.New(p.Title, p.InstitutionID, p.UserID, publication.WithDocumentPath(p.DocumentPath))
	return a.publications.Create(ctx, pub)
}

func (a *PublicationAdapter) SetLocked(ctx context.Context, entityID uint, locked bool) error {
	return a.publications.SetLocked(ctx, entityID, locked)
}

func (a *PublicationAdapter) Exists(ctx context.Context, entityID uint) (bool, error) {
	return a.publications.Exists(ctx, entityID)
}

func (a *PublicationAdapter) FindActiveByNaturalKey(ctx context.Context, key string) (bool, error) {
	institutionID, title, ok := splitNaturalKey(key)
	if !ok {
		return false, errors.Wrapf(changerequest.ErrValidation, "malformed natural key %q", key)
	}
	return a.publications.ExistsActiveByTitle(ctx, institutionID, title)
}

func (a *PublicationAdapter) ApplyEffect(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	switch req.Action {
	case changerequest.ActionInsert:
		return "", a.publications.SetActive(ctx, req.EntityID, true)
	case changerequest.ActionEdit:
		p, err := decodePublicationPayload(req.Payload)
		if err != nil {
			return "", err
		}
		return "", a.publications.Update(ctx, req.EntityID, publication.UpdateFields{
			Title:         p.Title,
			InstitutionID: p.InstitutionID,
			DocumentPath:  p.DocumentPath,
		})
	case changerequest.ActionDelete:
		return "", a.publications.SoftDelete(ctx, req.EntityID)
	case changerequest.ActionEnable:
		return "", a.publications.SetActive(ctx, req.EntityID, true)
	case changerequest.ActionDisable:
		return "", a.publications.SetActive(ctx, req.EntityID, false)
	}
	return "", errors.Wrapf(changerequest.ErrValidation, "unknown action %q", req.Action)
}

func (a *PublicationAdapter) EntityLabel(ctx context.Context, req *changerequest.ChangeRequest) (string, error) {
	p, err := a.publications.GetByID(ctx, req.EntityID)
	if err != nil {
		return "", err
	}
	return p.Title(), nil
}

func decodePublicationPayload(payload json.RawMessage) (*PublicationPayload, error) {
	if len(payload) == 0 {
		return nil, errors.Wrap(changerequest.ErrValidation, "payload is required")
	}
	var p PublicationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.Wrap(changerequest.ErrValidation, err.Error())
	}
	return &p, nil
}

func splitNaturalKey(key string) (institutionID uint, title string, ok bool) {
	idx := strings.IndexByte(key, ':')
	if idx <= 0 || idx == len(key)-1 {
		return 0, "", false
	}
	var id uint64
	if _, err := fmt.Sscanf(key[:idx], "%d", &id); err != nil {
		return 0, "", false
	}
	return uint(id), key[idx+1:], true
}

var _ changerequest.Adapter = (*PublicationAdapter)(nil)
