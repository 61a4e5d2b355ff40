package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/eventbus"
	"github.com/pubdesk/pubdesk/pkg/mailer"
	"github.com/pubdesk/pubdesk/pkg/outbox"
)

const notificationTopic = "notification.send"

type ApprovalService struct {
	repo      changerequest.Repository
	adapters  map[changerequest.EntityKind]changerequest.Adapter
	directory changerequest.ActorDirectory
	notifier  mailer.Notifier
	queue     outbox.Publisher
	publisher eventbus.EventBus
}

func NewApprovalService(
	repo changerequest.Repository,
	directory changerequest.ActorDirectory,
	notifier mailer.Notifier,
	queue outbox.Publisher,
	publisher eventbus.EventBus,
	adapters ...changerequest.Adapter,
) *ApprovalService {
	byKind := make(map[changerequest.EntityKind]changerequest.Adapter, len(adapters))
	for _, a := range adapters {
		byKind[a.Kind()] = a
	}
	return &ApprovalService{
		repo:      repo,
		adapters:  byKind,
		directory: directory,
		notifier:  notifier,
		queue:     queue,
		publisher: publisher,
	}
}

type SubmitParams struct {
	Kind         changerequest.EntityKind
	Action       changerequest.Action
	EntityID     uint
	Payload      json.RawMessage
	InputterID   uint
	AuthorizerID uint
}

type SubmitResult struct {
	RequestID        uuid.UUID
	EntityID         uint
	NotificationSent bool

	// Warning carries NOTIFICATION_FAILURE when the request committed but
	// the synchronous notification attempt did not go out.
	Warning error
}

type DecideParams struct {
	RequestID       uuid.UUID
	Decision        changerequest.Status
	ActorID         uint
	RejectionReason string
}

type DecideResult struct {
	Request          *changerequest.ChangeRequest
	NotificationSent bool
	Warning          error
}

// Submit validates a proposed change, locks the target entity and records
// a pending request, all in one transaction. The authorizer notification
// goes out after commit; its failure degrades the result but never rolls
// back the committed state.
func (s *ApprovalService) Submit(ctx context.Context, params SubmitParams) (*SubmitResult, error) {
	adapter, ok := s.adapters[params.Kind]
	if !ok {
		return nil, errors.Wrapf(changerequest.ErrValidation, "unknown entity kind %q", params.Kind)
	}
	if !changerequest.ValidAction(params.Action) {
		return nil, errors.Wrapf(changerequest.ErrValidation, "unknown action %q", params.Action)
	}
	if err := adapter.ValidatePayload(ctx, params.Action, params.Payload); err != nil {
		return nil, err
	}

	if params.InputterID == params.AuthorizerID {
		return nil, changerequest.ErrInvalidActor
	}
	if _, err := s.directory.FindActive(ctx, params.InputterID); err != nil {
		return nil, changerequest.ErrInvalidActor
	}

	authorizer, err := s.directory.FindActive(ctx, params.AuthorizerID)
	if err != nil {
		return nil, changerequest.ErrUnauthorizedApprover
	}
	hasRole, err := s.directory.HasRole(ctx, params.AuthorizerID, adapter.AuthorizerRole(params.Action))
	if err != nil {
		return nil, errors.Wrap(err, "failed to check authorizer role")
	}
	if !hasRole {
		return nil, changerequest.ErrUnauthorizedApprover
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*changerequest.ChangeRequest, error) {
		if params.Action == changerequest.ActionInsert {
			return s.submitInsert(txCtx, adapter, params)
		}
		return s.submitExisting(txCtx, adapter, params)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&changerequest.SubmittedEvent{
		Request:   *created,
		Timestamp: time.Now(),
	})

	sent := s.notifyAuthorizer(ctx, adapter, created, authorizer)

	result := &SubmitResult{
		RequestID:        created.ID,
		EntityID:         created.EntityID,
		NotificationSent: sent,
	}
	if !sent {
		result.Warning = changerequest.ErrNotificationFailure
	}
	return result, nil
}

func (s *ApprovalService) submitInsert(
	ctx context.Context,
	adapter changerequest.Adapter,
	params SubmitParams,
) (*changerequest.ChangeRequest, error) {
	key, err := adapter.NaturalKey(params.Payload)
	if err != nil {
		return nil, errors.Wrap(changerequest.ErrValidation, err.Error())
	}

	taken, err := adapter.FindActiveByNaturalKey(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check natural key")
	}
	if taken {
		return nil, changerequest.ErrDuplicateEntity
	}

	pending, err := s.repo.ExistsPendingForNaturalKey(ctx, params.Kind, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check pending requests")
	}
	if pending {
		return nil, changerequest.ErrDuplicateRequest
	}

	entityID, err := adapter.CreatePending(ctx, params.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pending entity")
	}

	return s.repo.Create(ctx, &changerequest.ChangeRequest{
		ID:           uuid.New(),
		EntityKind:   params.Kind,
		EntityID:     entityID,
		Action:       params.Action,
		Payload:      params.Payload,
		NaturalKey:   key,
		InputterID:   params.InputterID,
		AuthorizerID: params.AuthorizerID,
		Status:       changerequest.StatusPending,
	})
}

func (s *ApprovalService) submitExisting(
	ctx context.Context,
	adapter changerequest.Adapter,
	params SubmitParams,
) (*changerequest.ChangeRequest, error) {
	exists, err := adapter.Exists(ctx, params.EntityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check entity existence")
	}
	if !exists {
		return nil, changerequest.ErrEntityNotFound
	}

	pending, err := s.repo.ExistsPendingForEntity(ctx, params.Kind, params.EntityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check pending requests")
	}
	if pending {
		return nil, changerequest.ErrRequestAlreadyPending
	}

	// Lock only after every precondition passed.
	if err := adapter.SetLocked(ctx, params.EntityID, true); err != nil {
		return nil, errors.Wrap(err, "failed to lock entity")
	}

	return s.repo.Create(ctx, &changerequest.ChangeRequest{
		ID:           uuid.New(),
		EntityKind:   params.Kind,
		EntityID:     params.EntityID,
		Action:       params.Action,
		Payload:      params.Payload,
		InputterID:   params.InputterID,
		AuthorizerID: params.AuthorizerID,
		Status:       changerequest.StatusPending,
	})
}

// Decide moves a pending request to its terminal status exactly once. The
// status transition is a conditional update; of two concurrent decisions
// only one consumes the pending row, the other observes
// REQUEST_NOT_FOUND_OR_DECIDED.
func (s *ApprovalService) Decide(ctx context.Context, params DecideParams) (*DecideResult, error) {
	if params.Decision != changerequest.StatusApproved && params.Decision != changerequest.StatusRejected {
		return nil, errors.Wrapf(changerequest.ErrValidation, "unknown decision %q", params.Decision)
	}

	var reason *string
	if params.Decision == changerequest.StatusRejected {
		trimmed := strings.TrimSpace(params.RejectionReason)
		if trimmed == "" {
			return nil, changerequest.ErrMissingRejectionReason
		}
		reason = &trimmed
	}

	type decided struct {
		req  *changerequest.ChangeRequest
		note string
	}

	out, err := composables.InTxResult(ctx, func(txCtx context.Context) (decided, error) {
		req, err := s.repo.GetPendingByID(txCtx, params.RequestID)
		if err != nil {
			return decided{}, err
		}
		if req == nil || req.AuthorizerID != params.ActorID {
			return decided{}, changerequest.ErrRequestNotFoundOrDecided
		}

		adapter, ok := s.adapters[req.EntityKind]
		if !ok {
			return decided{}, errors.Wrapf(changerequest.ErrValidation, "unknown entity kind %q", req.EntityKind)
		}

		ok, err = s.repo.TransitionIfPending(txCtx, req.ID, params.Decision, params.ActorID, reason)
		if err != nil {
			return decided{}, errors.Wrap(err, "failed to transition request")
		}
		if !ok {
			return decided{}, changerequest.ErrRequestNotFoundOrDecided
		}

		now := time.Now()
		req.Status = params.Decision
		req.DecidedBy = &params.ActorID
		req.DecidedAt = &now
		req.RejectionReason = reason

		var note string
		if params.Decision == changerequest.StatusApproved {
			note, err = adapter.ApplyEffect(txCtx, req)
			if err != nil {
				return decided{}, errors.Wrap(err, "failed to apply approved change")
			}
		}

		// Both outcomes release the entity.
		if err := adapter.SetLocked(txCtx, req.EntityID, false); err != nil {
			return decided{}, errors.Wrap(err, "failed to unlock entity")
		}

		return decided{req: req, note: note}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&changerequest.DecidedEvent{
		Request:   *out.req,
		Decision:  params.Decision,
		DecidedBy: params.ActorID,
		Timestamp: time.Now(),
	})

	sent := s.notifyInputter(ctx, out.req, out.note)

	result := &DecideResult{Request: out.req, NotificationSent: sent}
	if !sent {
		result.Warning = changerequest.ErrNotificationFailure
	}
	return result, nil
}

func (s *ApprovalService) notifyAuthorizer(
	ctx context.Context,
	adapter changerequest.Adapter,
	req *changerequest.ChangeRequest,
	authorizer *changerequest.Actor,
) bool {
	label, err := adapter.EntityLabel(ctx, req)
	if err != nil {
		label = fmt.Sprintf("%s #%d", req.EntityKind, req.EntityID)
	}

	subject := "Approval required"
	body := fmt.Sprintf(
		"A %s request for %s %q awaits your decision. Request id: %s.",
		req.Action, req.EntityKind, label, req.ID,
	)
	return s.deliver(ctx, authorizer.Email, subject, body)
}

func (s *ApprovalService) notifyInputter(ctx context.Context, req *changerequest.ChangeRequest, note string) bool {
	inputter, err := s.directory.FindActive(ctx, req.InputterID)
	if err != nil {
		composables.UseLogger(ctx).
			WithError(err).
			WithField("request_id", req.ID).
			Warn("approval: inputter lookup for notification failed")
		return false
	}

	adapter := s.adapters[req.EntityKind]
	label, err := adapter.EntityLabel(ctx, req)
	if err != nil {
		label = fmt.Sprintf("%s #%d", req.EntityKind, req.EntityID)
	}

	var subject, body string
	if req.Status == changerequest.StatusApproved {
		subject = "Request approved"
		body = fmt.Sprintf("Your %s request for %s %q was approved.", req.Action, req.EntityKind, label)
		if note != "" {
			body += " " + note
		}
	} else {
		subject = "Request rejected"
		body = fmt.Sprintf(
			"Your %s request for %s %q was rejected. Reason: %s",
			req.Action, req.EntityKind, label, *req.RejectionReason,
		)
	}
	return s.deliver(ctx, inputter.Email, subject, body)
}

// deliver attempts synchronous delivery and falls back to the outbox so
// the relay retries it. Reports whether the synchronous attempt succeeded.
func (s *ApprovalService) deliver(ctx context.Context, to, subject, body string) bool {
	err := s.notifier.Notify(ctx, to, subject, body)
	if err == nil {
		return true
	}

	logger := composables.UseLogger(ctx).WithError(err).WithField("recipient", to)
	logger.Warn("approval: notification delivery failed, queueing for retry")

	payload, mErr := json.Marshal(mailer.Envelope{To: to, Subject: subject, Body: body})
	if mErr != nil {
		logger.WithError(mErr).Error("approval: failed to encode notification envelope")
		return false
	}

	tx, tErr := composables.UseTx(ctx)
	if tErr != nil {
		logger.WithError(tErr).Error("approval: no connection available to queue notification")
		return false
	}
	if _, qErr := s.queue.Enqueue(ctx, tx, outbox.Message{
		Topic:   notificationTopic,
		EventID: uuid.New(),
		Payload: payload,
	}); qErr != nil {
		logger.WithError(qErr).Error("approval: failed to queue notification for retry")
	}
	return false
}
