package changerequest

import "github.com/pubdesk/pubdesk/pkg/serrors"

var (
	ErrValidation = serrors.NewError(
		"VALIDATION_ERROR", "payload failed validation", "Approval.Errors.Validation",
	)
	ErrInvalidActor = serrors.NewError(
		"INVALID_ACTOR", "inputter and authorizer must be distinct users", "Approval.Errors.InvalidActor",
	)
	ErrUnauthorizedApprover = serrors.NewError(
		"UNAUTHORIZED_APPROVER", "designated authorizer lacks the required role", "Approval.Errors.UnauthorizedApprover",
	)
	ErrEntityNotFound = serrors.NewError(
		"ENTITY_NOT_FOUND", "target entity does not exist", "Approval.Errors.EntityNotFound",
	)
	ErrDuplicateEntity = serrors.NewError(
		"DUPLICATE_ENTITY", "an active entity with the same natural key already exists", "Approval.Errors.DuplicateEntity",
	)
	ErrDuplicateRequest = serrors.NewError(
		"DUPLICATE_REQUEST", "a pending request with the same natural key already exists", "Approval.Errors.DuplicateRequest",
	)
	ErrRequestAlreadyPending = serrors.NewError(
		"REQUEST_ALREADY_PENDING", "entity already has a pending request", "Approval.Errors.RequestAlreadyPending",
	)
	ErrRequestNotFoundOrDecided = serrors.NewError(
		"REQUEST_NOT_FOUND_OR_DECIDED", "request does not exist, is not pending, or belongs to another authorizer", "Approval.Errors.RequestNotFoundOrDecided",
	)
	ErrMissingRejectionReason = serrors.NewError(
		"MISSING_REJECTION_REASON", "rejection requires a reason", "Approval.Errors.MissingRejectionReason",
	)
	ErrNotificationFailure = serrors.NewError(
		"NOTIFICATION_FAILURE", "state change committed but notification delivery failed", "Approval.Errors.NotificationFailure",
	)
)
