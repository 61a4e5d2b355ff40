package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/audit/domain/entities/decisionlog"
	"github.com/pubdesk/pubdesk/modules/audit/services"
	"github.com/pubdesk/pubdesk/pkg/application"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/configuration"
)

type RequestEventsHandler struct {
	app     application.Application
	service *services.AuditService
	logger  *logrus.Logger
}

func RegisterRequestEventHandlers(app application.Application) {
	handler := &RequestEventsHandler{
		app:     app,
		service: app.Service(services.AuditService{}).(*services.AuditService),
		logger:  configuration.Use().Logger(),
	}
	app.EventPublisher().Subscribe(handler.onRequestSubmitted)
	app.EventPublisher().Subscribe(handler.onRequestDecided)
}

func (h *RequestEventsHandler) onRequestSubmitted(event *changerequest.SubmittedEvent) {
	ctx := composables.WithPool(context.Background(), h.app.DB())

	logEntry := &decisionlog.DecisionLog{
		RequestID:  event.Request.ID,
		EntityKind: string(event.Request.EntityKind),
		EntityID:   event.Request.EntityID,
		Action:     string(event.Request.Action),
		ActorID:    event.Request.InputterID,
		Outcome:    decisionlog.OutcomeSubmitted,
	}

	if err := h.service.Record(ctx, logEntry); err != nil {
		h.logger.WithError(err).
			WithField("request_id", event.Request.ID).
			Warn("failed to persist submission audit log")
	}
}

func (h *RequestEventsHandler) onRequestDecided(event *changerequest.DecidedEvent) {
	ctx := composables.WithPool(context.Background(), h.app.DB())

	outcome := decisionlog.OutcomeApproved
	if event.Decision == changerequest.StatusRejected {
		outcome = decisionlog.OutcomeRejected
	}

	logEntry := &decisionlog.DecisionLog{
		RequestID:  event.Request.ID,
		EntityKind: string(event.Request.EntityKind),
		EntityID:   event.Request.EntityID,
		Action:     string(event.Request.Action),
		ActorID:    event.DecidedBy,
		Outcome:    outcome,
		Reason:     event.Request.RejectionReason,
	}

	if err := h.service.Record(ctx, logEntry); err != nil {
		h.logger.WithError(err).
			WithField("request_id", event.Request.ID).
			Warn("failed to persist decision audit log")
	}
}
