package services

import (
	"context"

	"github.com/pubdesk/pubdesk/modules/audit/domain/entities/decisionlog"
	"github.com/pubdesk/pubdesk/pkg/composables"
)

type AuditService struct {
	repo decisionlog.Repository
}

func NewAuditService(repo decisionlog.Repository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Record(ctx context.Context, log *decisionlog.DecisionLog) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, log)
	})
}

func (s *AuditService) List(ctx context.Context, params *decisionlog.FindParams) ([]*decisionlog.DecisionLog, error) {
	return s.repo.List(ctx, params)
}

func (s *AuditService) Count(ctx context.Context, params *decisionlog.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}
