package audit

import (
	"embed"

	"github.com/pubdesk/pubdesk/modules/audit/handlers"
	"github.com/pubdesk/pubdesk/modules/audit/infrastructure/persistence"
	"github.com/pubdesk/pubdesk/modules/audit/services"
	"github.com/pubdesk/pubdesk/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "audit"
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("audit", &migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewAuditService(persistence.NewDecisionLogRepository()),
	)
	handlers.RegisterRequestEventHandlers(app)
	return nil
}
