package approval

import (
	"embed"

	"github.com/pubdesk/pubdesk/modules/approval/infrastructure/persistence"
	"github.com/pubdesk/pubdesk/modules/approval/services"
	coreservices "github.com/pubdesk/pubdesk/modules/core/services"
	institutionservices "github.com/pubdesk/pubdesk/modules/institution/services"
	publicationservices "github.com/pubdesk/pubdesk/modules/publication/services"
	"github.com/pubdesk/pubdesk/pkg/application"
	"github.com/pubdesk/pubdesk/pkg/mailer"
	"github.com/pubdesk/pubdesk/pkg/outbox"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

type ModuleOptions struct {
	Notifier mailer.Notifier
}

// NewModule builds the workflow engine module. It must be registered after
// the entity modules so their adapters are available.
func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Name() string {
	return "approval"
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("approval", &migrationFiles, "infrastructure/persistence/schema")

	userAdapter := app.Service(coreservices.UserAdapter{}).(*coreservices.UserAdapter)
	institutionAdapter := app.Service(institutionservices.InstitutionAdapter{}).(*institutionservices.InstitutionAdapter)
	publicationAdapter := app.Service(publicationservices.PublicationAdapter{}).(*publicationservices.PublicationAdapter)
	directory := app.Service(coreservices.ActorDirectory{}).(*coreservices.ActorDirectory)

	app.RegisterServices(
		services.NewApprovalService(
			persistence.NewChangeRequestRepository(),
			directory,
			m.options.Notifier,
			outbox.NewPublisher(),
			app.EventPublisher(),
			userAdapter,
			institutionAdapter,
			publicationAdapter,
		),
	)
	return nil
}
