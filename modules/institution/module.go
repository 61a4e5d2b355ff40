package institution

import (
	"embed"

	"github.com/pubdesk/pubdesk/modules/institution/infrastructure/persistence"
	"github.com/pubdesk/pubdesk/modules/institution/services"
	"github.com/pubdesk/pubdesk/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "institution"
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("institution", &migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewInstitutionAdapter(persistence.NewInstitutionRepository()),
	)
	return nil
}
