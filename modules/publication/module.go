package publication

import (
	"embed"

	"github.com/pubdesk/pubdesk/modules/publication/infrastructure/persistence"
	"github.com/pubdesk/pubdesk/modules/publication/services"
	"github.com/pubdesk/pubdesk/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "publication"
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("publication", &migrationFiles, "infrastructure/persistence/schema")

	app.RegisterServices(
		services.NewPublicationAdapter(persistence.NewPublicationRepository()),
	)
	return nil
}
