package core

import (
	"context"
	"embed"

	"github.com/pubdesk/pubdesk/modules/core/domain/entities/role"
	"github.com/pubdesk/pubdesk/modules/core/infrastructure/persistence"
	"github.com/pubdesk/pubdesk/modules/core/services"
	"github.com/pubdesk/pubdesk/pkg/application"
	"github.com/pubdesk/pubdesk/pkg/composables"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "core"
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("core", &migrationFiles, "infrastructure/persistence/schema")

	userRepo := persistence.NewUserRepository()
	roleRepo := persistence.NewRoleRepository()

	app.RegisterServices(
		services.NewUserAdapter(userRepo),
		services.NewActorDirectory(userRepo, roleRepo),
	)

	app.RegisterSeedFuncs(SeedRoles)
	return nil
}

// SeedRoles makes sure the fixed role catalogue exists.
func SeedRoles(ctx context.Context, app application.Application) error {
	roleRepo := persistence.NewRoleRepository()
	ctx = composables.WithPool(ctx, app.DB())
	return composables.InTx(ctx, func(txCtx context.Context) error {
		for _, name := range role.BuiltIn() {
			if _, err := roleRepo.EnsureExists(txCtx, name); err != nil {
				return err
			}
		}
		return nil
	})
}
