package modules

import (
	"github.com/pubdesk/pubdesk/modules/approval"
	"github.com/pubdesk/pubdesk/modules/audit"
	"github.com/pubdesk/pubdesk/modules/core"
	"github.com/pubdesk/pubdesk/modules/institution"
	"github.com/pubdesk/pubdesk/modules/publication"
	"github.com/pubdesk/pubdesk/pkg/application"
	"github.com/pubdesk/pubdesk/pkg/mailer"
)

// BuiltInModules returns the module list in registration order: entity
// modules first, then the workflow engine that consumes their adapters,
// then audit which subscribes to the engine's events.
func BuiltInModules(notifier mailer.Notifier) []application.Module {
	return []application.Module{
		core.NewModule(),
		institution.NewModule(),
		publication.NewModule(),
		approval.NewModule(&approval.ModuleOptions{Notifier: notifier}),
		audit.NewModule(),
	}
}
