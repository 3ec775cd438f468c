package dashboard

import (
	core "github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/dashboard/commands"
	"github.com/goliatone/go-bakeryops/components/dashboard/httpapi"
	"github.com/goliatone/go-bakeryops/components/dashboard/queries"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Telemetry is the event recorder shared by the service and its commands.
type Telemetry = core.Telemetry

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewHandlers wires the commands and queries of svc into transport
// handlers. The same telemetry records every command.
func NewHandlers(svc *Service, telemetry Telemetry) *httpapi.Handlers {
	return &httpapi.Handlers{
		LoginCommander:    commands.NewLoginCommand(svc, telemetry),
		LogoutCommander:   commands.NewLogoutCommand(svc, telemetry),
		UpdateCommander:   commands.NewUpdateSessionCommand(svc, telemetry),
		LanguageCommander: commands.NewToggleLanguageCommand(svc, telemetry),
		AlertCommander:    commands.NewSubmitAlertCommand(svc, telemetry),
		SyncCommander:     commands.NewRunSyncCommand(svc, telemetry),
		LogCommander:      commands.NewAppendLogCommand(svc, telemetry),
		StateQuery:        queries.NewSessionStateQuery(svc),
		ViewQuery:         queries.NewViewQuery(svc),
		LiveQuery:         queries.NewLiveSnapshotQuery(svc),
		LogsQuery:         queries.NewRecentLogsQuery(svc),
		Validator:         core.NewJSONSchemaValidator(),
		Translator:        svc,
	}
}
