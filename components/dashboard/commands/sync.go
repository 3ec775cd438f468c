package commands

import (
	"context"
	"errors"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

// RunSyncInput names the session that starts a sync.
type RunSyncInput struct {
	SessionID string `json:"session_id"`
}

type syncService interface {
	RunSync(ctx context.Context, id string) error
}

// RunSyncCommand starts the scripted sheet export in the background.
type RunSyncCommand struct {
	service   syncService
	telemetry dashboard.Telemetry
}

// NewRunSyncCommand creates the command.
func NewRunSyncCommand(service syncService, telemetry dashboard.Telemetry) *RunSyncCommand {
	return &RunSyncCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[RunSyncInput] = (*RunSyncCommand)(nil)

// Execute starts the sync; it returns before the script finishes.
func (c *RunSyncCommand) Execute(ctx context.Context, msg RunSyncInput) error {
	if c.service == nil {
		return errors.New("sync command requires service")
	}
	if err := c.service.RunSync(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.run_sync", map[string]any{"session_id": msg.SessionID})
	return nil
}
