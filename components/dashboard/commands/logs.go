package commands

import (
	"context"
	"errors"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/synclog"
	gocommand "github.com/goliatone/go-command"
)

// AppendLogInput is the body of POST /api/logs.
type AppendLogInput struct {
	Message string          `json:"message"`
	Result  *synclog.Record `json:"-"`
}

type logService interface {
	AppendLog(ctx context.Context, message string) (synclog.Record, error)
}

// AppendLogCommand persists a log line.
type AppendLogCommand struct {
	service   logService
	telemetry dashboard.Telemetry
}

// NewAppendLogCommand creates the command.
func NewAppendLogCommand(service logService, telemetry dashboard.Telemetry) *AppendLogCommand {
	return &AppendLogCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[AppendLogInput] = (*AppendLogCommand)(nil)

// Execute stores the message.
func (c *AppendLogCommand) Execute(ctx context.Context, msg AppendLogInput) error {
	if c.service == nil {
		return errors.New("append log command requires service")
	}
	record, err := c.service.AppendLog(ctx, msg.Message)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = record
	}
	c.telemetry.Record(ctx, "dashboard.command.append_log", map[string]any{"log_id": record.ID})
	return nil
}
