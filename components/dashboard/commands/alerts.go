package commands

import (
	"context"
	"errors"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/liveops"
	gocommand "github.com/goliatone/go-command"
)

// SubmitAlertInput reports an incident from a session. A nil Draft submits
// the draft stored in the session. Result receives the inserted alert.
type SubmitAlertInput struct {
	SessionID string                `json:"-"`
	Draft     *dashboard.AlertDraft `json:"draft,omitempty"`
	Result    *liveops.Alert        `json:"-"`
}

type alertService interface {
	SubmitAlert(ctx context.Context, id string, draft *dashboard.AlertDraft) (liveops.Alert, error)
}

// SubmitAlertCommand inserts manual alerts into the live feed.
type SubmitAlertCommand struct {
	service   alertService
	telemetry dashboard.Telemetry
}

// NewSubmitAlertCommand creates the command.
func NewSubmitAlertCommand(service alertService, telemetry dashboard.Telemetry) *SubmitAlertCommand {
	return &SubmitAlertCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[SubmitAlertInput] = (*SubmitAlertCommand)(nil)

// Execute validates and inserts the alert.
func (c *SubmitAlertCommand) Execute(ctx context.Context, msg SubmitAlertInput) error {
	if c.service == nil {
		return errors.New("submit alert command requires service")
	}
	alert, err := c.service.SubmitAlert(ctx, msg.SessionID, msg.Draft)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = alert
	}
	c.telemetry.Record(ctx, "dashboard.command.submit_alert", map[string]any{
		"alert_id": alert.ID,
		"branch":   alert.Branch,
	})
	return nil
}
