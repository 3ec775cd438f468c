package commands

import (
	"context"
	"errors"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

// LoginInput carries the submitted pin. When Result is set it receives the
// new session state.
type LoginInput struct {
	PIN    string             `json:"pin"`
	Result *dashboard.UIState `json:"-"`
}

type loginService interface {
	Login(ctx context.Context, pin string) (dashboard.UIState, error)
}

// LoginCommand opens dashboard sessions.
type LoginCommand struct {
	service   loginService
	telemetry dashboard.Telemetry
}

// NewLoginCommand creates the command.
func NewLoginCommand(service loginService, telemetry dashboard.Telemetry) *LoginCommand {
	return &LoginCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[LoginInput] = (*LoginCommand)(nil)

// Execute authenticates the pin and stores the session in msg.Result.
func (c *LoginCommand) Execute(ctx context.Context, msg LoginInput) error {
	if c.service == nil {
		return errors.New("login command requires service")
	}
	state, err := c.service.Login(ctx, msg.PIN)
	if err != nil {
		c.telemetry.Record(ctx, "dashboard.command.login_rejected", nil)
		return err
	}
	if msg.Result != nil {
		*msg.Result = state
	}
	c.telemetry.Record(ctx, "dashboard.command.login", map[string]any{"session_id": state.SessionID})
	return nil
}

// LogoutInput names the session to close.
type LogoutInput struct {
	SessionID string `json:"session_id"`
}

type logoutService interface {
	Logout(ctx context.Context, id string) error
}

// LogoutCommand closes dashboard sessions.
type LogoutCommand struct {
	service   logoutService
	telemetry dashboard.Telemetry
}

// NewLogoutCommand creates the command.
func NewLogoutCommand(service logoutService, telemetry dashboard.Telemetry) *LogoutCommand {
	return &LogoutCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[LogoutInput] = (*LogoutCommand)(nil)

// Execute closes the session.
func (c *LogoutCommand) Execute(ctx context.Context, msg LogoutInput) error {
	if c.service == nil {
		return errors.New("logout command requires service")
	}
	if err := c.service.Logout(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.logout", map[string]any{"session_id": msg.SessionID})
	return nil
}

type updateService interface {
	Update(ctx context.Context, update dashboard.SessionUpdate) (dashboard.UIState, error)
}

// UpdateSessionCommand applies UI state changes (tab, language, edit mode,
// alert form, selection, financial inputs).
type UpdateSessionCommand struct {
	service   updateService
	telemetry dashboard.Telemetry
}

// NewUpdateSessionCommand creates the command.
func NewUpdateSessionCommand(service updateService, telemetry dashboard.Telemetry) *UpdateSessionCommand {
	return &UpdateSessionCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[dashboard.SessionUpdate] = (*UpdateSessionCommand)(nil)

// Execute validates and applies the update.
func (c *UpdateSessionCommand) Execute(ctx context.Context, msg dashboard.SessionUpdate) error {
	if c.service == nil {
		return errors.New("update session command requires service")
	}
	state, err := c.service.Update(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.update_session", map[string]any{
		"session_id": msg.SessionID,
		"tab":        state.ActiveTab,
	})
	return nil
}

// ToggleLanguageInput names the session whose language flips.
type ToggleLanguageInput struct {
	SessionID string `json:"session_id"`
}

type languageService interface {
	ToggleLanguage(ctx context.Context, id string) (dashboard.UIState, error)
}

// ToggleLanguageCommand switches a session between Arabic and English.
type ToggleLanguageCommand struct {
	service   languageService
	telemetry dashboard.Telemetry
}

// NewToggleLanguageCommand creates the command.
func NewToggleLanguageCommand(service languageService, telemetry dashboard.Telemetry) *ToggleLanguageCommand {
	return &ToggleLanguageCommand{service: service, telemetry: dashboard.TelemetryOrNop(telemetry)}
}

var _ gocommand.Commander[ToggleLanguageInput] = (*ToggleLanguageCommand)(nil)

// Execute flips the language.
func (c *ToggleLanguageCommand) Execute(ctx context.Context, msg ToggleLanguageInput) error {
	if c.service == nil {
		return errors.New("toggle language command requires service")
	}
	state, err := c.service.ToggleLanguage(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.toggle_language", map[string]any{
		"session_id": msg.SessionID,
		"language":   state.Language,
	})
	return nil
}
