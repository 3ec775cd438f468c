package dashboard

import "context"

// Telemetry receives dotted event names such as "dashboard.session.login".
// The service and its commands share one recorder.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a plain function to Telemetry. A nil func discards.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	if f != nil {
		f(ctx, event, payload)
	}
}

// TelemetryOrNop returns t, or a recorder that drops everything when t is nil.
func TelemetryOrNop(t Telemetry) Telemetry {
	if t == nil {
		return TelemetryFunc(nil)
	}
	return t
}
