package liveops

import (
	"context"
	"errors"
)

// EventHook receives feed events after the generator state changed.
type EventHook interface {
	Publish(ctx context.Context, event Event) error
}

// HookFunc adapts a function into an EventHook.
type HookFunc func(ctx context.Context, event Event) error

// Publish calls f.
func (f HookFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Hooks fans an event out to several hooks, joining their errors.
type Hooks []EventHook

// Publish notifies every non-nil hook.
func (h Hooks) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopHook struct{}

func (noopHook) Publish(context.Context, Event) error { return nil }

// Telemetry records generator events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
