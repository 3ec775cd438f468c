// Package telemetry implements the Record(ctx, event, payload) seam the
// dashboard components accept, backed by zap and Prometheus.
package telemetry

import (
	"context"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Recorder matches the Telemetry interfaces of the dashboard, commands and
// liveops packages.
type Recorder interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Zap writes every event as a debug entry with one field per payload key.
type Zap struct {
	logger *zap.Logger
}

// NewZap wraps logger. A nil logger discards events.
func NewZap(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zap{logger: logger.Named("telemetry")}
}

// Record logs the event.
func (z *Zap) Record(_ context.Context, event string, payload map[string]any) {
	if ce := z.logger.Check(zap.DebugLevel, event); ce != nil {
		ce.Write(fields(payload)...)
	}
}

func fields(payload map[string]any) []zap.Field {
	keys := lo.Keys(payload)
	slices.Sort(keys)
	return lo.Map(keys, func(key string, _ int) zap.Field {
		return zap.Any(key, payload[key])
	})
}

// Multi fans an event out to every recorder.
type Multi []Recorder

// Record forwards the event, skipping nil recorders.
func (m Multi) Record(ctx context.Context, event string, payload map[string]any) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, event, payload)
		}
	}
}
