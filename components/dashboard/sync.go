package dashboard

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/goliatone/go-bakeryops/components/synclog"
	"go.uber.org/zap"
)

// SyncReadyLine seeds the sync log of every new session.
const SyncReadyLine = "> [SYSTEM] Dashboard Ready for 2026 Sync."

// DefaultSyncDelay is the pause before each scripted line.
const DefaultSyncDelay = time.Second

// ErrSyncInProgress is returned when a session already runs a sync.
var ErrSyncInProgress = errors.New("dashboard: sync already in progress")

// DefaultSyncLines is the scripted Google Sheets export.
func DefaultSyncLines() []string {
	return []string{
		"> [PIPELINE] Auth with Foodics API Success.",
		"> [SYNC] Fetching Branch #001 (Nasr City) Sales...",
		"> [SYNC] Fetching Branch #004 (Zahraa) Inventory...",
		"> [TRANSFORM] Mapping SKU to G-Sheets format...",
		"> [PUSH] Uploading to Google Sheets ID: BK-MASTER-2026",
		"> [OK] Sync Completed. P&L updated.",
	}
}

// SyncPipeline replays a fixed script with a delay before every line.
type SyncPipeline struct {
	Lines  []string
	Delay  time.Duration
	Store  synclog.Store
	Logger *zap.Logger
}

// NewSyncPipeline returns the default script. A nil store skips persistence
// and a negative delay selects DefaultSyncDelay.
func NewSyncPipeline(store synclog.Store, delay time.Duration) *SyncPipeline {
	if delay < 0 {
		delay = DefaultSyncDelay
	}
	return &SyncPipeline{
		Lines: DefaultSyncLines(),
		Delay: delay,
		Store: store,
	}
}

// Run emits each line after the configured delay. Lines are persisted to the
// store as they are emitted; store failures are logged and do not stop the
// run. Cancelling ctx stops the run before the next line.
func (p *SyncPipeline) Run(ctx context.Context, emit func(line string)) error {
	lines := slices.Clone(p.Lines)
	if lines == nil {
		lines = DefaultSyncLines()
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	for i, line := range lines {
		if i > 0 {
			timer.Reset(p.Delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if emit != nil {
			emit(line)
		}
		if p.Store == nil {
			continue
		}
		if _, err := p.Store.Append(ctx, line); err != nil {
			logger.Warn("sync line not persisted", zap.Int("step", i+1), zap.Error(err))
		}
	}
	return nil
}
