package queries

import (
	"context"

	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/synclog"
	gocommand "github.com/goliatone/go-command"
)

// LiveSnapshotInput requests the current live feed. It has no fields.
type LiveSnapshotInput struct{}

type liveService interface {
	Live(ctx context.Context) liveops.Snapshot
}

// LiveSnapshotQuery reads orders, alerts and counters.
type LiveSnapshotQuery struct {
	service liveService
}

// NewLiveSnapshotQuery builds the query.
func NewLiveSnapshotQuery(service liveService) *LiveSnapshotQuery {
	return &LiveSnapshotQuery{service: service}
}

var _ gocommand.Querier[LiveSnapshotInput, liveops.Snapshot] = (*LiveSnapshotQuery)(nil)

// Query returns the snapshot.
func (q *LiveSnapshotQuery) Query(ctx context.Context, _ LiveSnapshotInput) (liveops.Snapshot, error) {
	return q.service.Live(ctx), nil
}

// RecentLogsInput bounds the number of rows returned.
type RecentLogsInput struct {
	Limit int `json:"limit"`
}

type logService interface {
	RecentLogs(ctx context.Context, limit int) ([]synclog.Record, error)
}

// RecentLogsQuery lists persisted log lines newest first.
type RecentLogsQuery struct {
	service logService
}

// NewRecentLogsQuery builds the query.
func NewRecentLogsQuery(service logService) *RecentLogsQuery {
	return &RecentLogsQuery{service: service}
}

var _ gocommand.Querier[RecentLogsInput, []synclog.Record] = (*RecentLogsQuery)(nil)

// Query returns at most synclog.MaxRecent rows.
func (q *RecentLogsQuery) Query(ctx context.Context, input RecentLogsInput) ([]synclog.Record, error) {
	limit := input.Limit
	if limit <= 0 || limit > synclog.MaxRecent {
		limit = synclog.MaxRecent
	}
	return q.service.RecentLogs(ctx, limit)
}
