package queries

import (
	"context"
	"testing"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/synclog"
)

type stubService struct {
	calls     int
	lastID    string
	lastLimit int
}

func (s *stubService) View(_ context.Context, viewer dashboard.ViewerContext) (dashboard.View, error) {
	s.calls++
	s.lastID = viewer.SessionID
	return dashboard.View{Dir: "rtl"}, nil
}

func (s *stubService) State(_ context.Context, id string) (dashboard.UIState, error) {
	s.calls++
	s.lastID = id
	return dashboard.UIState{SessionID: id}, nil
}

func (s *stubService) Live(context.Context) liveops.Snapshot {
	s.calls++
	return liveops.Snapshot{Counts: map[string]int{"foodics": 42}}
}

func (s *stubService) RecentLogs(_ context.Context, limit int) ([]synclog.Record, error) {
	s.calls++
	s.lastLimit = limit
	return []synclog.Record{{ID: 1, Message: "hi"}}, nil
}

func TestViewQuery(t *testing.T) {
	service := &stubService{}
	view, err := NewViewQuery(service).Query(context.Background(), dashboard.ViewerContext{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || service.lastID != "s1" || view.Dir != "rtl" {
		t.Fatalf("unexpected query result: %+v calls=%d", view, service.calls)
	}
}

func TestSessionStateQuery(t *testing.T) {
	service := &stubService{}
	state, err := NewSessionStateQuery(service).Query(context.Background(), dashboard.ViewerContext{SessionID: "s2"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if state.SessionID != "s2" {
		t.Fatalf("expected session s2, got %q", state.SessionID)
	}
}

func TestLiveSnapshotQuery(t *testing.T) {
	service := &stubService{}
	snapshot, err := NewLiveSnapshotQuery(service).Query(context.Background(), LiveSnapshotInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snapshot.Counts["foodics"] != 42 {
		t.Fatalf("expected counts passthrough, got %+v", snapshot.Counts)
	}
}

func TestRecentLogsQueryClampsLimit(t *testing.T) {
	service := &stubService{}
	query := NewRecentLogsQuery(service)
	cases := map[int]int{0: synclog.MaxRecent, -3: synclog.MaxRecent, 10: 10, 500: synclog.MaxRecent}
	for in, want := range cases {
		if _, err := query.Query(context.Background(), RecentLogsInput{Limit: in}); err != nil {
			t.Fatalf("Query returned error: %v", err)
		}
		if service.lastLimit != want {
			t.Fatalf("limit %d: expected %d, got %d", in, want, service.lastLimit)
		}
	}
}
