package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksDropIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{nil, capture}

	for _, evt := range []Event{
		{},
		{Verb: "sync.run"},
		{ObjectType: "sync_run", ObjectID: "run-1"},
		{Verb: "  ", ObjectType: "alert"},
	} {
		if err := hooks.Notify(context.Background(), evt); err != nil {
			t.Fatalf("notify %+v: %v", evt, err)
		}
	}
	if got := len(capture.Snapshot()); got != 0 {
		t.Fatalf("expected incomplete events dropped, got %d", got)
	}

	_ = hooks.Notify(context.Background(), Event{Verb: " alert.report ", ObjectType: " alert ", ObjectID: " A3 "})
	events := capture.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Verb != "alert.report" || events[0].ObjectID != "A3" {
		t.Fatalf("expected trimmed identifiers, got %+v", events[0])
	}
}

func TestHooksJoinErrorsAndKeepDelivering(t *testing.T) {
	errSink := errors.New("sink offline")
	capture := &CaptureHook{}
	hooks := Hooks{
		HookFunc(func(context.Context, Event) error { return errSink }),
		capture,
	}

	err := hooks.Notify(context.Background(), Event{Verb: "session.login", ObjectType: "session", ObjectID: "s-1"})
	if !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(capture.Snapshot()) != 1 {
		t.Fatalf("later hooks must still receive the event")
	}
}

func TestNormalizeEventCopiesMutableFields(t *testing.T) {
	meta := map[string]any{"branch": "Maadi"}
	recipients := []string{"ops@bakery.example"}

	n := NormalizeEvent(Event{Verb: "alert.report", Metadata: meta, Recipients: recipients})
	n.Metadata["branch"] = "Zahraa"
	n.Recipients[0] = "chef@bakery.example"

	if meta["branch"] != "Maadi" {
		t.Fatalf("caller metadata mutated: %v", meta)
	}
	if recipients[0] != "ops@bakery.example" {
		t.Fatalf("caller recipients mutated: %v", recipients)
	}
	if n.OccurredAt.IsZero() || n.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected a UTC timestamp, got %v", n.OccurredAt)
	}

	stamp := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if got := NormalizeEvent(Event{OccurredAt: stamp}).OccurredAt; !got.Equal(stamp) {
		t.Fatalf("explicit timestamp replaced: %v", got)
	}
}
