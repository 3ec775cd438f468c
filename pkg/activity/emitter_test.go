package activity

import (
	"context"
	"testing"
)

type recordingHook struct {
	events []Event
}

func (h *recordingHook) Notify(_ context.Context, evt Event) error {
	h.events = append(h.events, evt)
	return nil
}

func TestEmitterDefaultsChannelAndEmits(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{Enabled: true})
	if !em.Enabled() {
		t.Fatalf("expected emitter enabled")
	}
	err := em.Emit(context.Background(), Event{
		Verb:       "alert.report",
		ObjectType: "alert",
		ObjectID:   "k3x9q2m1a",
	})
	if err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if len(hook.events) != 1 {
		t.Fatalf("expected event emitted, got %d", len(hook.events))
	}
	if hook.events[0].Channel != "dashboard" {
		t.Fatalf("expected default channel dashboard, got %q", hook.events[0].Channel)
	}
}

func TestEmitterDisabledWithoutHooks(t *testing.T) {
	em := NewEmitter(nil, Config{Enabled: true})
	if em.Enabled() {
		t.Fatalf("expected emitter disabled without hooks")
	}
}

func TestEmitterKeepsExplicitChannelAndCaptures(t *testing.T) {
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "ops"})
	_ = em.Emit(context.Background(), Event{Verb: "sync.run", ObjectType: "sync_run", ObjectID: "run-1", Channel: "pipeline"})
	_ = em.Emit(context.Background(), Event{Verb: "session.login", ObjectType: "session", ObjectID: "s-1"})
	events := capture.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected 2 captured events, got %d", len(events))
	}
	if events[0].Channel != "pipeline" || events[1].Channel != "ops" {
		t.Fatalf("unexpected channels %q %q", events[0].Channel, events[1].Channel)
	}
	if events[1].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be stamped")
	}
}

func TestEmitterDisabledByConfig(t *testing.T) {
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{})
	_ = em.Emit(context.Background(), Event{Verb: "sync.run", ObjectType: "sync_run"})
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("disabled emitter must not forward events")
	}
}
