package liveops

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBroadcasterFanout(t *testing.T) {
	b := NewBroadcaster(1)
	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	order := Order{ID: "ABC123XYZ"}
	if err := b.Publish(context.Background(), Event{Kind: EventOrder, Order: &order}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, ch := range []<-chan Event{first, second} {
		select {
		case evt := <-ch:
			if evt.Order == nil || evt.Order.ID != order.ID {
				t.Fatalf("unexpected event %+v", evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}

	cancelFirst()
	if _, ok := <-first; ok {
		t.Fatalf("expected cancelled channel to be closed")
	}
	if b.Subscribers() != 1 {
		t.Fatalf("expected one subscriber left, got %d", b.Subscribers())
	}
}

func TestBroadcasterDropsForSlowSubscribers(t *testing.T) {
	b := NewBroadcaster(1)
	events, cancel := b.Subscribe()
	defer cancel()
	for range 3 {
		_ = b.Publish(context.Background(), Event{Kind: EventAlert})
	}
	if len(events) != 1 {
		t.Fatalf("expected a single buffered event, got %d", len(events))
	}
}

func TestBroadcasterServeWebSocket(t *testing.T) {
	b := NewBroadcaster(4)
	srv := httptest.NewServer(http.HandlerFunc(b.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForSubscribers(t, b, 1)
	alert := Alert{ID: "abc", Severity: SeverityInfo}
	_ = b.Publish(context.Background(), Event{Kind: EventAlert, Alert: &alert})

	var got Event
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Kind != EventAlert || got.Alert == nil || got.Alert.ID != "abc" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestBroadcasterServeSSE(t *testing.T) {
	b := NewBroadcaster(4)
	srv := httptest.NewServer(http.HandlerFunc(b.ServeSSE))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	waitForSubscribers(t, b, 1)
	order := Order{ID: "ORDER0001"}
	_ = b.Publish(context.Background(), Event{Kind: EventOrder, Order: &order})

	reader := bufio.NewReader(resp.Body)
	header, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read event line: %v", err)
	}
	if strings.TrimSpace(header) != "event: order" {
		t.Fatalf("unexpected event line %q", header)
	}
	data, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read data line: %v", err)
	}
	if !strings.Contains(data, "ORDER0001") {
		t.Fatalf("expected order id in %q", data)
	}
}

func waitForSubscribers(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for b.Subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d subscribers", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServeWebSocketRejectsPlainRequestOnce(t *testing.T) {
	b := NewBroadcaster(1)
	rec := httptest.NewRecorder()
	b.ServeWebSocket(rec, httptest.NewRequest(http.MethodGet, "/api/live/ws", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if want := http.StatusText(http.StatusBadRequest) + "\n"; rec.Body.String() != want {
		t.Fatalf("expected only the upgrader's reply, got %q", rec.Body.String())
	}
	if b.Subscribers() != 0 {
		t.Fatalf("rejected upgrade must not subscribe")
	}
}

type brokenStream struct {
	header http.Header
	writes int
}

func (w *brokenStream) Header() http.Header { return w.header }
func (w *brokenStream) WriteHeader(int)     {}
func (w *brokenStream) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("client gone")
}

func TestServeSSEStopsOnWriteError(t *testing.T) {
	b := NewBroadcaster(1)
	w := &brokenStream{header: http.Header{}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.ServeSSE(w, httptest.NewRequest(http.MethodGet, "/api/live/stream", nil))
	}()

	deadline := time.After(time.Second)
	for b.Subscribers() == 0 {
		select {
		case <-deadline:
			t.Fatalf("stream never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	_ = b.Publish(context.Background(), Event{Kind: EventAlert})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("stream kept running after a failed write")
	}
	if w.writes != 1 {
		t.Fatalf("expected one failed write, got %d", w.writes)
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected the stream to unsubscribe")
	}
}
