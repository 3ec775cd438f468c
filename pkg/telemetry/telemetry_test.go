package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapRecordsSortedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := NewZap(zap.New(core))

	rec.Record(context.Background(), "dashboard.command.login", map[string]any{
		"session_id": "s1",
		"attempt":    1,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dashboard.command.login", entries[0].Message)
	assert.Equal(t, "telemetry", entries[0].LoggerName)
	require.Len(t, entries[0].Context, 2)
	assert.Equal(t, "attempt", entries[0].Context[0].Key)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])
}

func TestZapSkipsBelowLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewZap(zap.New(core)).Record(context.Background(), "liveops.order", nil)
	assert.Zero(t, logs.Len())

	NewZap(nil).Record(context.Background(), "liveops.order", nil)
}

func TestMetricsCountEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, "dashboard.command.login", nil)
	m.Record(ctx, "dashboard.command.login", nil)
	m.Record(ctx, "liveops.alert", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("dashboard_command_login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("liveops_alert")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestInstrumentLabelsByPattern(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := m.Instrument(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET /api/logs", http.MethodGet, "418")))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404")))
}

func TestMultiFansOut(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)

	Multi{NewZap(zap.New(core)), nil, m}.Record(context.Background(), "sync.run", nil)

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("sync_run")))
}
