package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/goliatone/go-bakeryops/components/dashboard/httpapi"
	"github.com/goliatone/go-bakeryops/pkg/config"
)

func testApp(t *testing.T) *app {
	t.Helper()
	t.Chdir(t.TempDir())
	v := config.New("")
	v.Set("storage.dsn", ":memory:")
	v.Set("server.engine", config.EngineNetHTTP)
	v.Set("liveops.order_interval", "1h")
	v.Set("liveops.alert_interval", "1h")
	cfg, err := config.Load(v).Get()
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.close()) })
	return a
}

func call(t *testing.T, h http.Handler, method, target, body, session string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if session != "" {
		req.Header.Set(httpapi.SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDaemonLoginAndViewFlow(t *testing.T) {
	a := testApp(t)
	h := a.netHTTPHandler()

	rec := call(t, h, http.MethodPost, "/api/session/login", `{"pin":"1111"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "error").String())
	assert.False(t, a.feed.Running())

	rec = call(t, h, http.MethodPost, "/api/session/login", `{"pin":"3130"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	session := gjson.Get(rec.Body.String(), "session_id").String()
	require.NotEmpty(t, session)
	assert.Equal(t, "ar", gjson.Get(rec.Body.String(), "language").String())
	assert.True(t, a.feed.Running())

	rec = call(t, h, http.MethodPost, "/api/session/tab", `{"tab":"financials"}`, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/view", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rtl", gjson.Get(rec.Body.String(), "dir").String())
	assert.Equal(t, "financials", gjson.Get(rec.Body.String(), "state.active_tab").String())

	rec = call(t, h, http.MethodGet, "/api/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gjson.Get(rec.Body.String(), "counts.foodics").Int())

	rec = call(t, h, http.MethodPost, "/api/session/logout", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, a.feed.Running())
}

func TestDaemonLogsEndpoint(t *testing.T) {
	a := testApp(t)
	h := a.netHTTPHandler()

	rec := call(t, h, http.MethodPost, "/api/logs", `{"message":"x"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())

	rec = call(t, h, http.MethodGet, "/api/logs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x", gjson.Get(rec.Body.String(), "0.message").String())
}

func TestDaemonServesMetrics(t *testing.T) {
	a := testApp(t)
	rec := call(t, a.sideHandler(), http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.Logging{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = newLogger(config.Logging{Level: "loud"})
	assert.Error(t, err)
}
