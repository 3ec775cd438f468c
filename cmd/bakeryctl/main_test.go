package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/reference"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var cfg cli
	var out bytes.Buffer
	rt := &runtime{cli: &cfg, out: &out}
	parser, err := kong.New(&cfg, append(options(context.Background(), rt),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)...)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	err = kctx.Run()
	return out.String(), err
}

func testDSN(t *testing.T) []string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs.db")
	return []string{"--driver", "sqlite", "--dsn", "file:" + path}
}

func TestLogsAppendAndList(t *testing.T) {
	dsn := testDSN(t)

	out, err := runCLI(t, append(dsn, "logs", "append", "first")...)
	require.NoError(t, err)
	assert.Contains(t, out, "appended #1")

	_, err = runCLI(t, append(dsn, "logs", "append", "second")...)
	require.NoError(t, err)

	out, err = runCLI(t, append(dsn, "--json", "logs", "list", "--limit", "1")...)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "#").Int())
	assert.Equal(t, "second", gjson.Get(out, "0.message").String())
}

func TestSyncPersistsScript(t *testing.T) {
	dsn := testDSN(t)

	out, err := runCLI(t, append(dsn, "sync", "--delay", "0s")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(dashboard.DefaultSyncLines())+1)
	assert.Equal(t, dashboard.SyncReadyLine, lines[0])
	assert.Equal(t, "> [OK] Sync Completed. P&L updated.", lines[len(lines)-1])

	out, err = runCLI(t, append(dsn, "--json", "logs", "list")...)
	require.NoError(t, err)
	assert.Equal(t, int64(len(dashboard.DefaultSyncLines())), gjson.Get(out, "#").Int())
	assert.Equal(t, "> [OK] Sync Completed. P&L updated.", gjson.Get(out, "0.message").String())
}

func TestReferenceExportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	_, err := runCLI(t, "reference", "export", "-o", path)
	require.NoError(t, err)

	out, err := runCLI(t, "--json", "reference", "validate", path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(reference.Default().Branches)), gjson.Get(out, "branches").Int())
	assert.Equal(t, int64(len(reference.Default().Payroll)), gjson.Get(out, "payroll").Int())
}

func TestReferenceValidateRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nbranches: []\n"), 0o644))

	_, err := runCLI(t, "reference", "validate", path)
	assert.Error(t, err)
}

func TestEstimatePayroll(t *testing.T) {
	band, ok := reference.Default().PayrollFor("CHEF")
	require.True(t, ok)

	out, err := runCLI(t, "--json", "estimate", "payroll", "--role", "chef", "--months", "2")
	require.NoError(t, err)
	assert.Equal(t, "CHEF", gjson.Get(out, "role").String())
	assert.Equal(t, band.Training*2+3000*2, gjson.Get(out, "impact").Int())

	_, err = runCLI(t, "estimate", "payroll", "--role", "baker")
	assert.ErrorContains(t, err, "unknown payroll role")

	_, err = runCLI(t, "estimate", "payroll", "--months", "4")
	assert.Error(t, err)
}

func TestEstimateWaste(t *testing.T) {
	out, err := runCLI(t, "--json", "estimate", "waste", "--level", "3")
	require.NoError(t, err)
	assert.Equal(t, int64(24000), gjson.Get(out, "delta").Int())

	out, err = runCLI(t, "--json", "estimate", "waste", "--level", "8")
	require.NoError(t, err)
	assert.Equal(t, int64(-36000), gjson.Get(out, "delta").Int())

	_, err = runCLI(t, "estimate", "waste", "--level", "11")
	assert.Error(t, err)
}

func TestColorizeLeavesUntaggedLines(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "plain", colorize("plain"))
	assert.Equal(t, dashboard.SyncReadyLine, colorize(dashboard.SyncReadyLine))
}
