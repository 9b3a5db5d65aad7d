package watch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docnav/internal/build"
	"git.home.luguber.info/inful/docnav/internal/linkcheck"
	"git.home.luguber.info/inful/docnav/internal/metrics"
)

type fakeBuilder struct {
	builds chan build.Request
	checks atomic.Int32
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{builds: make(chan build.Request, 16)}
}

func (f *fakeBuilder) Run(_ context.Context, req build.Request) (*build.Result, error) {
	f.builds <- req
	return &build.Result{BuildID: "b-" + req.Trigger, Status: build.StatusSuccess, Files: []string{"config.js"}}, nil
}

func (f *fakeBuilder) CheckLinks(context.Context, build.LinkCheckRequest) (*linkcheck.Report, error) {
	f.checks.Add(1)
	return &linkcheck.Report{}, nil
}

func (f *fakeBuilder) next(t *testing.T) build.Request {
	t.Helper()
	select {
	case req := <-f.builds:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("no build started")
		return build.Request{}
	}
}

const watchConfig = `version: "1.0"
site:
  title: Kernel Notes
  description: Annotated kernel source
  themeConfig:
    nav:
      - text: Home
        link: /
watch:
  debounce: 20ms
  link_check_interval: 50ms
  metrics_addr: 127.0.0.1:0
`

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRunner_RebuildsAndServes(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "docnav.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(watchConfig), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o750))

	reg := prom.NewRegistry()
	builder := newFakeBuilder()
	runner := New(Options{
		ConfigPath: configPath,
		Builder:    builder,
		Recorder:   metrics.NewPrometheusRecorder(reg),
		Registry:   reg,
		Request:    build.Request{Formats: []string{"json"}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case <-runner.Started():
	case err := <-done:
		t.Fatalf("runner exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not start")
	}

	first := builder.next(t)
	require.Equal(t, SourceStartup, first.Trigger)
	require.Equal(t, []string{"json"}, first.Formats)

	require.NoError(t, os.WriteFile(configPath, []byte(watchConfig+"# edited\n"), 0o644))
	require.Equal(t, SourceConfig, builder.next(t).Trigger)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "README.md"), []byte("# Home\n"), 0o644))
	require.Equal(t, SourceDocs, builder.next(t).Trigger)

	require.Eventually(t, func() bool { return builder.checks.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	base := "http://" + runner.ServerAddr()
	code, body := get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	require.Equal(t, HealthStatusHealthy, health.Status)
	require.GreaterOrEqual(t, health.Builds, 3)

	code, body = get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `docnav_watch_triggers_total{source="config"}`)
	require.Contains(t, body, `docnav_watch_triggers_total{source="docs"}`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_InvalidConfig(t *testing.T) {
	runner := New(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"), Builder: newFakeBuilder()})
	require.Error(t, runner.Run(t.Context()))
}

func TestStatus_Health(t *testing.T) {
	status := NewStatus()
	require.Equal(t, HealthStatusHealthy, status.Health().Status)
	require.Nil(t, status.Health().LastBuild)

	status.RecordBuild(SourceDocs, nil, errors.New("boom"))
	h := status.Health()
	require.Equal(t, HealthStatusDegraded, h.Status)
	require.Equal(t, "boom", h.LastBuild.Error)
	require.Equal(t, build.StatusFailed, h.LastBuild.Status)

	status.RecordBuild(SourceConfig, &build.Result{BuildID: "b2", Status: build.StatusWarning}, nil)
	status.RecordLinkCheck(&linkcheck.Report{Results: []linkcheck.Result{{OK: true}, {OK: false}}}, nil)
	h = status.Health()
	require.Equal(t, HealthStatusHealthy, h.Status)
	require.Equal(t, 2, h.Builds)
	require.Equal(t, 2, h.LastCheck.Links)
	require.Equal(t, 1, h.LastCheck.Broken)
}

func TestServer_UnhealthyStatusCode(t *testing.T) {
	status := NewStatus()
	status.RecordBuild(SourceStartup, nil, errors.New("config invalid"))

	srv := NewServer("127.0.0.1:0", nil, status)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	code, body := get(t, "http://"+srv.Addr()+"/healthz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Contains(t, body, `"degraded"`)

	code, _ = get(t, "http://"+srv.Addr()+"/metrics")
	require.Equal(t, http.StatusNotFound, code)
}

func TestScheduler_RunsLinkCheck(t *testing.T) {
	sched, err := NewScheduler()
	require.NoError(t, err)

	var runs atomic.Int32
	id, err := sched.ScheduleLinkCheck(t.Context(), 20*time.Millisecond, func(context.Context) { runs.Add(1) })
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sched.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, sched.Stop())
}
