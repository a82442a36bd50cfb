package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/routegen/internal/events"
	"git.home.luguber.info/inful/routegen/internal/metrics"
)

type requests struct {
	reasons []string
	forced  []bool
}

func (r *requests) Request(reason string, force bool) {
	r.reasons = append(r.reasons, reason)
	r.forced = append(r.forced, force)
}

func serve(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(":0", events.NewHistory(0))
	w := serve(t, srv, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRunEndpoints(t *testing.T) {
	h := events.NewHistory(0)
	srv := NewServer(":0", h)

	w := serve(t, srv, http.MethodGet, "/runs/latest")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.False(t, decode(t, w).Success)

	ctx := context.Background()
	require.NoError(t, h.PublishRun(ctx, &events.RunEvent{RunID: "r1", Status: "success"}))
	require.NoError(t, h.PublishRun(ctx, &events.RunEvent{RunID: "r2", Status: "failed"}))

	w = serve(t, srv, http.MethodGet, "/runs/latest")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"run_id":"r2"`)

	w = serve(t, srv, http.MethodGet, "/runs/r1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"success"`)

	w = serve(t, srv, http.MethodGet, "/runs/missing")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, srv, http.MethodGet, "/runs?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := decode(t, w).Data.([]any)
	require.True(t, ok)
	require.Len(t, data, 1)

	w = serve(t, srv, http.MethodGet, "/runs?limit=x")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRebuildEndpoint(t *testing.T) {
	target := &requests{}
	srv := NewServer(":0", events.NewHistory(0), WithRebuild(target))

	w := serve(t, srv, http.MethodPost, "/rebuild?force=true")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []string{"api"}, target.reasons)
	require.Equal(t, []bool{true}, target.forced)

	w = serve(t, NewServer(":0", events.NewHistory(0)), http.MethodPost, "/rebuild")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsMounted(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.AddPagesWritten(3)

	srv := NewServer(":0", events.NewHistory(0), WithMetrics("/metrics", metrics.HTTPHandler(reg)))
	w := serve(t, srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "routegen_")
}
