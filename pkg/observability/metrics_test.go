package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := observability.NewMetrics()

	m.ObserveRequest("create", time.Now(), nil)
	m.ObserveRequest("create", time.Now(), errors.New("boom"))
	m.ObserveRequest("list", time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreRequests.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreRequests.WithLabelValues("create", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StoreDuration))

	var nilMetrics *observability.Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveRequest("list", time.Now(), nil) })
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeCreated(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeCreated}})
	hooks.OnNodeCreated(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Type: domain.EventNodeCreated}})
	hooks.OnGraphChanged(ctx, &domain.GraphEvent{EventBase: domain.EventBase{Type: domain.EventLayout}, Nodes: 4, Connections: 3})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("node_created")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Nodes))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Connections))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveRequest("delete", time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flowcanvas_store_requests_total{op="delete",outcome="ok"} 1`)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.OnNodeConverted(context.Background(), &domain.NodeEvent{
		EventBase: domain.EventBase{Type: domain.EventNodeConverted, Tenant: "acme"},
		NodeID:    "real",
		PrevID:    "temp-1",
	})

	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=node_converted"), out)
	assert.Contains(t, out, "prev_id=temp-1")
	assert.Contains(t, out, "tenant=acme")
}
