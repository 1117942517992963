package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/adapters/ws"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStack(t *testing.T) (*Stack, *httptest.Server) {
	t.Helper()
	stack, err := NewStack(context.Background(), testConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })

	srv := httptest.NewServer(stack.Handler())
	t.Cleanup(srv.Close)
	return stack, srv
}

func TestStack_HealthAndMetrics(t *testing.T) {
	_, srv := newTestStack(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "flowcanvas_graph_nodes")
}

func TestStack_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Metrics = false
	stack, err := NewStack(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer stack.Close()
	assert.Nil(t, stack.Metrics)

	srv := httptest.NewServer(stack.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStack_AllowedOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://admin.example.com"}
	stack, err := NewStack(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer stack.Close()

	req := httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "https://other.example.com")
	w := httptest.NewRecorder()
	stack.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStack_EditorSocket(t *testing.T) {
	stack, srv := newTestStack(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeSnapshot, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Len(t, msg.Snapshot.Nodes, 1)
	assert.Eventually(t, func() bool { return stack.Hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg, logging.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("Serve did not return after cancel")
	}
}
