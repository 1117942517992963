package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/lifecycle"
	"github.com/aretw0/flowcanvas/pkg/persistence/middleware"
	"github.com/aretw0/flowcanvas/pkg/syncer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := syncer.New(memory.NewStore(), "acme")
	require.NoError(t, err)
	mgr := lifecycle.New(graph.New(nil, nil), c, lifecycle.WithRelayoutDelay(0))
	ed := editor.New(mgr)
	require.NoError(t, ed.Open(context.Background()))
	return NewServer(ed, "test")
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestShowGraph_Fallback(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleShowGraph(context.Background(), request(nil), nil)
	require.NoError(t, err)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, domain.KindStart, resp.Nodes[0].Kind)
	assert.True(t, resp.Nodes[0].Temporary)
	assert.Equal(t, "acme", resp.Status.Tenant)
}

func TestCreateNode_UnderStart(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	start, _ := s.editor.Manager().Graph().First()

	args := map[string]interface{}{"kind": "message", "parent": start.ID}
	resp, err := s.handleCreateNode(ctx, request(args), args)
	require.NoError(t, err)
	assert.Equal(t, domain.KindMessage, resp.Node.Kind)
	assert.False(t, resp.Node.Temporary)
	assert.Equal(t, 2, resp.Status.Nodes)
	assert.Equal(t, 1, resp.Status.Connections)

	res, err := s.handleListQuestions(ctx, request(nil))
	require.NoError(t, err)
	var records []domain.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &records))
	assert.Len(t, records, 2)
}

func TestListConversations_Masked(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.AddConversation(ctx, "acme", domain.Conversation{
		UserID:  "u1",
		Answers: []domain.Answer{{QuestionID: "q1", Value: "jdoe@example.com"}},
	})
	require.NoError(t, err)

	mask, err := middleware.NewMaskMiddleware([]string{"@"})
	require.NoError(t, err)
	c, err := syncer.New(store, "acme", syncer.WithConversations(mask(store)))
	require.NoError(t, err)
	ed := editor.New(lifecycle.New(graph.New(nil, nil), c, lifecycle.WithRelayoutDelay(0)))
	s := NewServer(ed, "test")

	res, err := s.handleListConversations(ctx, request(nil))
	require.NoError(t, err)
	var convs []domain.Conversation
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, middleware.Masked, convs[0].Answers[0].Value)
}

func TestCreateNode_Position(t *testing.T) {
	s := newTestServer(t)

	args := map[string]interface{}{"kind": "end", "x": 10.0, "y": 20.0}
	resp, err := s.handleCreateNode(context.Background(), request(args), args)
	require.NoError(t, err)
	assert.Equal(t, domain.KindEnd, resp.Node.Kind)
	assert.Equal(t, 2, resp.Status.Nodes)
}

func TestCreateNode_RejectsStart(t *testing.T) {
	s := newTestServer(t)

	args := map[string]interface{}{"kind": "start"}
	_, err := s.handleCreateNode(context.Background(), request(args), args)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteNode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	start, _ := s.editor.Manager().Graph().First()

	res, err := s.handleDeleteNode(ctx, request(map[string]interface{}{"node_id": start.ID}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	args := map[string]interface{}{"kind": "message"}
	created, err := s.handleCreateNode(ctx, request(args), args)
	require.NoError(t, err)

	res, err = s.handleDeleteNode(ctx, request(map[string]interface{}{"node_id": created.Node.ID}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), created.Node.ID)

	res, err = s.handleDeleteNode(ctx, request(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAutoLayout(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	start, _ := s.editor.Manager().Graph().First()

	args := map[string]interface{}{"kind": "message", "parent": start.ID}
	child, err := s.handleCreateNode(ctx, request(args), args)
	require.NoError(t, err)

	resp, err := s.handleAutoLayout(ctx, request(nil), nil)
	require.NoError(t, err)
	require.Len(t, resp.Nodes, 2)
	for _, n := range resp.Nodes {
		if n.ID == child.Node.ID {
			assert.Equal(t, 430.0, n.Position.Y)
		}
	}
}
