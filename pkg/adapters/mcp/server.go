package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource exposing the current canvas.
const GraphURI = "flowcanvas://graph"

// GraphResponse is the canvas as seen by an agent.
type GraphResponse struct {
	Nodes       []domain.Node       `json:"nodes" jsonschema_description:"Nodes on the canvas"`
	Connections []domain.Connection `json:"connections" jsonschema_description:"Edges derived from routing"`
	Status      editor.StatusBar    `json:"status" jsonschema_description:"Counts and tenant"`
}

// NodeResponse is returned by tools that touch a single node.
type NodeResponse struct {
	Node   domain.Node      `json:"node" jsonschema_description:"The affected node"`
	Status editor.StatusBar `json:"status" jsonschema_description:"Counts after the change"`
}

// Server exposes an Editor as a set of MCP tools.
type Server struct {
	editor    *editor.Editor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(ed *editor.Editor, version string, opts ...Option) *Server {
	s := &Server{
		editor: ed,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("flowcanvas-mcp", version)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("show_graph",
		mcp.WithDescription("Show every node and connection of the flow."),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleShowGraph))

	s.mcpServer.AddTool(mcp.NewTool("list_questions",
		mcp.WithDescription("List the stored questions of the tenant, in store order."),
	), s.handleListQuestions)

	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List the tenant's recorded conversations. Sensitive answers may be masked."),
	), s.handleListConversations)

	s.mcpServer.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a node. With a parent the node becomes its next step."),
		mcp.WithString("kind", mcp.Required(),
			mcp.Description("Node kind"),
			mcp.Enum(kindNames()...),
		),
		mcp.WithString("parent", mcp.Description("ID of the node the new one follows (optional)")),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate (optional)")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate (optional)")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateNode))

	s.mcpServer.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node. The start node cannot be deleted."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
	), s.handleDeleteNode)

	s.mcpServer.AddTool(mcp.NewTool("auto_layout",
		mcp.WithDescription("Re-level the graph from the start node and store the new positions."),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleAutoLayout))
}

func kindNames() []string {
	out := make([]string, 0, len(domain.Kinds))
	for _, k := range domain.Kinds {
		out = append(out, string(k))
	}
	return out
}

func (s *Server) graph() GraphResponse {
	nodes, conns := s.editor.Manager().Graph().Snapshot()
	return GraphResponse{Nodes: nodes, Connections: conns, Status: s.editor.Status()}
}

func (s *Server) handleShowGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	return s.graph(), nil
}

func (s *Server) handleAutoLayout(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResponse, error) {
	if err := s.editor.AutoLayout(ctx); err != nil {
		return GraphResponse{}, fmt.Errorf("layout failed: %w", err)
	}
	return s.graph(), nil
}

func (s *Server) handleListQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.editor.Manager().Controller().Questions(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListConversations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	convs, err := s.editor.Manager().Controller().Conversations(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(convs)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCreateNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NodeResponse, error) {
	kind, _ := args["kind"].(string)
	parent, _ := args["parent"].(string)

	var pos *domain.Position
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if hasX || hasY {
		pos = &domain.Position{X: x, Y: y}
	}

	n, err := s.editor.Manager().Create(ctx, domain.NodeKind(kind), pos, parent)
	if err != nil {
		s.logger.Warn("MCP create_node failed", "kind", kind, "parent", parent, "err", err)
		return NodeResponse{}, fmt.Errorf("create failed: %w", err)
	}
	s.editor.Manager().Flush()
	if latest, ok := s.editor.Manager().Graph().Node(n.ID); ok {
		n = latest
	}
	return NodeResponse{Node: n, Status: s.editor.Status()}, nil
}

func (s *Server) handleDeleteNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["node_id"].(string)
	if id == "" {
		return mcp.NewToolResultError("node_id is required"), nil
	}
	if err := s.editor.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	s.editor.Manager().Flush()
	return mcp.NewToolResultText(fmt.Sprintf("deleted %s", id)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current Flow Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.graph())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
