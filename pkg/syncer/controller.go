package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/layout"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Snapshot is the graph produced by a load.
type Snapshot struct {
	Nodes       []domain.Node
	Connections []domain.Connection
	// Fallback is set when the snapshot is the synthesized start node.
	Fallback bool
}

// Controller scopes remote store access to a tenant.
type Controller struct {
	store         ports.RecordStore
	conversations ports.ConversationReader
	tenant        string
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics records every store request.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithConversations sets the reader used by Conversations. By default the
// store itself is used when it implements ports.ConversationReader.
func WithConversations(r ports.ConversationReader) Option {
	return func(c *Controller) {
		c.conversations = r
	}
}

// New creates a Controller for tenant. An empty tenant is a programming error
// and returns domain.ErrMissingContext.
func New(store ports.RecordStore, tenant string, opts ...Option) (*Controller, error) {
	if tenant == "" {
		return nil, domain.ErrMissingContext
	}
	c := &Controller{
		store:  store,
		tenant: tenant,
		logger: logging.NewNop(),
	}
	if r, ok := store.(ports.ConversationReader); ok {
		c.conversations = r
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Tenant returns the scoping identifier.
func (c *Controller) Tenant() string {
	return c.tenant
}

func (c *Controller) checkContext() error {
	if c == nil || c.tenant == "" || c.store == nil {
		return domain.ErrMissingContext
	}
	return nil
}

// Load fetches every record and builds the laid-out graph. An empty store
// yields the temporary start node, and so does a store where no record is
// marked first: the placeholder is prepended to the persisted nodes. On
// transport failure the fallback is returned together with the error.
func (c *Controller) Load(ctx context.Context) (Snapshot, error) {
	if err := c.checkContext(); err != nil {
		return fallback(), err
	}
	records, err := c.list(ctx)
	if err != nil {
		c.logger.Error("failed to load questions", "tenant", c.tenant, "error", err)
		return fallback(), err
	}
	if len(records) == 0 {
		c.logger.Info("no questions found, using temporary start node", "tenant", c.tenant)
		return fallback(), nil
	}

	nodes := graph.BuildNodes(records)
	conns := graph.BuildConnections(records)
	if !slices.ContainsFunc(records, func(r domain.Record) bool { return r.IsFirst }) {
		// Nothing enters the flow; offer the placeholder again.
		c.logger.Warn("no first question, adding temporary start node", "tenant", c.tenant)
		nodes = append([]domain.Node{domain.NewTempStartNode()}, nodes...)
	}
	nodes = layout.Apply(nodes, conns)
	c.logger.Debug("graph loaded", "tenant", c.tenant, "nodes", len(nodes), "connections", len(conns))
	return Snapshot{Nodes: nodes, Connections: conns}, nil
}

// Refresh reloads and fully rebuilds g. g is rebuilt even when the load
// fails, using the fallback graph.
func (c *Controller) Refresh(ctx context.Context, g *graph.Graph) error {
	snap, err := c.Load(ctx)
	g.Reset(snap.Nodes, snap.Connections)
	return err
}

// Questions returns the raw records for the question list screen.
func (c *Controller) Questions(ctx context.Context) ([]domain.Record, error) {
	if err := c.checkContext(); err != nil {
		return nil, err
	}
	return c.list(ctx)
}

// Conversations returns the tenant's recorded conversations.
func (c *Controller) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	if err := c.checkContext(); err != nil {
		return nil, err
	}
	if c.conversations == nil {
		return nil, domain.ErrUnsupported
	}
	started := time.Now()
	convs, err := c.conversations.ListConversations(ctx, c.tenant)
	c.metrics.ObserveRequest("list_conversations", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", domain.ErrRemote, err)
	}
	return convs, nil
}

// Create persists a new question.
func (c *Controller) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	if err := c.checkContext(); err != nil {
		return domain.Record{}, err
	}
	rec.TenantID = c.tenant
	if rec.FlowID == "" {
		rec.FlowID = domain.DefaultFlowID
	}
	started := time.Now()
	out, err := c.store.Create(ctx, c.tenant, rec)
	c.metrics.ObserveRequest("create", started, err)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: create question: %w", domain.ErrRemote, err)
	}
	c.logger.Debug("question created", "tenant", c.tenant, "node_id", out.ID)
	return out, nil
}

// Update applies a partial update to question id.
func (c *Controller) Update(ctx context.Context, id string, patch domain.RecordPatch) (domain.Record, error) {
	if err := c.checkContext(); err != nil {
		return domain.Record{}, err
	}
	started := time.Now()
	out, err := c.store.Update(ctx, c.tenant, id, patch)
	c.metrics.ObserveRequest("update", started, err)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: update question %s: %w", domain.ErrRemote, id, err)
	}
	c.logger.Debug("question updated", "tenant", c.tenant, "node_id", id)
	return out, nil
}

// Delete removes question id.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.checkContext(); err != nil {
		return err
	}
	started := time.Now()
	err := c.store.Delete(ctx, c.tenant, id)
	c.metrics.ObserveRequest("delete", started, err)
	if err != nil {
		return fmt.Errorf("%w: delete question %s: %w", domain.ErrRemote, id, err)
	}
	c.logger.Debug("question deleted", "tenant", c.tenant, "node_id", id)
	return nil
}

func (c *Controller) list(ctx context.Context) ([]domain.Record, error) {
	started := time.Now()
	records, err := c.store.List(ctx, c.tenant)
	c.metrics.ObserveRequest("list", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: list questions: %w", domain.ErrRemote, err)
	}
	return records, nil
}

func fallback() Snapshot {
	return Snapshot{Nodes: []domain.Node{domain.NewTempStartNode()}, Fallback: true}
}
