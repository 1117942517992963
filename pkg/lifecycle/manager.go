package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/layout"
	"github.com/aretw0/flowcanvas/pkg/syncer"
)

// Manager applies node lifecycle operations to a graph.
//
// Every operation awaits the remote call before touching the local graph, so
// a failed request leaves the graph exactly as it was. Mutations of the same
// node are serialized by the Guard.
type Manager struct {
	graph  *graph.Graph
	sync   *syncer.Controller
	guard  *Guard
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	delay  time.Duration
	sched  *scheduler
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithGuard replaces the default in-process guard.
func WithGuard(g *Guard) Option {
	return func(m *Manager) {
		m.guard = g
	}
}

// WithRelayoutDelay sets the batching window of follow-up layout and refresh
// work. Zero runs the work inline, before the operation returns.
func WithRelayoutDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.delay = d
	}
}

// WithLifecycleHooks registers callbacks fired after local mutations.
// Multiple hook sets are chained in registration order.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(h)
	}
}

// New creates a Manager editing g through c.
func New(g *graph.Graph, c *syncer.Controller, opts ...Option) *Manager {
	m := &Manager{
		graph:  g,
		sync:   c,
		logger: logging.NewNop(),
		delay:  DefaultRelayoutDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.guard == nil {
		m.guard = NewGuard(WithGuardLogger(m.logger))
	}
	m.sched = newScheduler(m.delay, m.runJob)
	return m
}

// Graph returns the edited graph.
func (m *Manager) Graph() *graph.Graph {
	return m.graph
}

// Controller returns the sync controller.
func (m *Manager) Controller() *syncer.Controller {
	return m.sync
}

// Load replaces the graph with the store's current content. The graph is
// usable even when an error is returned.
func (m *Manager) Load(ctx context.Context) error {
	err := m.sync.Refresh(ctx, m.graph)
	m.emitGraph(ctx, domain.EventReload)
	return err
}

// Create adds a node of the given kind. pos defaults to DefaultCreatePosition.
// When parentID is set, the parent (converted first if temporary) is routed to
// the new node: an option is appended for option-routed parents, next is set
// otherwise.
//
// If the child is persisted but linking the parent fails, the child is
// returned along with the error.
func (m *Manager) Create(ctx context.Context, kind domain.NodeKind, pos *domain.Position, parentID string) (domain.Node, error) {
	if kind == domain.KindStart {
		return domain.Node{}, fmt.Errorf("%w: start nodes cannot be created", domain.ErrValidation)
	}
	if !slices.Contains(domain.Kinds, kind) {
		kind = domain.KindMessage
	}
	position := domain.DefaultCreatePosition
	if pos != nil {
		position = *pos
	}

	if parentID == "" {
		child, err := m.insertNew(ctx, kind, position)
		if err != nil {
			return domain.Node{}, err
		}
		m.sched.schedule(ctx, jobLayout|jobPersist)
		return child, nil
	}

	if _, ok := m.graph.Node(parentID); !ok {
		return domain.Node{}, domain.ErrNodeNotFound
	}

	var child domain.Node
	err := m.guard.WithLock(ctx, parentID, func(ctx context.Context) error {
		parent, ok := m.graph.Node(parentID)
		if !ok {
			return domain.ErrNodeNotFound
		}
		var err error
		child, err = m.insertNew(ctx, kind, position)
		if err != nil {
			return err
		}
		if parent.Temporary {
			if parent, err = m.convertLocked(ctx, parent); err != nil {
				return fmt.Errorf("failed to convert parent %s: %w", parentID, err)
			}
		}
		return m.linkLocked(ctx, parent, child.ID)
	})
	if child.ID != "" {
		m.sched.schedule(ctx, jobLayout|jobPersist)
	}
	return child, err
}

// Convert persists a temporary node. The node keeps its slot in the graph and
// every reference to the temporary id is rewritten. Converting a persisted
// node is a no-op.
func (m *Manager) Convert(ctx context.Context, id string) (domain.Node, error) {
	var out domain.Node
	err := m.guard.WithLock(ctx, id, func(ctx context.Context) error {
		n, ok := m.graph.Node(id)
		if !ok {
			return domain.ErrNodeNotFound
		}
		if !n.Temporary {
			out = n
			return nil
		}
		var err error
		out, err = m.convertLocked(ctx, n)
		return err
	})
	return out, err
}

// Edit opens an editable copy of node id.
func (m *Manager) Edit(id string) (*Draft, error) {
	n, ok := m.graph.Node(id)
	if !ok {
		return nil, domain.ErrNodeNotFound
	}
	return NewDraft(n), nil
}

// Save validates d and persists it. A temporary node is converted instead of
// updated. After an update the whole graph is refreshed, since a type change
// may switch the node's routing mechanism.
func (m *Manager) Save(ctx context.Context, d *Draft) (domain.Node, error) {
	if err := d.Validate(); err != nil {
		return domain.Node{}, err
	}
	var (
		out       domain.Node
		converted bool
	)
	err := m.guard.WithLock(ctx, d.ID, func(ctx context.Context) error {
		current, ok := m.graph.Node(d.ID)
		if !ok {
			return domain.ErrNodeNotFound
		}
		n := d.Node()
		if current.Temporary {
			converted = true
			var err error
			out, err = m.convertLocked(ctx, n)
			return err
		}
		if _, err := m.sync.Update(ctx, d.ID, graph.PatchFromNode(n)); err != nil {
			return err
		}
		n.Temporary = false
		if err := m.graph.Replace(d.ID, n); err != nil {
			return err
		}
		out, _ = m.graph.Node(d.ID)
		m.emitNode(ctx, domain.EventNodeUpdated, out, "")
		return nil
	})
	if err != nil {
		return domain.Node{}, err
	}
	if !converted {
		m.sched.schedule(ctx, jobRefresh)
	}
	return out, nil
}

// Delete removes a persisted node and every connection touching it, then
// re-levels the remaining graph. The start node and temporary nodes are
// rejected without a remote call.
func (m *Manager) Delete(ctx context.Context, id string) error {
	n, ok := m.graph.Node(id)
	if !ok {
		return domain.ErrNodeNotFound
	}
	if n.Kind == domain.KindStart || n.IsFirst {
		return domain.ErrStartNodeProtected
	}
	if n.Temporary {
		return domain.ErrTemporaryNode
	}
	err := m.guard.WithLock(ctx, id, func(ctx context.Context) error {
		if _, ok := m.graph.Node(id); !ok {
			return domain.ErrNodeNotFound
		}
		if err := m.sync.Delete(ctx, id); err != nil {
			return err
		}
		if err := m.graph.Remove(id); err != nil {
			return err
		}
		m.emitNode(ctx, domain.EventNodeDeleted, n, "")
		return nil
	})
	if err != nil {
		return err
	}
	m.sched.schedule(ctx, jobLayout)
	return nil
}

// AutoLayout re-runs the layout and stores the new position of every
// persisted node. Failed position updates are logged and joined into the
// returned error; local positions are kept regardless.
func (m *Manager) AutoLayout(ctx context.Context) error {
	return m.relayout(ctx, true)
}

// Flush waits for scheduled layout and refresh work to finish.
func (m *Manager) Flush() {
	m.sched.wait()
}

// insertNew creates a node with the default payload of kind and inserts it.
func (m *Manager) insertNew(ctx context.Context, kind domain.NodeKind, pos domain.Position) (domain.Node, error) {
	content, routing := domain.NewContent(kind)
	draft := domain.Node{
		Kind:       kind,
		RecordType: domain.RecordTypeFor(kind),
		Position:   pos,
		Content:    content,
		Routing:    routing,
	}
	rec, err := m.sync.Create(ctx, graph.ToRecord(draft))
	if err != nil {
		return domain.Node{}, err
	}
	n := graph.NodeFromRecord(rec, 0)
	n.Kind = kind
	n.Position = pos
	n.IsFirst = false
	m.graph.Insert(n)
	m.emitNode(ctx, domain.EventNodeCreated, n, "")
	return n, nil
}

// convertLocked persists temporary node n. The caller holds n's guard.
func (m *Manager) convertLocked(ctx context.Context, n domain.Node) (domain.Node, error) {
	rec := graph.ToRecord(n)
	rec.ID = ""
	created, err := m.sync.Create(ctx, rec)
	if err != nil {
		return domain.Node{}, err
	}
	persisted := graph.NodeFromRecord(created, 0)
	persisted.Kind = n.Kind
	persisted.Position = n.Position
	persisted.IsFirst = n.IsFirst
	persisted.Temporary = false
	if err := m.graph.Replace(n.ID, persisted); err != nil {
		return domain.Node{}, err
	}
	m.graph.RewriteID(n.ID, persisted.ID)
	persisted, _ = m.graph.Node(persisted.ID)
	m.logger.Info("temporary node converted", "tenant", m.sync.Tenant(), "prev_id", n.ID, "node_id", persisted.ID)
	m.emitNode(ctx, domain.EventNodeConverted, persisted, n.ID)
	return persisted, nil
}

// linkLocked routes parent to child remotely, then locally. The caller holds
// parent's guard.
func (m *Manager) linkLocked(ctx context.Context, parent domain.Node, child string) error {
	routing := parent.Routing.Coerce(parent.RecordType)
	var patch domain.RecordPatch
	if routing.Mode == domain.RoutingOptions {
		routing.Options = append(routing.Options, domain.NewChildOption(child))
		patch.Options = graph.RecordOptions(routing.Options)
	} else {
		routing.Next = child
		patch.NextQuestionID = &child
	}
	if _, err := m.sync.Update(ctx, parent.ID, patch); err != nil {
		return fmt.Errorf("failed to link parent %s: %w", parent.ID, err)
	}
	if err := m.graph.Update(parent.ID, func(n *domain.Node) { n.Routing = routing }); err != nil {
		return err
	}
	m.graph.AddConnection(graph.LocalConnection(parent, child))
	updated, _ := m.graph.Node(parent.ID)
	m.emitNode(ctx, domain.EventNodeUpdated, updated, "")
	return nil
}

func (m *Manager) relayout(ctx context.Context, persist bool) error {
	nodes, conns := m.graph.Snapshot()
	pos := layout.Positions(nodes, conns)
	m.graph.SetPositions(pos)
	m.emitGraph(ctx, domain.EventLayout)
	if !persist {
		return nil
	}

	var errs []error
	for _, n := range nodes {
		if n.Temporary {
			continue
		}
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		err := m.guard.WithLock(ctx, n.ID, func(ctx context.Context) error {
			_, err := m.sync.Update(ctx, n.ID, graph.PositionPatch(p))
			return err
		})
		if err != nil {
			m.logger.Warn("failed to save position", "tenant", m.sync.Tenant(), "node_id", n.ID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) runJob(ctx context.Context, j job) {
	switch {
	case j&jobRefresh != 0:
		if err := m.Load(ctx); err != nil {
			m.logger.Error("refresh failed", "tenant", m.sync.Tenant(), "err", err)
		}
	case j&jobLayout != 0:
		if err := m.relayout(ctx, j&jobPersist != 0); err != nil {
			m.logger.Warn("layout completed with errors", "tenant", m.sync.Tenant(), "err", err)
		}
	}
}

func (m *Manager) emitNode(ctx context.Context, t domain.EventType, n domain.Node, prev string) {
	var fn func(context.Context, *domain.NodeEvent)
	switch t {
	case domain.EventNodeCreated:
		fn = m.hooks.OnNodeCreated
	case domain.EventNodeConverted:
		fn = m.hooks.OnNodeConverted
	case domain.EventNodeUpdated:
		fn = m.hooks.OnNodeUpdated
	case domain.EventNodeDeleted:
		fn = m.hooks.OnNodeDeleted
	}
	if fn == nil {
		return
	}
	fn(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, Tenant: m.sync.Tenant()},
		NodeID:    n.ID,
		PrevID:    prev,
		Kind:      n.Kind,
		Node:      &n,
	})
}

func (m *Manager) emitGraph(ctx context.Context, t domain.EventType) {
	if m.hooks.OnGraphChanged == nil {
		return
	}
	s := m.graph.Stats()
	m.hooks.OnGraphChanged(ctx, &domain.GraphEvent{
		EventBase:   domain.EventBase{Timestamp: time.Now(), Type: t, Tenant: m.sync.Tenant()},
		Nodes:       s.Nodes,
		Connections: s.Connections,
	})
}
