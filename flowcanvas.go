package flowcanvas

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/lifecycle"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/aretw0/flowcanvas/pkg/syncer"
)

// Engine is the high-level entry point of the library. It wires a store, a
// tenant-scoped controller, the lifecycle manager and the editor.
type Engine struct {
	editor  *editor.Editor
	manager *lifecycle.Manager
	metrics *observability.Metrics
	logger  *slog.Logger

	locker        ports.DistributedLocker
	conversations ports.ConversationReader
	hooks         domain.LifecycleHooks
	delay         time.Duration
	lockTTL       time.Duration
	notify        func(editor.Notice)
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records store requests and graph mutations.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLocker serializes node mutations across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL bounds how long a distributed node lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithConversations overrides the conversation reader.
func WithConversations(r ports.ConversationReader) Option {
	return func(e *Engine) {
		e.conversations = r
	}
}

// WithLifecycleHooks registers observability hooks. Calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithRelayoutDelay sets the batching window of follow-up layout work.
func WithRelayoutDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.delay = d
	}
}

// WithNoticeHandler receives every user-facing notice.
func WithNoticeHandler(fn func(editor.Notice)) Option {
	return func(e *Engine) {
		e.notify = fn
	}
}

// New creates an Engine editing tenant's flow in store. The graph is empty
// until Open is called.
func New(store ports.RecordStore, tenant string, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:  logging.NewNop(),
		delay:   lifecycle.DefaultRelayoutDelay,
		lockTTL: lifecycle.DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	logger := e.logger.With("tenant", tenant)

	syncOpts := []syncer.Option{syncer.WithLogger(logger)}
	if e.metrics != nil {
		syncOpts = append(syncOpts, syncer.WithMetrics(e.metrics))
	}
	if e.conversations != nil {
		syncOpts = append(syncOpts, syncer.WithConversations(e.conversations))
	}
	c, err := syncer.New(store, tenant, syncOpts...)
	if err != nil {
		return nil, err
	}

	guardOpts := []lifecycle.GuardOption{
		lifecycle.WithGuardLogger(logger),
		lifecycle.WithLockTTL(e.lockTTL),
	}
	if e.locker != nil {
		guardOpts = append(guardOpts, lifecycle.WithDistributedLocker(e.locker))
	}

	mgrOpts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithGuard(lifecycle.NewGuard(guardOpts...)),
		lifecycle.WithRelayoutDelay(e.delay),
		lifecycle.WithLifecycleHooks(e.hooks),
	}
	if e.metrics != nil {
		mgrOpts = append(mgrOpts, lifecycle.WithLifecycleHooks(e.metrics.Hooks()))
	}
	e.manager = lifecycle.New(graph.New(nil, nil), c, mgrOpts...)

	edOpts := []editor.Option{editor.WithLogger(logger)}
	if e.notify != nil {
		edOpts = append(edOpts, editor.WithNoticeHandler(e.notify))
	}
	e.editor = editor.New(e.manager, edOpts...)
	return e, nil
}

// Open loads the flow. On failure the fallback start node is shown and the
// error is returned.
func (e *Engine) Open(ctx context.Context) error {
	return e.editor.Open(ctx)
}

// Editor returns the interaction layer.
func (e *Engine) Editor() *editor.Editor {
	return e.editor
}

// Manager returns the lifecycle manager.
func (e *Engine) Manager() *lifecycle.Manager {
	return e.manager
}

// Graph returns the edited graph.
func (e *Engine) Graph() *graph.Graph {
	return e.manager.Graph()
}

// Tenant returns the tenant being edited.
func (e *Engine) Tenant() string {
	return e.manager.Controller().Tenant()
}

// Close waits for scheduled layout work to finish.
func (e *Engine) Close() error {
	e.manager.Flush()
	return nil
}
