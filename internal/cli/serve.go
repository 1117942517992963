package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/config"
	httpAdapter "github.com/aretw0/flowcanvas/pkg/adapters/http"
	"github.com/aretw0/flowcanvas/pkg/adapters/ws"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown of Serve.
const ShutdownTimeout = 5 * time.Second

// Stack is everything `serve` runs: the store, the editing engine for the
// configured tenant and the WebSocket hub driving it.
type Stack struct {
	Backend *Backend
	Engine  *flowcanvas.Engine
	Hub     *ws.Hub
	Metrics *observability.Metrics

	cfg    *config.Config
	logger *slog.Logger
}

// NewStack opens the backend and the engine. A flow that fails to load is
// logged and the editor keeps its fallback start node.
func NewStack(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	b, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Stack{
		Backend: b,
		Hub:     ws.NewHub(ws.WithLogger(logger)),
		cfg:     cfg,
		logger:  logger,
	}
	if cfg.Server.Metrics {
		s.Metrics = observability.NewMetrics()
	}

	s.Engine, err = NewEngine(cfg, b, logger, s.Metrics,
		flowcanvas.WithLifecycleHooks(observability.LoggingHooks(logger)),
		flowcanvas.WithLifecycleHooks(s.Hub.Hooks()),
	)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if err := s.Engine.Open(ctx); err != nil {
		logger.Warn("flow failed to load, showing fallback start node", "err", err)
	}
	s.Hub.Attach(s.Engine.Editor())
	return s, nil
}

// Handler returns the question API with the editor socket on /ws.
func (s *Stack) Handler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(s.logger),
		httpAdapter.WithVersion(flowcanvas.Version),
		httpAdapter.WithRoute("/ws", s.Hub),
	}
	if s.Backend.Conversations != nil {
		opts = append(opts, httpAdapter.WithConversations(s.Backend.Conversations))
	}
	if s.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetricsHandler(s.Metrics.Handler()))
	}
	if len(s.cfg.Server.AllowedOrigins) > 0 {
		opts = append(opts, httpAdapter.WithAllowedOrigins(s.cfg.Server.AllowedOrigins...))
	}
	return httpAdapter.NewServer(s.Backend.Store, opts...).Handler()
}

// Close flushes pending layout work and releases the backend.
func (s *Stack) Close() error {
	return errors.Join(s.Engine.Close(), s.Backend.Close())
}

// Serve listens on cfg.Server.Addr until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	stack, err := NewStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Error("close failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           stack.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("flowcanvas server listening",
			"address", srv.Addr,
			"tenant", cfg.Tenant,
			"backend", stack.Backend.Name,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("flowcanvas server stopped gracefully")
		return nil
	})
	return g.Wait()
}
