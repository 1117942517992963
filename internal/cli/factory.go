package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/adapters/file"
	"github.com/aretw0/flowcanvas/internal/config"
	"github.com/aretw0/flowcanvas/internal/logging"
	httpAdapter "github.com/aretw0/flowcanvas/pkg/adapters/http"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/adapters/redis"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/persistence/middleware"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Backend is an opened record store plus the optional capabilities the
// configured backend offers.
type Backend struct {
	Name          string
	Store         ports.RecordStore
	Conversations ports.ConversationReader
	Locker        ports.DistributedLocker

	close func() error
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// NewLogger builds the process logger from the configured level.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// OpenStore opens the record store selected by cfg.Store.Backend. The redis
// backend is pinged so a bad address fails here rather than on first edit.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Name: cfg.Store.Backend}

	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		b.Name = config.BackendMemory
		b.Store = memory.NewStore()
	case config.BackendFile:
		b.Store = file.New(cfg.Store.Path)
	case config.BackendRedis:
		rc := cfg.Store.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix))
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Client().Close()
			return nil, fmt.Errorf("redis %s unreachable: %w", rc.Addr, err)
		}
		b.Store = store
		b.close = store.Client().Close
		if rc.Locks {
			b.Locker = redis.NewLocker(store.Client(), rc.Prefix)
		}
	case config.BackendHTTP:
		b.Store = httpAdapter.NewClient(cfg.Store.HTTP.BaseURL, httpAdapter.WithTimeout(cfg.Store.HTTP.Timeout))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if r, ok := b.Store.(ports.ConversationReader); ok {
		b.Conversations = r
		if len(cfg.Store.MaskAnswers) > 0 {
			mask, err := middleware.NewMaskMiddleware(cfg.Store.MaskAnswers)
			if err != nil {
				_ = b.Close()
				return nil, err
			}
			b.Conversations = mask(r)
		}
	}
	logger.Debug("store opened", "backend", b.Name, "locks", b.Locker != nil)
	return b, nil
}

// NewEngine builds an engine for cfg.Tenant on top of b.
func NewEngine(cfg *config.Config, b *Backend, logger *slog.Logger, metrics *observability.Metrics, extra ...flowcanvas.Option) (*flowcanvas.Engine, error) {
	opts := []flowcanvas.Option{
		flowcanvas.WithLogger(logger),
		flowcanvas.WithRelayoutDelay(cfg.Editor.RelayoutDelay),
		flowcanvas.WithLockTTL(cfg.Editor.LockTTL),
	}
	if metrics != nil {
		opts = append(opts, flowcanvas.WithMetrics(metrics))
	}
	if b.Locker != nil {
		opts = append(opts, flowcanvas.WithLocker(b.Locker))
	}
	if b.Conversations != nil {
		opts = append(opts, flowcanvas.WithConversations(b.Conversations))
	}
	opts = append(opts, extra...)

	engine, err := flowcanvas.New(b.Store, cfg.Tenant, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
