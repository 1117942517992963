package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	node := func(ctx context.Context, e *domain.NodeEvent) {
		attrs := []any{"tenant", e.Tenant, "node_id", e.NodeID}
		if e.PrevID != "" {
			attrs = append(attrs, "prev_id", e.PrevID)
		}
		if e.Kind != "" {
			attrs = append(attrs, "kind", e.Kind)
		}
		logger.InfoContext(ctx, string(e.Type), attrs...)
	}
	return domain.LifecycleHooks{
		OnNodeCreated:   node,
		OnNodeConverted: node,
		OnNodeUpdated:   node,
		OnNodeDeleted:   node,
		OnGraphChanged: func(ctx context.Context, e *domain.GraphEvent) {
			logger.DebugContext(ctx, string(e.Type),
				"tenant", e.Tenant,
				"nodes", e.Nodes,
				"connections", e.Connections,
			)
		},
	}
}
