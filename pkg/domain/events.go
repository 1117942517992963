package domain

import (
	"context"
	"time"
)

// EventType defines the category of a graph event.
type EventType string

const (
	EventNodeCreated   EventType = "node_created"
	EventNodeConverted EventType = "node_converted"
	EventNodeUpdated   EventType = "node_updated"
	EventNodeDeleted   EventType = "node_deleted"
	EventLayout        EventType = "layout"
	EventReload        EventType = "reload"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Tenant    string    `json:"tenant"`
}

// NodeEvent reports a node mutation that has been applied locally.
type NodeEvent struct {
	EventBase
	NodeID string   `json:"node_id"`
	PrevID string   `json:"prev_id,omitempty"` // set on conversion
	Kind   NodeKind `json:"kind,omitempty"`
	Node   *Node    `json:"node,omitempty"`
}

// GraphEvent reports a whole-graph change (layout or reload).
type GraphEvent struct {
	EventBase
	Nodes       int `json:"nodes"`
	Connections int `json:"connections"`
}

// LifecycleHooks defines callbacks fired after local graph mutations.
type LifecycleHooks struct {
	OnNodeCreated   func(context.Context, *NodeEvent)
	OnNodeConverted func(context.Context, *NodeEvent)
	OnNodeUpdated   func(context.Context, *NodeEvent)
	OnNodeDeleted   func(context.Context, *NodeEvent)
	OnGraphChanged  func(context.Context, *GraphEvent)
}

// Merge returns hooks that fire h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeCreated:   chainNode(h.OnNodeCreated, other.OnNodeCreated),
		OnNodeConverted: chainNode(h.OnNodeConverted, other.OnNodeConverted),
		OnNodeUpdated:   chainNode(h.OnNodeUpdated, other.OnNodeUpdated),
		OnNodeDeleted:   chainNode(h.OnNodeDeleted, other.OnNodeDeleted),
		OnGraphChanged:  chainGraph(h.OnGraphChanged, other.OnGraphChanged),
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainGraph(a, b func(context.Context, *GraphEvent)) func(context.Context, *GraphEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *GraphEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
