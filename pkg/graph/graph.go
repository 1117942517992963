package graph

import (
	"strings"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Stats summarizes the current graph.
type Stats struct {
	Nodes       int `json:"nodes"`
	Connections int `json:"connections"`
	Temporary   int `json:"temporary"`
}

// Graph is the node/connection collection owned by one editing session.
// All methods are safe for concurrent use; returned values are copies.
//
// Graph keeps two invariants on every mutation: no connection references a
// node outside the set, and at most one node is marked IsFirst.
type Graph struct {
	mu    sync.RWMutex
	nodes []domain.Node
	conns []domain.Connection
}

// New creates a graph from nodes and connections. Dangling connections are dropped.
func New(nodes []domain.Node, conns []domain.Connection) *Graph {
	g := &Graph{}
	g.Reset(nodes, conns)
	return g
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []domain.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Connections returns the derived edges.
func (g *Graph) Connections() []domain.Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]domain.Connection(nil), g.conns...)
}

// Snapshot returns nodes and connections read under the same lock.
func (g *Graph) Snapshot() ([]domain.Node, []domain.Connection) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]domain.Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = n.Clone()
	}
	return nodes, append([]domain.Connection(nil), g.conns...)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (domain.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i := g.index(id)
	if i < 0 {
		return domain.Node{}, false
	}
	return g.nodes[i].Clone(), true
}

// First returns the entry node, if any.
func (g *Graph) First() (domain.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		if n.IsFirst {
			return n.Clone(), true
		}
	}
	return domain.Node{}, false
}

// Insert appends a node. An existing node with the same id is replaced instead.
// If another node already holds IsFirst, the inserted node loses the flag.
func (g *Graph) Insert(n domain.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.index(n.ID); i >= 0 {
		g.nodes[i] = g.exclusiveFirst(n, i)
		return
	}
	g.nodes = append(g.nodes, g.exclusiveFirst(n, -1))
}

// Replace swaps the node stored under id with n, keeping its slot. n may carry
// a different id (temporary-to-persisted conversion); references are not
// rewritten here, see RewriteID.
func (g *Graph) Replace(id string, n domain.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.index(id)
	if i < 0 {
		return domain.ErrNodeNotFound
	}
	g.nodes[i] = g.exclusiveFirst(n, i)
	return nil
}

// Update applies fn to the stored node in place.
// fn must not change the node id.
func (g *Graph) Update(id string, fn func(*domain.Node)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.index(id)
	if i < 0 {
		return domain.ErrNodeNotFound
	}
	n := g.nodes[i].Clone()
	fn(&n)
	n.ID = id
	g.nodes[i] = g.exclusiveFirst(n, i)
	return nil
}

// Remove deletes a node and every connection touching it.
func (g *Graph) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.index(id)
	if i < 0 {
		return domain.ErrNodeNotFound
	}
	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
	kept := g.conns[:0]
	for _, c := range g.conns {
		if c.Source != id && c.Target != id {
			kept = append(kept, c)
		}
	}
	g.conns = kept
	return nil
}

// AddConnection appends an edge. Edges with a missing endpoint, self edges and
// duplicates (same id or same source, target and label) are ignored. It reports
// whether the edge was added.
func (g *Graph) AddConnection(c domain.Connection) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.valid(c) {
		return false
	}
	for _, existing := range g.conns {
		if existing.ID == c.ID || (existing.Source == c.Source && existing.Target == c.Target && existing.Label == c.Label) {
			return false
		}
	}
	g.conns = append(g.conns, c)
	return true
}

// RewriteID replaces every reference to oldID, in connections and in the
// routing of other nodes, with newID.
func (g *Graph) RewriteID(oldID, newID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.conns {
		c := &g.conns[i]
		if c.Source == oldID {
			c.Source = newID
		}
		if c.Target == oldID {
			c.Target = newID
		}
		c.ID = rewriteConnectionID(c.ID, oldID, newID)
	}
	for i := range g.nodes {
		if g.nodes[i].Routing.RoutesTo(oldID) {
			g.nodes[i].Routing = g.nodes[i].Routing.RewriteTarget(oldID, newID)
		}
	}
}

// SetPositions moves the listed nodes. Unknown ids are ignored.
func (g *Graph) SetPositions(pos map[string]domain.Position) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.nodes {
		if p, ok := pos[g.nodes[i].ID]; ok {
			g.nodes[i].Position = p
		}
	}
}

// Reset replaces the whole graph.
func (g *Graph) Reset(nodes []domain.Node, conns []domain.Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		g.nodes = append(g.nodes, g.exclusiveFirst(n.Clone(), -1))
	}
	g.conns = nil
	for _, c := range conns {
		if g.valid(c) {
			g.conns = append(g.conns, c)
		}
	}
}

// Stats returns counters for the status bar and metrics.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Stats{Nodes: len(g.nodes), Connections: len(g.conns)}
	for _, n := range g.nodes {
		if n.Temporary {
			s.Temporary++
		}
	}
	return s
}

func (g *Graph) index(id string) int {
	for i, n := range g.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (g *Graph) valid(c domain.Connection) bool {
	return c.Source != c.Target && g.index(c.Source) >= 0 && g.index(c.Target) >= 0
}

// exclusiveFirst clears IsFirst on n when a node other than slot already has it.
func (g *Graph) exclusiveFirst(n domain.Node, slot int) domain.Node {
	if !n.IsFirst {
		return n
	}
	for i, other := range g.nodes {
		if i != slot && other.IsFirst {
			n.IsFirst = false
			if n.Kind == domain.KindStart {
				n.Kind = domain.KindFor(n.RecordType, false)
			}
			return n
		}
	}
	return n
}

func rewriteConnectionID(id, oldID, newID string) string {
	if rest, ok := strings.CutPrefix(id, "conn-"+oldID+"-"); ok {
		id = "conn-" + newID + "-" + rest
	}
	if head, ok := strings.CutSuffix(id, "-"+oldID); ok {
		id = head + "-" + newID
	}
	return id
}
