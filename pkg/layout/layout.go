package layout

import "github.com/aretw0/flowcanvas/pkg/domain"

// Layout constants, in canvas units.
const (
	LevelHeight = 280
	NodeSpacing = 320
	StartY      = 150
	CenterX     = 600
)

// Depths assigns every node its breadth-first distance from the nearest root.
// Roots are nodes without an inbound connection. Nodes unreachable from any
// root (cycles with no entry) get depth 0.
func Depths(nodes []domain.Node, conns []domain.Connection) map[string]int {
	t := newTopology(nodes, conns)
	return t.depths()
}

// Positions computes the layout without modifying nodes.
func Positions(nodes []domain.Node, conns []domain.Connection) map[string]domain.Position {
	t := newTopology(nodes, conns)
	depth := t.depths()

	maxDepth := 0
	levels := map[int][]string{}
	for _, n := range nodes {
		d := depth[n.ID]
		levels[d] = append(levels[d], n.ID)
		if d > maxDepth {
			maxDepth = d
		}
	}

	pos := make(map[string]domain.Position, len(nodes))
	for d := 0; d <= maxDepth; d++ {
		level := levels[d]
		if len(level) == 0 {
			continue
		}
		y := float64(StartY + d*LevelHeight)
		if d == 0 {
			for i, id := range level {
				pos[id] = domain.Position{X: rowX(CenterX, i, len(level)), Y: y}
			}
			continue
		}
		t.placeLevel(level, y, pos)
	}
	return pos
}

// Apply returns copies of nodes moved to their computed positions.
func Apply(nodes []domain.Node, conns []domain.Connection) []domain.Node {
	pos := Positions(nodes, conns)
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
		if p, ok := pos[n.ID]; ok {
			out[i].Position = p
		}
	}
	return out
}

// rowX is the x of item i in a row of n items centered on cx.
func rowX(cx float64, i, n int) float64 {
	if n == 1 {
		return cx
	}
	width := float64(n-1) * NodeSpacing
	return cx - width/2 + float64(i)*NodeSpacing
}

type topology struct {
	order    []string
	known    map[string]bool
	parent   map[string]string
	children map[string][]string
}

func newTopology(nodes []domain.Node, conns []domain.Connection) *topology {
	t := &topology{
		known:    make(map[string]bool, len(nodes)),
		parent:   make(map[string]string, len(nodes)),
		children: make(map[string][]string, len(nodes)),
	}
	for _, n := range nodes {
		if t.known[n.ID] {
			continue
		}
		t.known[n.ID] = true
		t.order = append(t.order, n.ID)
	}
	seen := map[[2]string]bool{}
	for _, c := range conns {
		if !t.known[c.Source] || !t.known[c.Target] || c.Source == c.Target {
			continue
		}
		t.parent[c.Target] = c.Source // last writer wins
		edge := [2]string{c.Source, c.Target}
		if !seen[edge] {
			seen[edge] = true
			t.children[c.Source] = append(t.children[c.Source], c.Target)
		}
	}
	return t
}

func (t *topology) depths() map[string]int {
	depth := make(map[string]int, len(t.order))
	var queue []string
	for _, id := range t.order {
		if _, ok := t.parent[id]; !ok {
			depth[id] = 0
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range t.children[id] {
			if _, ok := depth[child]; ok {
				continue
			}
			depth[child] = depth[id] + 1
			queue = append(queue, child)
		}
	}
	for _, id := range t.order {
		if _, ok := depth[id]; !ok {
			depth[id] = 0
		}
	}
	return depth
}

// placeLevel positions one non-root level. A parent must have been placed in
// pos earlier in this run; otherwise the node falls back to a slot right of
// center keyed by its index in the level.
func (t *topology) placeLevel(level []string, y float64, pos map[string]domain.Position) {
	inLevel := make(map[string]bool, len(level))
	for _, id := range level {
		inLevel[id] = true
	}

	placed := make(map[string]bool, len(level))
	for _, id := range level {
		if placed[id] {
			continue
		}
		p, ok := t.parent[id]
		if !ok {
			continue
		}
		parentPos, ok := pos[p]
		if !ok {
			continue
		}
		var siblings []string
		for _, c := range t.children[p] {
			if inLevel[c] && !placed[c] {
				siblings = append(siblings, c)
			}
		}
		for i, s := range siblings {
			pos[s] = domain.Position{X: rowX(parentPos.X, i, len(siblings)), Y: y}
			placed[s] = true
		}
	}

	for i, id := range level {
		if !placed[id] {
			pos[id] = domain.Position{X: float64(CenterX + i*NodeSpacing), Y: y}
		}
	}
}
