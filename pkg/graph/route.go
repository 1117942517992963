package graph

import (
	"fmt"
	"math"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// NodeHalfHeight is the vertical distance from a node's anchor to its top or bottom edge.
const NodeHalfHeight = 80

// Path is the cubic bezier drawn for a connection, in canvas space.
type Path struct {
	Start    domain.Position `json:"start"`
	Control1 domain.Position `json:"control1"`
	Control2 domain.Position `json:"control2"`
	End      domain.Position `json:"end"`
	Label    domain.Position `json:"label"`
}

// SVG renders the path as an SVG "d" attribute.
func (p Path) SVG() string {
	return fmt.Sprintf("M %g,%g C %g,%g %g,%g %g,%g",
		p.Start.X, p.Start.Y,
		p.Control1.X, p.Control1.Y,
		p.Control2.X, p.Control2.Y,
		p.End.X, p.End.Y)
}

// Point evaluates the curve at t in [0,1].
func (p Path) Point(t float64) domain.Position {
	u := 1 - t
	b0, b1, b2, b3 := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return domain.Position{
		X: b0*p.Start.X + b1*p.Control1.X + b2*p.Control2.X + b3*p.End.X,
		Y: b0*p.Start.Y + b1*p.Control1.Y + b2*p.Control2.Y + b3*p.End.Y,
	}
}

// Route computes the curve of conn. It reports false when an endpoint is missing.
func Route(conn domain.Connection, nodes []domain.Node) (Path, bool) {
	var src, dst *domain.Node
	for i := range nodes {
		switch nodes[i].ID {
		case conn.Source:
			src = &nodes[i]
		case conn.Target:
			dst = &nodes[i]
		}
	}
	if src == nil || dst == nil {
		return Path{}, false
	}
	return Between(src.Position, dst.Position), true
}

// Between computes the curve from the bottom of a node at from to the top of a node at to.
func Between(from, to domain.Position) Path {
	start := domain.Position{X: from.X, Y: from.Y + NodeHalfHeight}
	end := domain.Position{X: to.X, Y: to.Y - NodeHalfHeight}
	offset := math.Abs(end.Y-start.Y) / 3
	return Path{
		Start:    start,
		Control1: domain.Position{X: start.X, Y: start.Y + offset},
		Control2: domain.Position{X: end.X, Y: end.Y - offset},
		End:      end,
		Label: domain.Position{
			X: start.X + (end.X-start.X)/2,
			Y: start.Y + (end.Y-start.Y)/2,
		},
	}
}

// Bounds is an axis-aligned rectangle in canvas space.
type Bounds struct {
	Min domain.Position `json:"min"`
	Max domain.Position `json:"max"`
}

// Width of the rectangle.
func (b Bounds) Width() float64 { return b.Max.X - b.Min.X }

// Height of the rectangle.
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Extent returns the rectangle covering every node anchor padded by the node
// half-extents. ok is false for an empty graph.
func Extent(nodes []domain.Node, halfWidth float64) (b Bounds, ok bool) {
	for i, n := range nodes {
		lo := domain.Position{X: n.Position.X - halfWidth, Y: n.Position.Y - NodeHalfHeight}
		hi := domain.Position{X: n.Position.X + halfWidth, Y: n.Position.Y + NodeHalfHeight}
		if i == 0 {
			b = Bounds{Min: lo, Max: hi}
			continue
		}
		b.Min.X = math.Min(b.Min.X, lo.X)
		b.Min.Y = math.Min(b.Min.Y, lo.Y)
		b.Max.X = math.Max(b.Max.X, hi.X)
		b.Max.Y = math.Max(b.Max.Y, hi.Y)
	}
	return b, len(nodes) > 0
}
