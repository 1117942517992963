package viewport

import (
	"math"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Zoom limits.
const (
	ZoomFactor = 1.2
	MinScale   = 0.3
	MaxScale   = 2.0

	// GridSpacing is the distance between background dots at scale 1.
	GridSpacing = 20
)

// Transform maps canvas space to screen space: screen = canvas*Scale + (X, Y).
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Identity is the transform on load and after reset.
func Identity() Transform {
	return Transform{Scale: 1}
}

// ZoomIn multiplies the scale by ZoomFactor. Zoom is about the canvas origin;
// the translation is left as is.
func (t Transform) ZoomIn() Transform {
	t.Scale = clampScale(t.Scale * ZoomFactor)
	return t
}

// ZoomOut divides the scale by ZoomFactor.
func (t Transform) ZoomOut() Transform {
	t.Scale = clampScale(t.Scale / ZoomFactor)
	return t
}

// ScreenToCanvas converts a screen point, given the container's top-left
// corner on screen, to canvas space.
func (t Transform) ScreenToCanvas(screen, origin domain.Position) domain.Position {
	return domain.Position{
		X: (screen.X - origin.X - t.X) / t.Scale,
		Y: (screen.Y - origin.Y - t.Y) / t.Scale,
	}
}

// CanvasToScreen is the inverse of ScreenToCanvas.
func (t Transform) CanvasToScreen(canvas, origin domain.Position) domain.Position {
	return domain.Position{
		X: canvas.X*t.Scale + t.X + origin.X,
		Y: canvas.Y*t.Scale + t.Y + origin.Y,
	}
}

// GridSize is the on-screen spacing of the background dot grid.
func (t Transform) GridSize() float64 {
	return GridSpacing * t.Scale
}

// Percent is the scale as a rounded percentage, for display.
func (t Transform) Percent() int {
	return int(math.Round(t.Scale * 100))
}

// Size is a screen extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Fit returns the transform that frames the canvas rectangle [lo, hi] inside
// a viewport of the given size, leaving padding on every side. The scale is
// clamped to the zoom limits.
func Fit(lo, hi domain.Position, view Size, padding float64) Transform {
	w, h := hi.X-lo.X, hi.Y-lo.Y
	availW, availH := view.Width-2*padding, view.Height-2*padding
	if w <= 0 || h <= 0 || availW <= 0 || availH <= 0 {
		return Identity()
	}
	scale := clampScale(math.Min(availW/w, availH/h))
	cx, cy := (lo.X+hi.X)/2, (lo.Y+hi.Y)/2
	return Transform{
		X:     view.Width/2 - cx*scale,
		Y:     view.Height/2 - cy*scale,
		Scale: scale,
	}
}

func clampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}
