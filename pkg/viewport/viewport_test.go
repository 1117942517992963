package viewport_test

import (
	"math"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	onMove, onUp func(domain.Position)
	installs     int
	removes      int
}

func (h *fakeHost) Install(onMove, onUp func(domain.Position)) func() {
	h.installs++
	h.onMove, h.onUp = onMove, onUp
	return func() {
		h.removes++
		h.onMove, h.onUp = nil, nil
	}
}

func TestZoomIn_FiveTimesIsClamped(t *testing.T) {
	v := viewport.New(nil)
	for i := 0; i < 5; i++ {
		v.ZoomIn()
	}
	want := math.Min(1.0*math.Pow(1.2, 5), 2.0)
	assert.InDelta(t, want, v.Transform().Scale, 1e-9)
	assert.Equal(t, 2.0, v.Transform().Scale)
}

func TestZoom_Bounds(t *testing.T) {
	tr := viewport.Identity()
	for i := 0; i < 20; i++ {
		tr = tr.ZoomOut()
	}
	assert.Equal(t, viewport.MinScale, tr.Scale)

	tr = viewport.Identity().ZoomIn()
	assert.InDelta(t, 1.2, tr.Scale, 1e-9)
	assert.Equal(t, 120, tr.Percent())
	assert.Zero(t, tr.X, "zoom keeps the translation")
}

func TestScreenToCanvas(t *testing.T) {
	tr := viewport.Transform{X: 50, Y: -20, Scale: 2}
	origin := domain.Position{X: 10, Y: 30}
	screen := domain.Position{X: 260, Y: 210}

	c := tr.ScreenToCanvas(screen, origin)
	assert.Equal(t, domain.Position{X: 100, Y: 100}, c)
	assert.Equal(t, screen, tr.CanvasToScreen(c, origin))
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 20.0, viewport.Identity().GridSize())
	assert.Equal(t, 10.0, viewport.Transform{Scale: 0.5}.GridSize())
}

func TestPan_InstallsListenersOnlyDuringDrag(t *testing.T) {
	host := &fakeHost{}
	v := viewport.New(host)

	require.True(t, v.BeginPan(domain.Position{X: 100, Y: 100}, false))
	assert.True(t, v.Panning())
	assert.Equal(t, 1, host.installs)

	host.onMove(domain.Position{X: 130, Y: 90})
	assert.Equal(t, viewport.Transform{X: 30, Y: -10, Scale: 1}, v.Transform())

	host.onMove(domain.Position{X: 150, Y: 150})
	assert.Equal(t, viewport.Transform{X: 50, Y: 50, Scale: 1}, v.Transform())

	host.onUp(domain.Position{X: 150, Y: 150})
	assert.False(t, v.Panning())
	assert.Equal(t, 1, host.removes)
	assert.Nil(t, host.onMove)

	// A later move without a drag changes nothing.
	v.Move(domain.Position{X: 999, Y: 999})
	assert.Equal(t, 50.0, v.Transform().X)

	// A second drag starts from the current translation.
	require.True(t, v.BeginPan(domain.Position{X: 0, Y: 0}, false))
	host.onMove(domain.Position{X: -10, Y: 0})
	assert.Equal(t, 40.0, v.Transform().X)
}

func TestPan_IgnoredOverNode(t *testing.T) {
	host := &fakeHost{}
	v := viewport.New(host)

	assert.False(t, v.BeginPan(domain.Position{}, true))
	assert.Zero(t, host.installs)
}

func TestReset(t *testing.T) {
	v := viewport.New(nil)
	v.ZoomIn()
	v.SetTransform(viewport.Transform{X: 5, Y: 5, Scale: 9})
	assert.Equal(t, viewport.MaxScale, v.Transform().Scale)

	v.Reset()
	assert.Equal(t, viewport.Identity(), v.Transform())
}

func TestFit(t *testing.T) {
	tr := viewport.Fit(domain.Position{X: 0, Y: 0}, domain.Position{X: 400, Y: 200}, viewport.Size{Width: 1000, Height: 600}, 50)

	assert.InDelta(t, 2.0, tr.Scale, 1e-9)
	center := tr.CanvasToScreen(domain.Position{X: 200, Y: 100}, domain.Position{})
	assert.InDelta(t, 500, center.X, 1e-9)
	assert.InDelta(t, 300, center.Y, 1e-9)

	assert.Equal(t, viewport.Identity(), viewport.Fit(domain.Position{}, domain.Position{}, viewport.Size{Width: 10, Height: 10}, 0))
}
