// Package png renders the laid-out canvas as a raster image.
package png

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Node box geometry in canvas units.
const (
	NodeWidth  = 280.0
	NodeHeight = 100.0
	Padding    = 40.0
	FontSize   = 12.0
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("nothing to export")

var kindColors = map[domain.NodeKind]string{
	domain.KindStart:          "#3b82f6",
	domain.KindChoice:         "#8b5cf6",
	domain.KindDataCollection: "#10b981",
	domain.KindMessage:        "#f59e0b",
	domain.KindEnd:            "#ef4444",
}

// Render draws nodes and connections. Node positions are box centers on the
// horizontal axis and top edges on the vertical one, as on the canvas.
func Render(nodes []domain.Node, conns []domain.Connection) (image.Image, error) {
	if len(nodes) == 0 {
		return nil, ErrEmpty
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.Position.X-NodeWidth/2)
		maxX = math.Max(maxX, n.Position.X+NodeWidth/2)
		minY = math.Min(minY, n.Position.Y)
		maxY = math.Max(maxY, n.Position.Y+NodeHeight)
	}
	offX, offY := Padding-minX, Padding-minY

	dc := gg.NewContext(int(maxX-minX+2*Padding), int(maxY-minY+2*Padding))
	dc.SetColor(color.White)
	dc.Clear()

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	byID := make(map[string]domain.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	// Connections go first so boxes cover line ends.
	for _, c := range conns {
		src, ok1 := byID[c.Source]
		dst, ok2 := byID[c.Target]
		if !ok1 || !ok2 {
			continue
		}
		drawConnection(dc, c,
			src.Position.X+offX, src.Position.Y+NodeHeight+offY,
			dst.Position.X+offX, dst.Position.Y+offY)
	}
	for _, n := range nodes {
		drawNode(dc, n, n.Position.X+offX, n.Position.Y+offY)
	}
	return dc.Image(), nil
}

// Write renders the canvas and encodes it as PNG to w.
func Write(w io.Writer, nodes []domain.Node, conns []domain.Connection) error {
	img, err := Render(nodes, conns)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

func drawConnection(dc *gg.Context, c domain.Connection, x1, y1, x2, y2 float64) {
	stroke := c.Style.Color
	if stroke == "" {
		stroke = "#6b7280"
	}
	dc.SetHexColor(stroke)
	dc.SetLineWidth(2)
	if c.Style.Dash != "" && c.Style.Dash != "0" {
		dc.SetDash(5, 5)
	}
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()
	dc.SetDash()

	drawArrow(dc, x1, y1, x2, y2)

	if c.Label != "" {
		dc.SetHexColor("#374151")
		dc.DrawStringAnchored(c.Label, (x1+x2)/2, (y1+y2)/2, 0.5, 0.5)
	}
}

func drawArrow(dc *gg.Context, fx, fy, tx, ty float64) {
	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const size, angle = 8.0, 0.5
	dc.MoveTo(tx, ty)
	dc.LineTo(tx-size*dx+size*dy*angle, ty-size*dy-size*dx*angle)
	dc.LineTo(tx-size*dx-size*dy*angle, ty-size*dy+size*dx*angle)
	dc.ClosePath()
	dc.Fill()
}

func drawNode(dc *gg.Context, n domain.Node, cx, top float64) {
	x := cx - NodeWidth/2

	dc.SetHexColor("#ffffff")
	dc.DrawRoundedRectangle(x, top, NodeWidth, NodeHeight, 8)
	dc.Fill()

	accent := kindColors[n.Kind]
	if accent == "" {
		accent = kindColors[domain.KindMessage]
	}
	dc.SetHexColor(accent)
	if n.Temporary {
		dc.SetDash(4, 4)
	}
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(x, top, NodeWidth, NodeHeight, 8)
	dc.Stroke()
	dc.SetDash()

	dc.DrawStringAnchored(strings.ToUpper(string(n.Kind)), x+12, top+16, 0, 0.5)

	dc.SetHexColor("#111827")
	dc.DrawStringWrapped(n.Content.Text, x+12, top+32, 0, 0, NodeWidth-24, 1.3, gg.AlignLeft)
}
