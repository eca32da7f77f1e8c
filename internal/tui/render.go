package tui

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"tpsmap/internal/geom"
	"tpsmap/internal/layer"
	"tpsmap/internal/mapview"
	"tpsmap/internal/store"
)

const (
	markerGlyph   = '●'
	selectedGlyph = '◉'
	// shapes closer than this many micro-pixels to a click are hit
	hitTolerance = 3.0
)

// degPerMicro is the map scale: degrees per braille micro-pixel. Micro-pixels
// are roughly square, so the same scale serves both axes.
func degPerMicro(zoom float64) float64 {
	return 5.625 / math.Pow(2, zoom)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// screenXYMicro maps a position into the 2x4 microgrid of a w x h cell
// canvas centred on the current view.
func (m Model) screenXYMicro(p geom.LatLng, w, h int) (int, int) {
	c := m.view.Center()
	d := degPerMicro(m.view.Zoom())
	mx := int(math.Round((p.Lng-c.Lng)/d)) + w
	my := int(math.Round((c.Lat-p.Lat)/d)) + h*2
	return mx, my
}

// screenXY maps a position to cell coordinates.
func (m Model) screenXY(p geom.LatLng, w, h int) (int, int) {
	mx, my := m.screenXYMicro(p, w, h)
	return floorDiv(mx, 2), floorDiv(my, 4)
}

// cellToLatLng converts the centre of a map cell back to a position.
func (m Model) cellToLatLng(cx, cy, w, h int) geom.LatLng {
	c := m.view.Center()
	d := degPerMicro(m.view.Zoom())
	mx := cx*2 + 1
	my := cy*4 + 2
	return geom.LatLng{
		Lat: c.Lat - float64(my-h*2)*d,
		Lng: c.Lng + float64(mx-w)*d,
	}
}

// pan moves the view by whole cells.
func (m Model) pan(dx, dy int) {
	c := m.view.Center()
	d := degPerMicro(m.view.Zoom())
	c.Lng += float64(dx*2) * d
	c.Lat -= float64(dy*4) * d
	m.view.SetView(c, m.view.Zoom())
}

func (m Model) renderMap(w, h int) string {
	br := newBrailleBuf(w, h)
	groups := m.view.Visible()

	for _, g := range groups {
		for _, o := range g.Objects {
			switch o.Kind {
			case mapview.Polygon:
				m.drawPolygon(br, o, w, h)
			case mapview.Polyline:
				m.drawPolyline(br, o, w, h)
			}
		}
	}

	// markers last so they stay on top of shapes
	selected, hasSel := m.coord.Current().Index()
	for _, g := range groups {
		for _, o := range g.Objects {
			if o.Kind != mapview.Marker {
				continue
			}
			cx, cy := m.screenXY(o.Position, w, h)
			glyph, bold := markerGlyph, false
			switch {
			case g.Name == layer.LocationLayer:
				if r := []rune(o.Style.Symbol); len(r) > 0 {
					glyph = r[0]
				}
				bold = true
			case g.Name == string(store.TPS) && hasSel && o.Index == selected:
				glyph, bold = selectedGlyph, true
			}
			br.put(cx, cy, glyph, o.Style.Color, bold)
		}
	}
	return strings.Join(br.toLines(), "\n")
}

func (m Model) drawPolyline(br *brailleBuf, o mapview.Object, w, h int) {
	dash := parseDash(o.Style.DashArray)
	thick := o.Style.Weight >= 3
	for _, path := range o.Paths {
		var prev *[2]int
		for _, p := range path {
			mx, my := m.screenXYMicro(p, w, h)
			if prev != nil {
				br.drawLineMicro(prev[0], prev[1], mx, my, o.Style.Color, dash)
				if thick {
					br.drawLineMicro(prev[0], prev[1]+1, mx, my+1, o.Style.Color, dash)
				}
			}
			prev = &[2]int{mx, my}
		}
	}
}

func (m Model) drawPolygon(br *brailleBuf, o mapview.Object, w, h int) {
	dash := parseDash(o.Style.DashArray)
	for _, ring := range o.Paths {
		mic := make([][2]int, 0, len(ring))
		for _, p := range ring {
			mx, my := m.screenXYMicro(p, w, h)
			mic = append(mic, [2]int{mx, my})
		}
		if len(mic) < 3 {
			continue
		}
		if o.Style.FillOpacity > 0 {
			fillRing(br, mic, h*4, o.Style.Color, o.Style.FillOpacity)
		}
		for i := 0; i < len(mic); i++ {
			a := mic[i]
			b := mic[(i+1)%len(mic)]
			br.drawLineMicro(a[0], a[1], b[0], b[1], o.Style.Color, dash)
		}
	}
}

// fillRing stipples the inside of a ring using the even-odd rule per
// micro scanline. Sparser stipple stands in for lower fill opacity.
func fillRing(br *brailleBuf, ring [][2]int, hMic int, color string, opacity float64) {
	wMic := br.w * 2
	for yMic := 0; yMic < hMic; yMic++ {
		var xs []int
		for i := 0; i < len(ring); i++ {
			a := ring[i]
			b := ring[(i+1)%len(ring)]
			if a[1] == b[1] { // horizontal edge: skip
				continue
			}
			y0, y1 := a[1], b[1]
			x0, x1 := a[0], b[0]
			if (yMic >= y0 && yMic < y1) || (yMic >= y1 && yMic < y0) {
				t := float64(yMic-y0) / float64(y1-y0)
				xs = append(xs, int(float64(x0)+t*float64(x1-x0)))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xstart, xend := xs[i], xs[i+1]
			for xMic := max(0, xstart); xMic <= xend && xMic < wMic; xMic++ {
				if stipple(xMic, yMic, opacity) {
					br.setPixel(xMic, yMic, color)
				}
			}
		}
	}
}

func stipple(mx, my int, opacity float64) bool {
	switch {
	case opacity >= 0.5:
		return true
	case opacity >= 0.2:
		return (mx+my)%4 == 0
	default:
		return mx%4 == 0 && my%4 == 0
	}
}

// parseDash reads a dash array such as "5, 5". Anything unparsable draws solid.
func parseDash(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// hitMarker returns the visible marker drawn at, or next to, cell (cx, cy).
func (m Model) hitMarker(cx, cy, w, h int) (string, int, bool) {
	bestLayer, bestIndex, best := "", 0, math.MaxInt
	for _, g := range m.view.Visible() {
		for _, o := range g.Objects {
			if o.Kind != mapview.Marker {
				continue
			}
			sx, sy := m.screenXY(o.Position, w, h)
			dx, dy := abs(sx-cx), abs(sy-cy)
			if dx > 1 || dy > 1 {
				continue
			}
			// later groups draw on top and win ties
			if d := dx + dy; d <= best {
				bestLayer, bestIndex, best = g.Name, o.Index, d
			}
		}
	}
	return bestLayer, bestIndex, best != math.MaxInt
}

// hitShape returns the topmost visible line or polygon under cell (cx, cy).
func (m Model) hitShape(cx, cy, w, h int) (string, int, bool) {
	click := orb.Point{float64(cx*2 + 1), float64(cy*4 + 2)}
	pos := geom.FromLatLng(m.cellToLatLng(cx, cy, w, h))
	groups := m.view.Visible()
	for gi := len(groups) - 1; gi >= 0; gi-- {
		g := groups[gi]
		for oi := len(g.Objects) - 1; oi >= 0; oi-- {
			o := g.Objects[oi]
			switch o.Kind {
			case mapview.Polyline:
				if m.nearPath(o.Paths, click, w, h) {
					return g.Name, o.Index, true
				}
			case mapview.Polygon:
				for _, ring := range o.Paths {
					r := make(orb.Ring, 0, len(ring))
					for _, p := range ring {
						r = append(r, geom.FromLatLng(p))
					}
					if planar.RingContains(r, pos) {
						return g.Name, o.Index, true
					}
				}
			}
		}
	}
	return "", 0, false
}

func (m Model) nearPath(paths [][]geom.LatLng, click orb.Point, w, h int) bool {
	for _, path := range paths {
		for i := 0; i+1 < len(path); i++ {
			ax, ay := m.screenXYMicro(path[i], w, h)
			bx, by := m.screenXYMicro(path[i+1], w, h)
			a := orb.Point{float64(ax), float64(ay)}
			b := orb.Point{float64(bx), float64(by)}
			if planar.DistanceFromSegment(a, b, click) <= hitTolerance {
				return true
			}
		}
	}
	return false
}
