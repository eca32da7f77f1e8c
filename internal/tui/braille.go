package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
	fg   [][]string
	// glyphs drawn over the braille layer (markers)
	glyph [][]rune
	bold  [][]bool
}

func newBrailleBuf(w, h int) *brailleBuf {
	b := &brailleBuf{
		w:     w,
		h:     h,
		m:     make([][]uint8, h),
		fg:    make([][]string, h),
		glyph: make([][]rune, h),
		bold:  make([][]bool, h),
	}
	for i := 0; i < h; i++ {
		b.m[i] = make([]uint8, w)
		b.fg[i] = make([]string, w)
		b.glyph[i] = make([]rune, w)
		b.bold[i] = make([]bool, w)
	}
	return b
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell). The cell takes
// the colour of the last pixel drawn into it.
func (b *brailleBuf) setPixel(mx, my int, color string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return
	}
	var bit uint8
	if rx == 0 {
		switch ry {
		case 0:
			bit = 0x01
		case 1:
			bit = 0x02
		case 2:
			bit = 0x04
		case 3:
			bit = 0x40
		}
	} else {
		switch ry {
		case 0:
			bit = 0x08
		case 1:
			bit = 0x10
		case 2:
			bit = 0x20
		case 3:
			bit = 0x80
		}
	}
	b.m[cy][cx] |= bit
	if color != "" {
		b.fg[cy][cx] = color
	}
}

// put draws a glyph over the cell at cell coords.
func (b *brailleBuf) put(cx, cy int, r rune, color string, bold bool) {
	if cx < 0 || cy < 0 || cx >= b.w || cy >= b.h {
		return
	}
	b.glyph[cy][cx] = r
	b.fg[cy][cx] = color
	b.bold[cy][cx] = bold
}

// drawLineMicro draws a line on the microgrid using Bresenham. dash holds
// alternating on/off run lengths in micro-pixels; nil draws solid.
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1 int, color string, dash []int) {
	// both ends beyond the same edge: nothing to draw
	wMic, hMic := b.w*2, b.h*4
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= wMic && x1 >= wMic) || (y0 >= hMic && y1 >= hMic) {
		return
	}
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	step := 0
	for {
		if dashOn(dash, step) {
			b.setPixel(x0, y0, color)
		}
		step++
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func dashOn(dash []int, step int) bool {
	total := 0
	for _, d := range dash {
		total += d
	}
	if total <= 0 {
		return true
	}
	pos := step % total
	for i, d := range dash {
		if pos < d {
			return i%2 == 0
		}
		pos -= d
	}
	return true
}

// toLines renders the buffer, colouring runs of cells that share a style.
func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var sb strings.Builder
		var run []rune
		runFg, runBold := "", false
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runFg == "" && !runBold {
				sb.WriteString(string(run))
			} else {
				st := lipgloss.NewStyle().Bold(runBold)
				if runFg != "" {
					st = st.Foreground(lipgloss.Color(runFg))
				}
				sb.WriteString(st.Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < b.w; x++ {
			r := ' '
			fg, bold := "", false
			switch {
			case b.glyph[y][x] != 0:
				r, fg, bold = b.glyph[y][x], b.fg[y][x], b.bold[y][x]
			case b.m[y][x] != 0:
				r, fg = rune(0x2800+int(b.m[y][x])), b.fg[y][x]
			}
			if r == ' ' {
				fg, bold = "", false
			}
			if fg != runFg || bold != runBold {
				flush()
				runFg, runBold = fg, bold
			}
			run = append(run, r)
		}
		flush()
		out[y] = sb.String()
	}
	return out
}
