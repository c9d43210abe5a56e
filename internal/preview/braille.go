package preview

import (
	gomath "math"
	"strings"

	"github.com/Faultbox/layerslice/pkg/slicer"
)

// brailleBuf packs a 2x4 micro-pixel grid into each terminal cell.
type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

// dotBits maps a micro-pixel position inside a cell to its braille dot.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= b.w || cy >= b.h {
		return
	}
	b.m[cy][cx] |= dotBits[mx%2][my%4]
}

func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

// fit returns the cell grid a width x height layer occupies inside at most
// cols x rows cells, and the layer pixels per micro-pixel.
func fit(width, height, cols, rows int) (w, h int, scale float64) {
	scale = max(float64(width)/float64(2*cols), float64(height)/float64(4*rows))
	if scale <= 0 {
		return 0, 0, 1
	}
	w = min(cols, int(gomath.Ceil(float64(width)/scale/2)))
	h = min(rows, int(gomath.Ceil(float64(height)/scale/4)))
	return max(w, 1), max(h, 1), scale
}

// Render draws l into at most cols x rows braille cells, +Y pointing up.
// Each micro-pixel samples the layer pixel under its center.
func Render(l *slicer.Layer, cols, rows int) string {
	if l == nil || l.Width == 0 || l.Height == 0 || cols < 1 || rows < 1 {
		return ""
	}
	w, h, scale := fit(l.Width, l.Height, cols, rows)
	b := newBrailleBuf(w, h)
	for my := 0; my < 4*h; my++ {
		ly := l.Height - 1 - int((float64(my)+0.5)*scale)
		for mx := 0; mx < 2*w; mx++ {
			lx := int((float64(mx) + 0.5) * scale)
			if l.At(lx, ly) {
				b.setPixel(mx, my)
			}
		}
	}
	return strings.Join(b.toLines(), "\n")
}
