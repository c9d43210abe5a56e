package slicer

import (
	"image"
	gomath "math"
)

// Layer is the binary raster of one cutting plane. Pixel (x, y) is stored
// at Pix[y*Width+x]; 1 means solid.
type Layer struct {
	Index  int     // position of the plane in the stack, from 0
	Z      float32 // plane height in normalized mesh coordinates
	Width  int
	Height int
	Pix    []uint8
}

// NewLayer allocates an empty layer.
func NewLayer(index int, z float32, width, height int) *Layer {
	return &Layer{
		Index:  index,
		Z:      z,
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At reports whether (x, y) is filled. Out of range pixels are empty.
func (l *Layer) At(x, y int) bool {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return false
	}
	return l.Pix[y*l.Width+x] != 0
}

// Set marks (x, y) as filled; out of range pixels are ignored.
func (l *Layer) Set(x, y int) {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return
	}
	l.Pix[y*l.Width+x] = 1
}

// FillSpan fills rows [y0, y1) of column x, clipped to the layer.
func (l *Layer) FillSpan(x, y0, y1 int) {
	if x < 0 || x >= l.Width {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, l.Height)
	for y := y0; y < y1; y++ {
		l.Pix[y*l.Width+x] = 1
	}
}

// Filled counts the solid pixels.
func (l *Layer) Filled() int {
	n := 0
	for _, p := range l.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// Key is the plane height rounded to the nearest integer. Closely spaced
// planes can share a key; use Index when uniqueness matters.
func (l *Layer) Key() int {
	return int(gomath.Round(float64(l.Z)))
}

// Equal reports whether both layers have the same size and pixels.
func (l *Layer) Equal(other *Layer) bool {
	if l.Width != other.Width || l.Height != other.Height || len(l.Pix) != len(other.Pix) {
		return false
	}
	for i := range l.Pix {
		if (l.Pix[i] != 0) != (other.Pix[i] != 0) {
			return false
		}
	}
	return true
}

// Image converts the layer to a grayscale image, solid pixels white.
func (l *Layer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, l.Width, l.Height))
	for y := 0; y < l.Height; y++ {
		row := l.Pix[y*l.Width : (y+1)*l.Width]
		dst := img.Pix[y*img.Stride : y*img.Stride+l.Width]
		for x, p := range row {
			if p != 0 {
				dst[x] = 0xFF
			}
		}
	}
	return img
}
