// Package raster provides the binary-image primitives used to reconstruct
// ruled table grids from rendered pages and photographs.
//
// A [Mask] is a binary image in which true pixels are foreground (ink).
// Line extraction uses morphological opening with one-dimensional
// structuring elements, implemented as run-length filtering: a pixel
// survives an opening with a 1×k element exactly when it lies on a
// foreground run of at least k pixels along that axis.
package raster

import (
	"image"
	"image/color"
)

// Mask is a binary image with its origin at (0, 0)
type Mask struct {
	W, H int
	Pix  []bool
}

// NewMask creates an empty mask
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Pix: make([]bool, w*h)}
}

// At reports whether the pixel at (x, y) is foreground. Out-of-range
// coordinates are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Pix[y*m.W+x]
}

// Set sets the pixel at (x, y)
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.Pix[y*m.W+x] = v
}

// Count returns the number of foreground pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Binarize thresholds img and inverts it so that dark ink becomes
// foreground: a pixel is foreground when its luminance is below threshold.
func Binarize(img image.Image, threshold uint8) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < m.H; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X):]
			for x := 0; x < m.W; x++ {
				m.Pix[y*m.W+x] = row[x] < threshold
			}
		}
	case *image.RGBA:
		for y := 0; y < m.H; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < m.W; x++ {
				p := row[x*4 : x*4+3]
				lum := (19595*uint32(p[0]) + 38470*uint32(p[1]) + 7471*uint32(p[2]) + 1<<15) >> 16
				m.Pix[y*m.W+x] = uint8(lum) < threshold
			}
		}
	default:
		for y := 0; y < m.H; y++ {
			for x := 0; x < m.W; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				m.Pix[y*m.W+x] = g.Y < threshold
			}
		}
	}
	return m
}

// OpenVertical keeps only foreground pixels that lie on a vertical run of
// at least length pixels.
func (m *Mask) OpenVertical(length int) *Mask {
	out := NewMask(m.W, m.H)
	if length < 1 {
		length = 1
	}
	for x := 0; x < m.W; x++ {
		y := 0
		for y < m.H {
			if !m.Pix[y*m.W+x] {
				y++
				continue
			}
			start := y
			for y < m.H && m.Pix[y*m.W+x] {
				y++
			}
			if y-start >= length {
				for yy := start; yy < y; yy++ {
					out.Pix[yy*m.W+x] = true
				}
			}
		}
	}
	return out
}

// OpenHorizontal keeps only foreground pixels that lie on a horizontal run
// of at least length pixels.
func (m *Mask) OpenHorizontal(length int) *Mask {
	out := NewMask(m.W, m.H)
	if length < 1 {
		length = 1
	}
	for y := 0; y < m.H; y++ {
		row := m.Pix[y*m.W : (y+1)*m.W]
		x := 0
		for x < m.W {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < m.W && row[x] {
				x++
			}
			if x-start >= length {
				copy(out.Pix[y*m.W+start:y*m.W+x], row[start:x])
			}
		}
	}
	return out
}

// Union returns the pixel-wise OR of two masks of equal size
func Union(a, b *Mask) *Mask {
	out := NewMask(a.W, a.H)
	for i := range out.Pix {
		out.Pix[i] = a.Pix[i] || b.Pix[i]
	}
	return out
}

// Dilate grows the foreground with a 3×3 square element, passes times
func (m *Mask) Dilate(passes int) *Mask {
	cur := m
	for p := 0; p < passes; p++ {
		next := NewMask(cur.W, cur.H)
		for y := 0; y < cur.H; y++ {
			for x := 0; x < cur.W; x++ {
				if !cur.Pix[y*cur.W+x] {
					continue
				}
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						next.Set(x+dx, y+dy, true)
					}
				}
			}
		}
		cur = next
	}
	if cur == m {
		return m.Clone()
	}
	return cur
}

// Clone returns a copy of the mask
func (m *Mask) Clone() *Mask {
	out := NewMask(m.W, m.H)
	copy(out.Pix, m.Pix)
	return out
}

// Invert returns the complement of the mask
func (m *Mask) Invert() *Mask {
	out := NewMask(m.W, m.H)
	for i, v := range m.Pix {
		out.Pix[i] = !v
	}
	return out
}
