package raster

import (
	"image"
	"sort"
)

// Component is a connected region of equal-valued mask pixels
type Component struct {
	Bounds        image.Rectangle
	Area          int  // Pixel count
	TouchesBorder bool // Region reaches the mask edge
	Depth         int  // Nesting level: 0 for regions touching the border
}

// Segment is a vertical run of foreground pixels [Y0, Y1) spanning columns [X0, X1)
type Segment struct {
	X0, X1 int
	Y0, Y1 int
}

// Length returns the vertical extent of the segment
func (s Segment) Length() int {
	return s.Y1 - s.Y0
}

// Components labels the 4-connected regions whose pixel value equals fg.
// Regions are returned in scan order of their first pixel.
func (m *Mask) Components(fg bool) []Component {
	return m.components(fg, false)
}

func (m *Mask) components(fg bool, eight bool) []Component {
	labels := make([]int32, len(m.Pix))
	var comps []Component
	stack := make([]int, 0, 256)

	for start := range m.Pix {
		if m.Pix[start] != fg || labels[start] != 0 {
			continue
		}
		id := int32(len(comps) + 1)
		labels[start] = id
		stack = append(stack[:0], start)

		sx, sy := start%m.W, start/m.W
		c := Component{Bounds: image.Rect(sx, sy, sx+1, sy+1)}

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%m.W, idx/m.W
			c.Area++
			if x < c.Bounds.Min.X {
				c.Bounds.Min.X = x
			}
			if x+1 > c.Bounds.Max.X {
				c.Bounds.Max.X = x + 1
			}
			if y < c.Bounds.Min.Y {
				c.Bounds.Min.Y = y
			}
			if y+1 > c.Bounds.Max.Y {
				c.Bounds.Max.Y = y + 1
			}
			if x == 0 || y == 0 || x == m.W-1 || y == m.H-1 {
				c.TouchesBorder = true
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if !eight && dx != 0 && dy != 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.W || ny >= m.H {
						continue
					}
					n := ny*m.W + nx
					if m.Pix[n] == fg && labels[n] == 0 {
						labels[n] = id
						stack = append(stack, n)
					}
				}
			}
		}
		comps = append(comps, c)
	}
	return comps
}

// Hierarchy labels the regions of both polarities and assigns each a
// nesting depth: regions touching the border are depth 0, and every other
// region is one level deeper than the region enclosing it. The result
// mirrors a full contour tree flattened to its bounding rectangles.
func (m *Mask) Hierarchy() []Component {
	bg := m.Components(false)
	walls := m.components(true, true)
	all := append(bg, walls...)

	// Outer regions enclose inner ones, so process larger boxes first and
	// take the depth of the smallest strictly enclosing region.
	sort.SliceStable(all, func(i, j int) bool {
		return boundsArea(all[i].Bounds) > boundsArea(all[j].Bounds)
	})
	for i := range all {
		if all[i].TouchesBorder {
			all[i].Depth = 0
			continue
		}
		depth := 0
		best := -1
		for j := 0; j < i; j++ {
			if all[i].Bounds.In(all[j].Bounds) && all[i].Bounds != all[j].Bounds {
				if best < 0 || boundsArea(all[j].Bounds) < boundsArea(all[best].Bounds) {
					best = j
				}
			}
		}
		if best >= 0 {
			depth = all[best].Depth + 1
		}
		all[i].Depth = depth
	}
	return all
}

func boundsArea(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// VerticalSegments extracts vertical line segments at least minLen pixels
// long: the mask is opened with a vertical element and the surviving
// 8-connected regions are reported by their bounding rectangles.
func (m *Mask) VerticalSegments(minLen int) []Segment {
	opened := m.OpenVertical(minLen)
	var segs []Segment
	for _, c := range opened.components(true, true) {
		if c.Bounds.Dy() < minLen {
			continue
		}
		segs = append(segs, Segment{
			X0: c.Bounds.Min.X, X1: c.Bounds.Max.X,
			Y0: c.Bounds.Min.Y, Y1: c.Bounds.Max.Y,
		})
	}
	return segs
}
