package model

import (
	"image"
	"sort"
)

// Point represents a 2D pixel position
type Point struct {
	X, Y int
}

// Box represents an axis-aligned pixel rectangle (top-left origin)
type Box struct {
	X int // Left
	Y int // Top (raster coordinate system)
	W int
	H int
}

// NewBox creates a box from coordinates
func NewBox(x, y, w, h int) Box {
	return Box{X: x, Y: y, W: w, H: h}
}

// BoxFromRect converts an image.Rectangle into a Box
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Left returns the left edge X coordinate
func (b Box) Left() int {
	return b.X
}

// Right returns the right edge X coordinate (exclusive)
func (b Box) Right() int {
	return b.X + b.W
}

// Top returns the top edge Y coordinate
func (b Box) Top() int {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate (exclusive)
func (b Box) Bottom() int {
	return b.Y + b.H
}

// Center returns the center point, rounded down
func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Area returns the area of the box
func (b Box) Area() int {
	return b.W * b.H
}

// Aspect returns width divided by height, or 0 for a degenerate box
func (b Box) Aspect() float64 {
	if b.H == 0 {
		return 0
	}
	return float64(b.W) / float64(b.H)
}

// IsEmpty returns true if the box has zero area
func (b Box) IsEmpty() bool {
	return b.W <= 0 || b.H <= 0
}

// Rect returns the box as an image.Rectangle
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Intersection returns the overlapping region of two boxes, or an empty box
func (b Box) Intersection(other Box) Box {
	left := max(b.Left(), other.Left())
	top := max(b.Top(), other.Top())
	right := min(b.Right(), other.Right())
	bottom := min(b.Bottom(), other.Bottom())
	if right <= left || bottom <= top {
		return Box{}
	}
	return Box{X: left, Y: top, W: right - left, H: bottom - top}
}

// IoU returns the intersection-over-union ratio of two boxes in [0, 1].
// Two empty boxes have an IoU of 0.
func IoU(a, b Box) float64 {
	inter := a.Intersection(b).Area()
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SortReadingOrder sorts boxes top-to-bottom, then left-to-right
func SortReadingOrder(boxes []Box) {
	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].Y != boxes[j].Y {
			return boxes[i].Y < boxes[j].Y
		}
		return boxes[i].X < boxes[j].X
	})
}
