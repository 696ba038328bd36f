// Package testimg draws synthetic ruled schedules for pipeline tests.
package testimg

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Grid describes a ruled table of Cols x Rows equal cells. Lines are Line
// pixels thick and the table sits Margin pixels from every image edge.
type Grid struct {
	Cols, Rows   int
	CellW, CellH int
	Line         int
	Margin       int
}

// Size returns the dimensions of the rendered image.
func (g Grid) Size() image.Point {
	return image.Pt(
		2*g.Margin+g.Cols*g.CellW+(g.Cols+1)*g.Line,
		2*g.Margin+g.Rows*g.CellH+(g.Rows+1)*g.Line,
	)
}

// Image renders the grid as black lines on white.
func (g Grid) Image() *image.RGBA {
	size := g.Size()
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	ink := image.NewUniform(color.Black)
	frame := g.Frame()
	for c := 0; c <= g.Cols; c++ {
		x := g.Margin + c*(g.CellW+g.Line)
		draw.Draw(img, image.Rect(x, frame.Min.Y, x+g.Line, frame.Max.Y), ink, image.Point{}, draw.Src)
	}
	for r := 0; r <= g.Rows; r++ {
		y := g.Margin + r*(g.CellH+g.Line)
		draw.Draw(img, image.Rect(frame.Min.X, y, frame.Max.X, y+g.Line), ink, image.Point{}, draw.Src)
	}
	return img
}

// Frame returns the outer rectangle of the table including its border lines.
func (g Grid) Frame() image.Rectangle {
	size := g.Size()
	return image.Rect(g.Margin, g.Margin, size.X-g.Margin, size.Y-g.Margin)
}

// Cell returns the unruled interior of the cell at (col, row).
func (g Grid) Cell(col, row int) image.Rectangle {
	x := g.Margin + g.Line + col*(g.CellW+g.Line)
	y := g.Margin + g.Line + row*(g.CellH+g.Line)
	return image.Rect(x, y, x+g.CellW, y+g.CellH)
}

// Cells returns every cell interior in row-major order.
func (g Grid) Cells() []image.Rectangle {
	cells := make([]image.Rectangle, 0, g.Cols*g.Rows)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			cells = append(cells, g.Cell(c, r))
		}
	}
	return cells
}
