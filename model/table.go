package model

// Cell is a detected table cell candidate with optional recognized text
type Cell struct {
	Box  Box
	Text string
}

// DayBox is a header cell whose text matched a day name
type DayBox struct {
	Box   Box
	Label string // Text as recognized, upper-cased
}

// DayColumn represents a day label and the half-open x-range [Start, End)
// of data cells that belong to it
type DayColumn struct {
	Label string
	X     int
	Start int
	End   int
}

// Contains reports whether x falls within the column span
func (c DayColumn) Contains(x int) bool {
	return x >= c.Start && x < c.End
}

// Width returns the span width
func (c DayColumn) Width() int {
	return c.End - c.Start
}

// TimeAxis locates the column holding the start/end time text of every row
type TimeAxis struct {
	X int
	W int
}

// Row returns the slice of the time axis at the vertical extent of box
func (t TimeAxis) Row(box Box) Box {
	return Box{X: t.X, Y: box.Y, W: t.W, H: box.H}
}
