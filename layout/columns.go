package layout

import (
	"sort"

	"github.com/tsawler/timetable/model"
)

// Columns derives the day column spans from the day headers. Columns are
// ordered left to right; X is the header's horizontal center.
func Columns(days []model.DayBox, tolerance, extension int) []model.DayColumn {
	if len(days) == 0 {
		return nil
	}

	sorted := make([]model.DayBox, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Center().X < sorted[j].Box.Center().X
	})

	cols := make([]model.DayColumn, len(sorted))
	for i, d := range sorted {
		cols[i] = model.DayColumn{Label: d.Label, X: d.Box.Center().X}
	}
	for i := range cols {
		if i == 0 {
			cols[i].Start = sorted[i].Box.Left() - tolerance
		} else {
			cols[i].Start = (cols[i-1].X + cols[i].X) / 2
		}
		if i == len(cols)-1 {
			cols[i].End = sorted[i].Box.Right() + extension
		} else {
			cols[i].End = (cols[i].X + cols[i+1].X) / 2
		}
	}
	return cols
}

// Assign returns the label of the column containing the horizontal center
// of box, or "" when no column does.
func Assign(cols []model.DayColumn, box model.Box) string {
	x := box.Center().X
	for _, c := range cols {
		if c.Contains(x) {
			return c.Label
		}
	}
	return ""
}
