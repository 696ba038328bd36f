package testimg

import (
	"bytes"
	"image"
	"image/png"

	"github.com/tsawler/timetable/ocr/ocrtest"
)

// Week is a printed schedule: a time column, five day columns and three
// session rows. Its outer frame is larger than the default maximum cell
// area, so only the 24 cells are detected.
var Week = Grid{Cols: 6, Rows: 4, CellW: 220, CellH: 160, Line: 4, Margin: 30}

// ThursdayWord is where the THURSDAY header word sits in Week. It ends 100
// pixels (the default keyword padding) left of the rule at x=1150, so the
// injected separator lands on that rule.
func ThursdayWord() image.Rectangle {
	return image.Rect(1002, 60, 1052, 80)
}

// WeekPage labels Week with English headers, three time slots and three
// sessions: Calculus on Monday 08:00-09:30, Physics on Wednesday
// 10:00-11:00 and Chemistry on Friday 13:00-14:30.
func WeekPage() *ocrtest.Page {
	page := &ocrtest.Page{}
	page.Add("Time", Week.Cell(0, 0))
	for i, day := range []string{"MONDAY", "TUESDAY", "WEDNESDAY"} {
		page.Add(day, Week.Cell(i+1, 0))
	}
	page.Add("THURSDAY", ThursdayWord())
	page.Add("FRIDAY", Week.Cell(5, 0))

	page.Add("08:00 - 09:30", Week.Cell(0, 1))
	page.Add("10:00 - 11:00", Week.Cell(0, 2))
	page.Add("13:00 - 14:30", Week.Cell(0, 3))

	page.Add("Calculus ID: MATH101 Activity: Lecture Section: 01 Campus: Main Room: 12", Week.Cell(1, 1))
	page.Add("Physics ID: PHY201 Activity: Lab Section: 02", Week.Cell(3, 2))
	page.Add("Chemistry", Week.Cell(5, 3))
	return page
}

// PNG encodes the rendered grid.
func (g Grid) PNG() []byte {
	var buf bytes.Buffer
	// Encoding an in-memory RGBA image cannot fail.
	_ = png.Encode(&buf, g.Image())
	return buf.Bytes()
}
