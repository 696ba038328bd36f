package course

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/tsawler/timetable/model"
)

// WriteCSV writes courses as CSV with a header row.
func WriteCSV(w io.Writer, courses []model.Course) error {
	if courses == nil {
		courses = []model.Course{}
	}
	return gocsv.Marshal(courses, w)
}

// WriteJSON writes courses as an indented JSON array.
func WriteJSON(w io.Writer, courses []model.Course) error {
	if courses == nil {
		courses = []model.Course{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(courses)
}
