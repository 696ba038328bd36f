// Package timetable converts weekly class-schedule documents into course
// sessions and recurring iCalendar feeds.
//
// Basic usage:
//
//	ics, err := timetable.Open("schedule.pdf").Calendar(ctx)
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	courses, err := timetable.FromBytes(data, "application/pdf").
//	    Hint("CHROME").
//	    Timezone("ALG").
//	    Logger(logger).
//	    Courses(ctx)
//
// Failures that describe the document rather than the system match one of
// model.ErrInvalidDocument, model.ErrUnsupportedLayout,
// model.ErrNoTableDetected or model.ErrNoParseableRows with errors.Is.
//
// The stage packages (document, tables, layout, extract, course, calendar)
// can be used directly for finer control.
package timetable

import (
	"fmt"
	"os"

	"github.com/tsawler/timetable/format"
)

// Open reads a schedule file and returns a Converter for fluent
// configuration. The content type is derived from the file extension; the
// magic bytes are checked against it when the pipeline runs.
//
// Example:
//
//	ics, err := timetable.Open("schedule.png").Timezone("KSA").Calendar(ctx)
func Open(filename string) *Converter {
	c := &Converter{options: defaultOptions()}
	data, err := os.ReadFile(filename)
	if err != nil {
		c.err = fmt.Errorf("failed to read %s: %w", filename, err)
		return c
	}
	c.data = data
	c.contentType = format.Detect(filename).MIMEType()
	return c
}

// FromBytes creates a Converter over an in-memory upload with its declared
// content type. An empty content type defers to the magic bytes.
//
// Example:
//
//	courses, err := timetable.FromBytes(data, "image/png").Courses(ctx)
func FromBytes(data []byte, contentType string) *Converter {
	return &Converter{
		data:        data,
		contentType: contentType,
		options:     defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	ics := timetable.Must(timetable.Open("schedule.pdf").Calendar(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
