// Package model provides the shared data structures that flow through the
// schedule pipeline.
//
// # Geometry
//
// [Box] is an integer pixel rectangle with a top-left origin. [IoU] computes
// the intersection-over-union ratio used to collapse duplicate detections.
//
// # Table Structure
//
//   - [Cell] - a detected cell candidate
//   - [DayBox] - a header cell whose text is a day name
//   - [DayColumn] - a day label with its half-open x-range
//   - [TimeAxis] - the column holding row start/end times
//
// # Records
//
// [Subject] is the raw text extracted for one cell. [Course] is the validated,
// immutable record built from it.
//
// # Errors
//
// Structural failures are reported as [*Error] values whose kind is one of
// [ErrInvalidDocument], [ErrUnsupportedLayout], [ErrNoTableDetected] or
// [ErrNoParseableRows].
package model
