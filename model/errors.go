package model

import (
	"errors"
	"log/slog"
)

// Failure kinds returned by the pipeline. Match them with errors.Is.
var (
	// ErrInvalidDocument reports a bad signature, an empty document or a page
	// count outside the configured bounds.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnsupportedLayout reports that the anchor keyword or table grid
	// could not be located.
	ErrUnsupportedLayout = errors.New("unsupported layout")
	// ErrNoTableDetected reports that no cell survived filtering.
	ErrNoTableDetected = errors.New("no table detected")
	// ErrNoParseableRows reports that cells were found but no course could be
	// derived from them.
	ErrNoParseableRows = errors.New("no parseable rows")
)

// Error is a structural pipeline failure. Fields carry operator diagnostics
// (box counts, boundaries, source identifiers); they are exposed to logs via
// LogValue but never included in Error().
type Error struct {
	Kind   error
	Op     string
	Fields []slog.Attr
	Err    error // Underlying cause, if any
}

// NewError creates an Error of the given kind
func NewError(kind error, op string, fields ...slog.Attr) *Error {
	return &Error{Kind: kind, Op: op, Fields: fields}
}

// Wrap creates an Error of the given kind around a cause
func Wrap(kind error, op string, cause error, fields ...slog.Attr) *Error {
	return &Error{Kind: kind, Op: op, Fields: fields, Err: cause}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error()
}

// Unwrap returns the failure kind and the underlying cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// LogValue implements slog.LogValuer
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.Fields)+3)
	attrs = append(attrs, slog.String("kind", e.Kind.Error()))
	if e.Op != "" {
		attrs = append(attrs, slog.String("op", e.Op))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	attrs = append(attrs, e.Fields...)
	return slog.GroupValue(attrs...)
}

// KindOf returns the failure kind of err, or nil when err is not one of the
// pipeline failure kinds
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidDocument, ErrUnsupportedLayout, ErrNoTableDetected, ErrNoParseableRows} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
