package model

import "strings"

// Subject is the raw, unvalidated text extracted for a single data cell
type Subject struct {
	Details string   // Whitespace-normalized cell text
	Day     string   // Day label, empty when the cell matched no column
	Time    []string // Time tokens read from the time axis, in reading order
}

// Course is a validated class session. It is built once by the assembler
// and never mutated afterwards.
type Course struct {
	Name     string `json:"name" csv:"name"`
	ID       string `json:"id" csv:"id"`
	Activity string `json:"activity" csv:"activity"`
	Section  string `json:"section" csv:"section"`
	Campus   string `json:"campus" csv:"campus"`
	Room     string `json:"room" csv:"room"`
	Day      string `json:"day" csv:"day"`
	Duration string `json:"duration" csv:"duration"` // HH:MM-HH:MM
}

// Span splits Duration into its start and end tokens
func (c Course) Span() (start, end string, ok bool) {
	parts := strings.Split(c.Duration, "-")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Key returns the identity tuple used for stable calendar identifiers
func (c Course) Key() string {
	return c.ID + "|" + c.Section + "|" + c.Duration
}
