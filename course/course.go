// Package course turns raw cell subjects into validated course sessions.
package course

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/timetable/model"
)

// detailsPattern splits cell text into the course name and the labelled
// fields that follow it, in their fixed order. Every field is optional.
var detailsPattern = regexp.MustCompile(
	`(.+?)` +
		`(?:\s+ID:\s*(.+?))?` +
		`(?:\s+Activity:\s*(.+?))?` +
		`(?:\s+Section:\s*(.+?))?` +
		`(?:\s+Campus:\s*(.+?))?` +
		`(?:\s+Room:\s*(.+?))?$`,
)

// clockPattern accepts the separators OCR produces for HH:MM
var clockPattern = regexp.MustCompile(`^(\d{1,2})\s*[:.hH]\s*(\d{2})$`)

// Assembler builds courses from subjects
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler. A nil logger discards output.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assembler{logger: logger}
}

// Assemble converts subjects to courses. Subjects without a usable time span
// or without details are skipped. The returned slice is never longer than
// subjects.
//
// Two empty outcomes are reported as errors: model.ErrNoTableDetected when
// subjects is empty, and model.ErrNoParseableRows when no subject produced a
// course.
func (a *Assembler) Assemble(subjects []model.Subject) ([]model.Course, error) {
	if len(subjects) == 0 {
		return nil, model.NewError(model.ErrNoTableDetected, "assemble courses", slog.Int("subjects", 0))
	}

	courses := make([]model.Course, 0, len(subjects))
	for i, s := range subjects {
		c, err := Build(s)
		if err != nil {
			a.logger.Debug("subject skipped", "subject", i, "reason", err)
			continue
		}
		courses = append(courses, c)
	}

	if len(courses) == 0 {
		return nil, model.NewError(model.ErrNoParseableRows, "assemble courses",
			slog.Int("subjects", len(subjects)))
	}
	if skipped := len(subjects) - len(courses); skipped > 0 {
		a.logger.Info("subjects skipped", "skipped", skipped, "courses", len(courses))
	}
	return courses, nil
}

// Assemble converts subjects to courses without logging
func Assemble(subjects []model.Subject) ([]model.Course, error) {
	return NewAssembler(nil).Assemble(subjects)
}

// Build converts a single subject. It fails when the time tokens do not
// form an HH:MM-HH:MM span or the details are empty.
func Build(s model.Subject) (model.Course, error) {
	raw, err := Duration(s.Time)
	if err != nil {
		return model.Course{}, err
	}
	duration, err := NormalizeDuration(raw)
	if err != nil {
		return model.Course{}, err
	}

	m := detailsPattern.FindStringSubmatch(s.Details)
	if m == nil {
		return model.Course{}, fmt.Errorf("details %q do not match", s.Details)
	}
	field := func(i int) string { return strings.TrimSpace(m[i]) }

	return model.Course{
		Name:     field(1),
		ID:       field(2),
		Activity: field(3),
		Section:  field(4),
		Campus:   field(5),
		Room:     field(6),
		Day:      s.Day,
		Duration: duration,
	}, nil
}

// Duration joins time tokens into a raw span. Two or more tokens give
// "first-last"; a single token is used as-is when it already contains a
// dash.
func Duration(tokens []string) (string, error) {
	switch {
	case len(tokens) >= 2:
		return tokens[0] + "-" + tokens[len(tokens)-1], nil
	case len(tokens) == 1 && strings.Contains(tokens[0], "-"):
		return tokens[0], nil
	default:
		return "", fmt.Errorf("cannot build a duration from %d time tokens", len(tokens))
	}
}

// NormalizeDuration rewrites a raw span as zero-padded "HH:MM-HH:MM". The
// span must hold exactly two valid clock times.
func NormalizeDuration(raw string) (string, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return "", fmt.Errorf("duration %q must hold exactly two times", raw)
	}
	start, err := normalizeClock(parts[0])
	if err != nil {
		return "", err
	}
	end, err := normalizeClock(parts[1])
	if err != nil {
		return "", err
	}
	return start + "-" + end, nil
}

func normalizeClock(s string) (string, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", fmt.Errorf("%q is not a clock time", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("%q is out of range", s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
