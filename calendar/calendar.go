// Package calendar renders courses as a recurring iCalendar feed.
//
// Every course becomes one weekly VEVENT that starts on the first matching
// weekday on or after today and repeats for a configured number of weeks.
// Start and end times are local wall-clock times tagged with the zone's
// TZID, which a VTIMEZONE built from the Go zone database defines for the
// span of the feed. The recurrence bound is expressed in UTC.
//
// Event UIDs are name-based UUIDs of the course's (ID, Section, Duration)
// tuple, so regenerating a feed from the same document yields the same
// identifiers and calendar clients update events instead of duplicating
// them.
package calendar

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // zone data for minimal containers

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/model"
)

const (
	localFormat = "20060102T150405"
	utcFormat   = "20060102T150405Z"
)

// Event is a course placed on the calendar
type Event struct {
	Course model.Course
	UID    string
	Zone   string
	Start  time.Time
	End    time.Time
	Until  time.Time // Last instant covered by the weekly recurrence
}

// RRule returns the event's recurrence rule.
func (e Event) RRule() string {
	return "FREQ=WEEKLY;UNTIL=" + e.Until.UTC().Format(utcFormat)
}

// Generator builds calendar feeds
type Generator struct {
	config config.CalendarConfig
	layout config.LayoutConfig
	now    func() time.Time
	date   time.Time // Pinned first day; zero means today in the target zone
	logger *slog.Logger
}

// NewGenerator creates a generator using the wall clock. A nil logger
// discards output.
func NewGenerator(cfg config.Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		config: cfg.Calendar,
		layout: cfg.Layout,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock returns a copy of g that reads "today" and the DTSTAMP from now.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	clone := *g
	clone.now = now
	return &clone
}

// WithDate returns a copy of g that schedules from the calendar date of day,
// read in day's own location, instead of today.
func (g *Generator) WithDate(day time.Time) *Generator {
	clone := *g
	clone.date = day
	return &clone
}

// Location resolves a timezone code. Unknown codes fall back to the default
// code.
func (g *Generator) Location(code string) (*time.Location, error) {
	name, ok := g.config.Timezones[strings.ToUpper(code)]
	if !ok {
		name = g.config.Timezones[g.config.DefaultTimezone]
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Events places courses on the calendar. Courses with an unknown day or an
// unparseable duration are skipped.
func (g *Generator) Events(courses []model.Course, tzCode string) ([]Event, error) {
	loc, err := g.Location(tzCode)
	if err != nil {
		return nil, err
	}

	today := g.today(loc)
	namespace := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(g.config.UIDDomain))
	seen := make(map[string]bool)

	events := make([]Event, 0, len(courses))
	for _, c := range courses {
		index, ok := g.layout.Weekday(c.Day)
		if !ok {
			g.logger.Warn("course skipped: unknown day", "course", c.Name, "day", c.Day)
			continue
		}
		start, end, err := clockTimes(c)
		if err != nil {
			g.logger.Warn("course skipped", "course", c.Name, "error", err)
			continue
		}

		// Weekday indexes count from Monday; time.Weekday counts from Sunday.
		target := time.Weekday((index + 1) % 7)
		ahead := (int(target) - int(today.Weekday()) + 7) % 7
		day := today.AddDate(0, 0, ahead)

		ev := Event{
			Course: c,
			Zone:   loc.String(),
			Start:  time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, loc),
			End:    time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, loc),
		}
		ev.Until = ev.Start.AddDate(0, 0, 7*g.config.Weeks)

		// The same (ID, Section, Duration) on two days would share a UID.
		key := c.Key()
		if seen[key] {
			key = c.Key() + "|" + target.String()
		}
		for n := 2; seen[key]; n++ {
			key = fmt.Sprintf("%s|%s|%d", c.Key(), target, n)
		}
		seen[key] = true
		ev.UID = uuid.NewSHA1(namespace, []byte(key)).String() + "@" + g.config.UIDDomain

		events = append(events, ev)
	}
	return events, nil
}

// today returns midnight in loc of the first schedulable day.
func (g *Generator) today(loc *time.Location) time.Time {
	y, m, d := g.now().In(loc).Date()
	if !g.date.IsZero() {
		y, m, d = g.date.Date()
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Generate renders courses as a serialized VCALENDAR. Zero courses produce
// a valid calendar without events.
func (g *Generator) Generate(courses []model.Course, tzCode string) ([]byte, error) {
	events, err := g.Events(courses, tzCode)
	if err != nil {
		return nil, err
	}
	loc, err := g.Location(tzCode)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetProductId(g.config.ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRTimezone(loc.String())

	if len(events) > 0 {
		from, to := events[0].Start, events[0].Until
		for _, ev := range events[1:] {
			if ev.Start.Before(from) {
				from = ev.Start
			}
			if ev.Until.After(to) {
				to = ev.Until
			}
		}
		addTimezone(cal, loc, from, to)
	}

	stamp := g.now().UTC()
	for _, ev := range events {
		tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{ev.Zone}}

		vev := cal.AddEvent(ev.UID)
		vev.SetDtStampTime(stamp)
		vev.SetProperty(ics.ComponentPropertyDtStart, ev.Start.Format(localFormat), tzid)
		vev.SetProperty(ics.ComponentPropertyDtEnd, ev.End.Format(localFormat), tzid)
		vev.AddRrule(ev.RRule())
		vev.SetSummary(ev.Course.Name)
		vev.SetDescription(Description(ev.Course))
		if where := Location(ev.Course); where != "" {
			vev.SetLocation(where)
		}
	}

	g.logger.Debug("calendar generated", "courses", len(courses), "events", len(events), "zone", loc.String())
	return []byte(cal.Serialize()), nil
}

// Description returns the multi-line event description.
func Description(c model.Course) string {
	return fmt.Sprintf("Course ID: %s\nActivity: %s\nSection: %s", c.ID, c.Activity, c.Section)
}

// Location returns "campus, Room room", leaving out whichever part is empty.
func Location(c model.Course) string {
	var parts []string
	if c.Campus != "" {
		parts = append(parts, c.Campus)
	}
	if c.Room != "" {
		parts = append(parts, "Room "+c.Room)
	}
	return strings.Join(parts, ", ")
}

func clockTimes(c model.Course) (time.Time, time.Time, error) {
	s, e, ok := c.Span()
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("duration %q is not a span", c.Duration)
	}
	start, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start time: %w", err)
	}
	end, err := time.Parse("15:04", e)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end time: %w", err)
	}
	return start, end, nil
}
