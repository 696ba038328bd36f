package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// epoch is the onset written for zones without recorded transitions
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// addTimezone adds a VTIMEZONE for loc with one observance per offset
// period overlapping [from, to].
func addTimezone(cal *ics.Calendar, loc *time.Location, from, to time.Time) {
	tz := cal.AddTimezone(loc.String())
	t := from.In(loc)
	for {
		start, end := t.ZoneBounds()
		tz.Components = append(tz.Components, observance(t, start))
		if end.IsZero() || end.After(to) {
			return
		}
		t = end
	}
}

// observance describes the offset period containing t, which began at
// start. DTSTART is the onset in the preceding offset.
func observance(t, start time.Time) ics.Component {
	name, offset := t.Zone()
	before, onset := offset, epoch
	if !start.IsZero() {
		_, before = start.Add(-time.Second).Zone()
		onset = start.In(time.FixedZone("", before))
	}

	var base ics.ComponentBase
	base.SetProperty(ics.ComponentPropertyDtStart, onset.Format(localFormat))
	base.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), utcOffset(before))
	base.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), utcOffset(offset))
	base.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)
	if t.IsDST() {
		return &ics.Daylight{ComponentBase: base}
	}
	return &ics.Standard{ComponentBase: base}
}

// utcOffset formats seconds east of UTC as +HHMM, or +HHMMSS when the
// offset is not a whole minute.
func utcOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign, seconds = '-', -seconds
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if s != 0 {
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}
