package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const icalProductID = "-//med-dispenser//schedule export//EN"

// WriteICal exports s as an iCalendar document with one daily-recurring
// VEVENT per medication event, starting on the given day.
// Only the date part of day and its location are used.
func WriteICal(w io.Writer, s Schedule, day time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icalProductID)

	stamp := day.UTC().Truncate(time.Second)
	y, mo, d := day.Date()

	for _, e := range s {
		start := time.Date(y, mo, d, int(e.At.Hour), int(e.At.Minute), 0, 0, day.Location())

		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, fmt.Sprintf("dose-%02d%02d@med-dispenser", e.At.Hour, e.At.Minute))
		ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		ev.Props.SetDateTime(ical.PropDateTimeStart, start)
		ev.Props.SetText(ical.PropSummary, eventTitle(e))
		ev.Props.SetText(ical.PropDescription, eventDescription(e))

		rrule := ical.NewProp(ical.PropRecurrenceRule)
		rrule.Value = "FREQ=DAILY"
		ev.Props.Set(rrule)

		cal.Children = append(cal.Children, ev.Component)
	}

	return ical.NewEncoder(w).Encode(cal)
}

func eventTitle(e MedicationEvent) string {
	labels := make([]string, 0, len(e.Doses))
	for _, d := range e.Doses {
		labels = append(labels, d.Label)
	}
	return "Medication " + e.At.String() + " " + strings.Join(labels, " + ")
}

func eventDescription(e MedicationEvent) string {
	var b strings.Builder
	for _, d := range e.Doses {
		fmt.Fprintf(&b, "%s: compartment %c, %d pill(s)\n", d.Label, 'A'+rune(d.Compartment), d.Pills)
	}
	return b.String()
}
