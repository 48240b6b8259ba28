package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Hardware limits. These values are fixed by the device and MUST NOT be configurable.

// MaxEvents is the ceiling on simultaneous reminders in one schedule.
const MaxEvents = 6

// MaxCompartments is the number of physical dispenser slots.
const MaxCompartments = 6

// MaxLabelLen is the maximum label length in bytes.
const MaxLabelLen = 30

// ---- TIME OF DAY ----

// TimeOfDay is a daily-recurring wall-clock minute.
type TimeOfDay struct {
	Hour   uint8
	Minute uint8
}

// At builds a TimeOfDay. Range is not checked here; see Valid.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: uint8(hour), Minute: uint8(minute)}
}

// Valid reports whether the time is inside 00:00..23:59.
func (t TimeOfDay) Valid() bool {
	return t.Hour < 24 && t.Minute < 60
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return int(t.Hour)*60 + int(t.Minute)
}

// FromMinutes is the inverse of Minutes, wrapping around midnight in
// both directions.
func FromMinutes(m int) TimeOfDay {
	m = ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
	return At(m/60, m%60)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Clock12 renders the time on a 12-hour face, e.g. "7:05 AM".
func (t TimeOfDay) Clock12() string {
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	h := int(t.Hour) % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, suffix)
}

// ParseTimeOfDay parses "HH:MM" (24-hour).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time %q: bad hour: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time %q: bad minute: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time %q: out of range", s)
	}
	return At(h, m), nil
}

// ---- EVENT ----

// Dose is what to take from one compartment.
type Dose struct {
	Compartment uint8
	Pills       uint8
	Label       string
}

// MedicationEvent is one daily reminder. Identity is At.
type MedicationEvent struct {
	At    TimeOfDay
	Doses []Dose
}

// Mask returns the compartment bitmask (bit i = compartment i).
func (e MedicationEvent) Mask() uint8 {
	var m uint8
	for _, d := range e.Doses {
		m |= 1 << d.Compartment
	}
	return m
}

// Dose returns the dose for a compartment, if present.
func (e MedicationEvent) Dose(compartment uint8) (Dose, bool) {
	for _, d := range e.Doses {
		if d.Compartment == compartment {
			return d, true
		}
	}
	return Dose{}, false
}

func (e MedicationEvent) clone() MedicationEvent {
	out := MedicationEvent{At: e.At}
	if e.Doses != nil {
		out.Doses = append([]Dose(nil), e.Doses...)
	}
	return out
}

// ---- SCHEDULE ----

// Schedule is a set of events ordered by time of day.
type Schedule []MedicationEvent

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for i, e := range s {
		out[i] = e.clone()
	}
	return out
}

// Sort orders events by time of day in place.
func (s Schedule) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].At.Minutes() < s[j].At.Minutes()
	})
}

// Find looks up an event by identity.
func (s Schedule) Find(at TimeOfDay) (MedicationEvent, bool) {
	for _, e := range s {
		if e.At == at {
			return e.clone(), true
		}
	}
	return MedicationEvent{}, false
}
