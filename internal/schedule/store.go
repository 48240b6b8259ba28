package schedule

import (
	"fmt"
)

// Validate checks a candidate schedule.
// It performs declarative validation only.
// It MUST NOT mutate the schedule.
func Validate(s Schedule) error {
	if len(s) > MaxEvents {
		return fmt.Errorf("%w: %d events, ceiling is %d", ErrScheduleCapacityExceeded, len(s), MaxEvents)
	}

	seen := make(map[TimeOfDay]bool, len(s))

	for _, e := range s {
		if !e.At.Valid() {
			return fmt.Errorf("%w: event time %d:%d out of range", ErrInvalidPacket, e.At.Hour, e.At.Minute)
		}
		if seen[e.At] {
			return fmt.Errorf("%w: duplicate event %s", ErrInvalidPacket, e.At)
		}
		seen[e.At] = true

		if len(e.Doses) == 0 {
			return fmt.Errorf("%w: event %s has no compartments", ErrInvalidPacket, e.At)
		}

		var mask uint8
		for _, d := range e.Doses {
			if d.Compartment >= MaxCompartments {
				return fmt.Errorf("%w: event %s: compartment %d out of range", ErrInvalidPacket, e.At, d.Compartment)
			}
			if mask&(1<<d.Compartment) != 0 {
				return fmt.Errorf("%w: event %s: compartment %d listed twice", ErrInvalidPacket, e.At, d.Compartment)
			}
			mask |= 1 << d.Compartment

			if len(d.Label) > MaxLabelLen {
				return fmt.Errorf("%w: event %s: label longer than %d bytes", ErrInvalidPacket, e.At, MaxLabelLen)
			}
		}
	}

	return nil
}

// Store holds the live schedule.
// Replace swaps the whole table; nothing is ever merged.
// Store does no locking of its own: the engine owns it and serializes access.
type Store struct {
	events Schedule
}

// Replace validates s and, on success, installs a sorted copy of it.
// On failure the previous table is untouched.
// Callers must re-arm the alarm afterwards.
func (st *Store) Replace(s Schedule) error {
	if err := Validate(s); err != nil {
		return err
	}

	next := s.Clone()
	next.Sort()
	st.events = next
	return nil
}

// Snapshot returns a copy of the live table.
func (st *Store) Snapshot() Schedule {
	return st.events.Clone()
}

// Len returns the number of stored events.
func (st *Store) Len() int {
	return len(st.events)
}

// Lookup finds a stored event by identity.
func (st *Store) Lookup(at TimeOfDay) (MedicationEvent, bool) {
	return st.events.Find(at)
}

// NextAfter returns the stored event that follows now.
func (st *Store) NextAfter(now TimeOfDay) (MedicationEvent, bool) {
	return NextAfter(st.events, now)
}
