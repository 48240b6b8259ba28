package schedule

const minutesPerDay = 24 * 60

// NextAfter picks the event with the smallest time strictly after now,
// wrapping to the earliest event of the following day.
// An event equal to now is a full day away, not due immediately.
// Returns false for an empty schedule.
func NextAfter(s Schedule, now TimeOfDay) (MedicationEvent, bool) {
	var (
		best     MedicationEvent
		bestDist = minutesPerDay + 1
		found    bool
	)

	for _, e := range s {
		d := forwardDistance(now, e.At)
		if d < bestDist {
			best, bestDist, found = e, d, true
		}
	}

	if !found {
		return MedicationEvent{}, false
	}
	return best.clone(), true
}

// forwardDistance is the circular distance from now to at, in 1..1440.
func forwardDistance(now, at TimeOfDay) int {
	d := (at.Minutes() - now.Minutes() + minutesPerDay) % minutesPerDay
	if d == 0 {
		d = minutesPerDay
	}
	return d
}
