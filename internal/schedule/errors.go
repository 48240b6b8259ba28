package schedule

import "errors"

var (
	// ErrInvalidPacket covers malformed headers, out-of-range fields,
	// bad label lengths and duplicate event times.
	ErrInvalidPacket = errors.New("invalid packet")

	// ErrScheduleCapacityExceeded is returned when a schedule holds more than MaxEvents.
	ErrScheduleCapacityExceeded = errors.New("schedule capacity exceeded")

	// ErrNoEventAvailable means the schedule is empty and the alarm was disarmed.
	ErrNoEventAvailable = errors.New("no event available")

	// ErrSpuriousAlarm means an alarm fired without a matching pending target.
	ErrSpuriousAlarm = errors.New("spurious alarm")
)
