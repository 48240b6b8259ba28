// internal/status/constants.go
package status

// Dispenser Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per device.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotPhase holds the lifecycle phase (see Phase* codes).
const SlotPhase = 0

// SlotElapsedMinutes holds minutes spent in the active window.
const SlotElapsedMinutes = 1

// SlotGraceRemaining holds minutes left in the acknowledge delay.
const SlotGraceRemaining = 2

// SlotActiveAt holds the active event time as HHMM, or NoTime.
const SlotActiveAt = 3

// SlotPendingAt holds the armed alarm time as HHMM, or NoTime.
const SlotPendingAt = 4

// SlotEventCount holds the number of events in the live schedule.
const SlotEventCount = 5

// ---- COUNTERS (saturating, never wrap) ----

const SlotActivations = 6
const SlotAcknowledged = 7
const SlotTimedOut = 8
const SlotSpuriousAlarms = 9
const SlotRejectedConfigs = 10
const SlotPreempted = 11

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 12

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// LiveSlots is the number of leading slots that change at runtime.
const LiveSlots = SlotDeviceNameStart

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// NoTime marks an empty time slot.
const NoTime uint16 = 0xFFFF

// ---- PHASE CODES ----

const (
	PhaseIdle             uint16 = 0
	PhaseActive           uint16 = 1
	PhaseAcknowledgeDelay uint16 = 2
)
