// internal/status/encode.go
package status

// Encode converts a Snapshot into a full dispenser status block.
// Layout is protocol-locked. The device name slots are left zero.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotPhase] = s.Phase
	regs[SlotElapsedMinutes] = s.ElapsedMinutes
	regs[SlotGraceRemaining] = s.GraceRemaining
	regs[SlotActiveAt] = s.ActiveAt
	regs[SlotPendingAt] = s.PendingAt
	regs[SlotEventCount] = s.EventCount

	regs[SlotActivations] = s.Activations
	regs[SlotAcknowledged] = s.Acknowledged
	regs[SlotTimedOut] = s.TimedOut
	regs[SlotSpuriousAlarms] = s.SpuriousAlarms
	regs[SlotRejectedConfigs] = s.RejectedConfigs
	regs[SlotPreempted] = s.Preempted

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers.
// Each register stores two ASCII bytes in big-endian order.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
