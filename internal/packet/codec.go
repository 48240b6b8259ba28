package packet

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Wire layout. These values define the protocol and MUST NOT be configurable.
//
// Plaintext:
//   0      PacketType (TypeSchedule)
//   1      EventCount (1..schedule.MaxEvents)
//   2..    EventCount records of RecordSize bytes
//
// Record:
//   0      Hour (0-23)
//   1      Minute (0-59)
//   2      Pills
//   3      Compartment (0-based)
//   4      LabelLen (0..schedule.MaxLabelLen)
//   5..34  Label bytes, ignored past LabelLen
const (
	TypeSchedule byte = 0x98

	BlockSize  = aes.BlockSize
	MaxBlocks  = 16
	MaxPacket  = BlockSize * MaxBlocks
	HeaderSize = 2
	RecordSize = 5 + schedule.MaxLabelLen

	KeySize = 32
)

// DefaultKey is the pre-shared AES-256 key compiled into deployed units.
var DefaultKey = []byte{
	0xB3, 0x85, 0xBB, 0x33, 0x0C, 0x98, 0xAA, 0x5D,
	0xFA, 0x02, 0x6E, 0x2B, 0xE3, 0x78, 0xBA, 0x53,
	0xAF, 0xDF, 0xAF, 0xBE, 0xA5, 0x05, 0x5D, 0x52,
	0xC5, 0x5C, 0xCE, 0xCE, 0x6C, 0x1E, 0x84, 0x47,
}

// Codec decrypts and parses schedule packets.
// It holds only the key schedule; every call is independent (ECB, no IV).
type Codec struct {
	block cipher.Block
}

// NewCodec builds a codec for a 256-bit key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("packet: key must be %d bytes, got %d", KeySize, len(key))
	}
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Codec{block: b}, nil
}

// Decode decrypts buf and materializes a candidate schedule.
// buf is not modified. Blocks beyond len(buf) (rounded up) are never decrypted.
// Any shape violation returns schedule.ErrInvalidPacket; nothing is partially applied.
func (c *Codec) Decode(buf []byte) (schedule.Schedule, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty datagram", schedule.ErrInvalidPacket)
	}

	nBlocks := (len(buf) + BlockSize - 1) / BlockSize
	if nBlocks > MaxBlocks {
		nBlocks = MaxBlocks
	}

	// A short trailing block is zero-padded before decryption.
	var in, plain [MaxPacket]byte
	copy(in[:], buf)

	for i := 0; i < nBlocks; i++ {
		off := i * BlockSize
		c.block.Decrypt(plain[off:off+BlockSize], in[off:off+BlockSize])
	}
	pt := plain[:nBlocks*BlockSize]

	if pt[0] != TypeSchedule {
		return nil, fmt.Errorf("%w: packet type 0x%02x", schedule.ErrInvalidPacket, pt[0])
	}

	count := int(pt[1])
	if count == 0 || count > schedule.MaxEvents {
		return nil, fmt.Errorf("%w: event count %d", schedule.ErrInvalidPacket, count)
	}

	need := HeaderSize + count*RecordSize
	if need > len(pt) {
		return nil, fmt.Errorf("%w: %d events need %d bytes, datagram carries %d", schedule.ErrInvalidPacket, count, need, len(pt))
	}

	out := make(schedule.Schedule, 0, count)
	for i := 0; i < count; i++ {
		off := HeaderSize + i*RecordSize
		ev, err := decodeRecord(pt[off : off+RecordSize])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, ev)
	}

	if err := schedule.Validate(out); err != nil {
		return nil, err
	}

	out.Sort()
	return out, nil
}

func decodeRecord(r []byte) (schedule.MedicationEvent, error) {
	at := schedule.TimeOfDay{Hour: r[0], Minute: r[1]}
	pills := r[2]
	compartment := r[3]
	n := int(r[4])

	if !at.Valid() {
		return schedule.MedicationEvent{}, fmt.Errorf("%w: time %d:%d", schedule.ErrInvalidPacket, r[0], r[1])
	}
	if pills == 0 {
		return schedule.MedicationEvent{}, fmt.Errorf("%w: zero pill count", schedule.ErrInvalidPacket)
	}
	if compartment >= schedule.MaxCompartments {
		return schedule.MedicationEvent{}, fmt.Errorf("%w: compartment %d", schedule.ErrInvalidPacket, compartment)
	}
	if n > schedule.MaxLabelLen {
		return schedule.MedicationEvent{}, fmt.Errorf("%w: label length %d", schedule.ErrInvalidPacket, n)
	}

	return schedule.MedicationEvent{
		At: at,
		Doses: []schedule.Dose{{
			Compartment: compartment,
			Pills:       pills,
			Label:       string(r[5 : 5+n]),
		}},
	}, nil
}

// ErrNotEncodable is returned by Encode for events the wire format cannot carry.
var ErrNotEncodable = errors.New("packet: event not encodable")

// Encode builds the encrypted datagram for s.
// Each event must carry exactly one dose; the wire record has a single compartment.
func (c *Codec) Encode(s schedule.Schedule) ([]byte, error) {
	if len(s) == 0 || len(s) > schedule.MaxEvents {
		return nil, fmt.Errorf("%w: event count %d", schedule.ErrInvalidPacket, len(s))
	}
	if err := schedule.Validate(s); err != nil {
		return nil, err
	}

	size := HeaderSize + len(s)*RecordSize
	size = (size + BlockSize - 1) / BlockSize * BlockSize

	pt := make([]byte, size)
	pt[0] = TypeSchedule
	pt[1] = byte(len(s))

	for i, e := range s {
		if len(e.Doses) != 1 {
			return nil, fmt.Errorf("%w: event %s has %d compartments", ErrNotEncodable, e.At, len(e.Doses))
		}
		d := e.Doses[0]
		if d.Pills == 0 {
			return nil, fmt.Errorf("%w: event %s has zero pills", ErrNotEncodable, e.At)
		}

		r := pt[HeaderSize+i*RecordSize : HeaderSize+(i+1)*RecordSize]
		r[0] = e.At.Hour
		r[1] = e.At.Minute
		r[2] = d.Pills
		r[3] = d.Compartment
		r[4] = byte(len(d.Label))
		copy(r[5:], d.Label)
	}

	ct := make([]byte, size)
	for off := 0; off < size; off += BlockSize {
		c.block.Encrypt(ct[off:off+BlockSize], pt[off:off+BlockSize])
	}
	return ct, nil
}
