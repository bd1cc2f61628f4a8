package common

import "github.com/dejanb/btmesh/mesherr"

// SeqMax is the highest representable 24-bit sequence number, §3.
const SeqMax uint32 = 0x00FFFFFF

// Seq is a 24-bit per-source sequence number, stored widened to 32 bits for
// arithmetic headroom, §3.
type Seq uint32

// ParseSeq parses a big-endian 3-byte sequence number field.
func ParseSeq(b []byte) (Seq, error) {
	if len(b) != 3 {
 return 0, mesherr.New(mesherr.ParseError, "seq field must be 3 bytes")
	}
	return Seq(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])), nil
}

// Bytes renders the low 24 bits of the sequence number, big-endian.
func (s Seq) Bytes() [3]byte {
	return [3]byte{byte(s >> 16), byte(s >> 8), byte(s)}
}

// Value returns the raw sequence counter.
func (s Seq) Value() uint32 { return uint32(s) }
// Plus adds n to s, returning mesherr.SeqRolloverError if the result would
// exceed SeqMax, §3/§4.6.
func (s Seq) Plus(n uint32) (Seq, error) {
	v := uint32(s) + n
	if v > SeqMax {
 return 0, mesherr.New(mesherr.SeqRolloverError, "sequence number rollover")
	}
	return Seq(v), nil
}

// SeqZero is the low 13 bits of Seq at the start of a segmented PDU,
// identifying that segmented PDU, §3/GLOSSARY.
type SeqZero uint16

// SeqZeroOf extracts the SeqZero component of a Seq.
func SeqZeroOf(s Seq) SeqZero {
	return SeqZero(uint32(s) & 0x1FFF)
}

// ParseSeqZero parses a 13-bit seqZero value out of its 2-byte wire packing
// (callers are responsible for shifting/masking out of the surrounding header
// bits; this just range-checks).
func ParseSeqZero(v uint16) (SeqZero, error) {
	if v > 0x1FFF {
 return 0, mesherr.New(mesherr.ParseError, "seqZero must fit in 13 bits")
	}
	return SeqZero(v), nil
}

// Value returns the raw 13-bit seqZero value.
func (sz SeqZero) Value() uint16 { return uint16(sz) }
// Ttl is a mesh time-to-live/hop-count value, §3.
type Ttl uint8

// NewTtl constructs a Ttl (the valid range is the full byte; §4.1 handles the
// TTL<=1 relay-drop condition, not a constructor-time restriction).
func NewTtl(v uint8) Ttl { return Ttl(v) }

// Value returns the raw TTL byte.
func (t Ttl) Value() uint8 { return uint8(t) }
// Decremented returns t-1 and whether the result is still relayable (>1
// required before decrement §4.1: "decrement TTL (drop if <=1)").
func (t Ttl) Decremented() (Ttl, bool) {
	if t <= 1 {
 return 0, false
	}
	return t - 1, true
}
