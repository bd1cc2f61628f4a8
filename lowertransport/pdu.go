// Package lowertransport implements segmentation, reassembly and block
// acknowledgement of upper-transport PDUs over the network layer, per
// §4.2.
package lowertransport

import "github.com/dejanb/btmesh/mesherr"

// MaxSegmentPayload is the maximum payload carried by one access-PDU
// segment.
const MaxSegmentPayload = 12

// MaxControlSegmentPayload is the maximum payload carried by one
// control-PDU segment.
const MaxControlSegmentPayload = 8

// Unsegmented is a single-PDU lower-transport frame: the whole upper
// transport PDU fits in one network PDU.
type Unsegmented struct {
	AKF bool
	AID byte
	Payload []byte
}

// Segmented is one segment of a multi-segment lower-transport transmission.
type Segmented struct {
	AKF bool
	AID byte
	SzMic byte // 0 or 1, only meaningful for access PDUs
	SeqZero uint16
	SegO uint8
	SegN uint8
	Payload []byte
}

// EncodeUnsegmented renders an Unsegmented access PDU header byte followed
// by the payload: bit7=SEG(0), bit6=AKF, bits[5:0]=AID.
func EncodeUnsegmented(u Unsegmented) []byte {
	header := byte(0)
	if u.AKF {
 header |= 0x40
	}
	header |= u.AID & 0x3f
	out := make([]byte, 0, 1+len(u.Payload))
	out = append(out, header)
	return append(out, u.Payload...)
}

// DecodeUnsegmented parses an Unsegmented access PDU.
func DecodeUnsegmented(b []byte) (Unsegmented, error) {
	if len(b) < 1 {
 return Unsegmented{}, mesherr.New(mesherr.ParseError, "unsegmented pdu empty")
	}
	if b[0]&0x80 != 0 {
 return Unsegmented{}, mesherr.New(mesherr.ParseError, "seg bit set, not unsegmented")
	}
	return Unsegmented{
 AKF: b[0]&0x40 != 0,
 AID: b[0] & 0x3f,
 Payload: b[1:],
	}, nil
}

// EncodeSegment renders one Segmented PDU: header(1) AKF/AID ‖
// SZMIC/SeqZero/SegO/SegN(4) ‖ payload.
func EncodeSegment(s Segmented) []byte {
	header := byte(0x80)
	if s.AKF {
 header |= 0x40
	}
	header |= s.AID & 0x3f

	word := uint32(s.SzMic&0x1) << 29
	word |= uint32(s.SeqZero&0x1fff) << 16
	word |= uint32(s.SegO&0x1f) << 11
	word |= uint32(s.SegN & 0x1f)

	out := make([]byte, 0, 5+len(s.Payload))
	out = append(out, header)
	out = append(out, byte(word>>24), byte(word>>16), byte(word>>8), byte(word))
	return append(out, s.Payload...)
}

// DecodeSegment parses one Segmented PDU.
func DecodeSegment(b []byte) (Segmented, error) {
	if len(b) < 5 {
 return Segmented{}, mesherr.New(mesherr.ParseError, "segmented pdu too short")
	}
	if b[0]&0x80 == 0 {
 return Segmented{}, mesherr.New(mesherr.ParseError, "seg bit clear, not segmented")
	}
	word := uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
	return Segmented{
 AKF: b[0]&0x40 != 0,
 AID: b[0] & 0x3f,
 SzMic: byte((word >> 29) & 0x1),
 SeqZero: uint16((word >> 16) & 0x1fff),
 SegO: uint8((word >> 11) & 0x1f),
 SegN: uint8(word & 0x1f),
 Payload: b[5:],
	}, nil
}

// Segment splits payload into contiguous Segmented PDUs of at most
// MaxSegmentPayload (or MaxControlSegmentPayload for control) bytes each,
// §4.2 "Segmentation (outbound)".
func Segment(payload []byte, akf bool, aid byte, szMic byte, seqZero uint16, control bool) []Segmented {
	chunkSize := MaxSegmentPayload
	if control {
 chunkSize = MaxControlSegmentPayload
	}
	segN := uint8((len(payload) - 1) / chunkSize)
	segments := make([]Segmented, 0, int(segN)+1)
	for i := 0; i <= int(segN); i++ {
 start := i * chunkSize
 end := start + chunkSize
 if end > len(payload) {
 end = len(payload)
 }
 segments = append(segments, Segmented{
 AKF: akf,
 AID: aid,
 SzMic: szMic,
 SeqZero: seqZero,
 SegO: uint8(i),
 SegN: segN,
 Payload: payload[start:end],
 })
	}
	return segments
}
