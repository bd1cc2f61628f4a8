package lowertransport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
)

func TestSegmentThirtyBytePayload(t *testing.T) {
	payload := make([]byte, 30)
	for i := range payload {
 payload[i] = byte(i)
	}

	segments := Segment(payload, true, 0x12, 0, 0x1abc&0x1fff, false)
	require.Len(t, segments, 3)
	require.Equal(t, uint8(2), segments[0].SegN)
	require.Len(t, segments[0].Payload, 12)
	require.Len(t, segments[1].Payload, 12)
	require.Len(t, segments[2].Payload, 6)

	var reassembled []byte
	for _, s := range segments {
 reassembled = append(reassembled, s.Payload...)
	}
	require.Equal(t, payload, reassembled)
}

func TestSegmentEncodeDecodeRoundTrip(t *testing.T) {
	seg := Segmented{AKF: true, AID: 0x1a, SzMic: 1, SeqZero: 0x1fff, SegO: 3, SegN: 5, Payload: []byte{1, 2, 3}}
	wire := EncodeSegment(seg)

	decoded, err := DecodeSegment(wire)
	require.NoError(t, err)
	require.Equal(t, seg, decoded)
}

func TestUnsegmentedEncodeDecodeRoundTrip(t *testing.T) {
	u := Unsegmented{AKF: false, AID: 0x00, Payload: []byte{0xaa, 0xbb}}
	wire := EncodeUnsegmented(u)

	decoded, err := DecodeUnsegmented(wire)
	require.NoError(t, err)
	require.Equal(t, u, decoded)
}

func TestDecodeSegmentRejectsUnsegmented(t *testing.T) {
	_, err := DecodeSegment([]byte{0x00, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestBlockAckMergeIdempotent(t *testing.T) {
	ack := NewBlockAck(0x10, 2)
	require.NoError(t, ack.Ack(0))
	require.NoError(t, ack.Ack(1))
	require.False(t, ack.Complete())

	before := ack.Bitmap
	ack.Merge(before)
	require.Equal(t, before, ack.Bitmap)

	require.NoError(t, ack.Ack(2))
	require.True(t, ack.Complete())
}

func TestBlockAckRejectsOutOfRange(t *testing.T) {
	ack := NewBlockAck(0x10, 1)
	require.Error(t, ack.Ack(5))
}

func TestReassemblerCompletesAcrossSegments(t *testing.T) {
	r := NewReassembler(DefaultMaxContexts)
	payload := make([]byte, 20)
	for i := range payload {
 payload[i] = byte(i)
	}
	segments := Segment(payload, false, 0, 0, 0x0042, false)

	src := common.Address(0x0010)
	dst := common.Address(0x0001)
	base := time.Unix(1000, 0)

	var result Result
	var err error
	for i, s := range segments[:len(segments)-1] {
 result, err = r.Receive(src, dst, s, base.Add(time.Duration(i)*time.Millisecond))
 require.NoError(t, err)
 require.False(t, result.Complete)
	}
	result, err = r.Receive(src, dst, segments[len(segments)-1], base.Add(time.Duration(len(segments))*time.Millisecond))
	require.NoError(t, err)
	require.True(t, result.Complete)
	require.Equal(t, payload, result.Payload)
}
