package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
)

type stubHandler struct {
	elem common.Address
	subs []common.Address
	op Opcode
	calls *int
	failure error
}

func (s stubHandler) ElementAddress() common.Address { return s.elem }
func (s stubHandler) Subscriptions() []common.Address { return s.subs }
func (s stubHandler) Handles(op Opcode) bool { return op == s.op }
func (s stubHandler) Handle(Message) error {
	*s.calls++
	return s.failure
}

func TestDispatchFansOutAndAccumulatesErrors(t *testing.T) {
	op := Opcode{Value: 0x04, Len: 1}
	group := common.Address(0xc000)

	var calls1, calls2 int
	h1 := stubHandler{elem: common.Address(0x0001), subs: []common.Address{group}, op: op, calls: &calls1}
	h2 := stubHandler{elem: common.Address(0x0002), subs: []common.Address{group}, op: op, calls: &calls2, failure: errors.New("model failed")}

	d := NewDispatcher()
	d.Register(h1)
	d.Register(h2)

	err := d.Dispatch(Message{Opcode: op, Dst: group})
	require.Error(t, err)
	require.Equal(t, 1, calls1)
	require.Equal(t, 1, calls2)
}

func TestDispatchSkipsNonMatchingOpcode(t *testing.T) {
	op := Opcode{Value: 0x04, Len: 1}
	other := Opcode{Value: 0x05, Len: 1}
	var calls int
	h := stubHandler{elem: common.Address(0x0001), op: op, calls: &calls}

	d := NewDispatcher()
	d.Register(h)
	require.NoError(t, d.Dispatch(Message{Opcode: other, Dst: common.Address(0x0001)}))
	require.Equal(t, 0, calls)
}

func TestOpcodeRoundTripOneByte(t *testing.T) {
	op := Opcode{Value: 0x04, Len: 1}
	wire, err := EncodeOpcode(op)
	require.NoError(t, err)
	require.Len(t, wire, 1)

	decoded, rest, err := DecodeOpcode(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, op, decoded)
}

func TestOpcodeRoundTripSIG(t *testing.T) {
	op := Opcode{Value: 0x1234 & 0x3fff, Len: 2}
	wire, err := EncodeOpcode(op)
	require.NoError(t, err)
	require.Len(t, wire, 2)

	decoded, rest, err := DecodeOpcode(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, op, decoded)
}

func TestOpcodeRoundTripVendor(t *testing.T) {
	op := Opcode{Value: 0x3a, Company: 0x0059, Len: 3}
	wire, err := EncodeOpcode(op)
	require.NoError(t, err)
	require.Len(t, wire, 3)

	decoded, rest, err := DecodeOpcode(wire)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, op, decoded)
}

func TestDecodeOpcodeRejectsReservedByte(t *testing.T) {
	_, _, err := DecodeOpcode([]byte{0x7f})
	require.Error(t, err)
}

func TestDecodeOpcodePreservesTrailingParameters(t *testing.T) {
	op := Opcode{Value: 0x04, Len: 1}
	wire, err := EncodeOpcode(op)
	require.NoError(t, err)
	wire = append(wire, 0xaa, 0xbb)

	_, rest, err := DecodeOpcode(wire)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb}, rest)
}
