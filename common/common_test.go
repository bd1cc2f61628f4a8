package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/mesherr"
)

func TestIvIndexParity(t *testing.T) {
	iv, err := ParseIvIndex([]byte{0, 0, 0, 3})
	require.NoError(t, err)
	require.Equal(t, IviOne, iv.Ivi())

	iv, err = ParseIvIndex([]byte{0, 0, 0, 4})
	require.NoError(t, err)
	require.Equal(t, IviZero, iv.Ivi())
}

func TestIvIndexAcceptedIVIndex(t *testing.T) {
	current := IvIndex(5) // odd, IviOne

	// Matching parity: use current.
	require.Equal(t, current, current.AcceptedIVIndex(IviOne))
	// Mismatched parity: use current-1.
	require.Equal(t, current.Minus(1), current.AcceptedIVIndex(IviZero))
}

func TestIvIndexTransmissionIVIndex(t *testing.T) {
	current := IvIndex(10)
	require.Equal(t, current, current.TransmissionIVIndex(IvUpdateNormal))
	require.Equal(t, current.Minus(1), current.TransmissionIVIndex(IvUpdateInProgress))
}

func TestModelIdentifierEmitLittleEndian(t *testing.T) {
	sig := SIGModel(0x1000)
	require.True(t, bytes.Equal([]byte{0x00, 0x10}, sig.Emit(nil)))

	vendor := VendorModel(CompanyIdentifier(0x0059), 0x1234)
	require.True(t, bytes.Equal([]byte{0x59, 0x00, 0x34, 0x12}, vendor.Emit(nil)))
}

func TestParseModelIdentifierRoundTrip(t *testing.T) {
	sig := SIGModel(0x1000)
	parsed, err := ParseModelIdentifier(sig.Emit(nil))
	require.NoError(t, err)
	require.True(t, parsed.IsSIG())
	require.Equal(t, uint16(0x1000), parsed.SIGID())

	vendor := VendorModel(CompanyIdentifier(0x0059), 0x1234)
	parsed, err = ParseModelIdentifier(vendor.Emit(nil))
	require.NoError(t, err)
	require.False(t, parsed.IsSIG())
	cid, modelID := parsed.Vendor()
	require.Equal(t, CompanyIdentifier(0x0059), cid)
	require.Equal(t, uint16(0x1234), modelID)
}

func TestAddressKind(t *testing.T) {
	require.Equal(t, KindUnassigned, Address(0x0000).Kind())
	require.Equal(t, KindUnicast, Address(0x0001).Kind())
	require.Equal(t, KindUnicast, Address(0x7fff).Kind())
	require.Equal(t, KindVirtual, Address(0x8000).Kind())
	require.Equal(t, KindVirtual, Address(0xbfff).Kind())
	require.Equal(t, KindGroup, Address(0xc000).Kind())
	require.Equal(t, KindGroup, Address(0xffff).Kind())
}

func TestSeqPlusRollover(t *testing.T) {
	s := Seq(SeqMax)
	_, err := s.Plus(1)
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.SeqRolloverError)
}

func TestTtlDecremented(t *testing.T) {
	ttl := NewTtl(2)
	next, ok := ttl.Decremented()
	require.True(t, ok)
	require.Equal(t, Ttl(1), next)

	_, ok = NewTtl(1).Decremented()
	require.False(t, ok)

	_, ok = NewTtl(0).Decremented()
	require.False(t, ok)
}
