package uppertransport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/secrets"
)

func TestEncryptDecryptAccessViaApplicationKey(t *testing.T) {
	store := secrets.NewStore([16]byte{})
	var appKey [16]byte
	appKey[0] = 0x09
	handle, err := store.AddApplicationKey(0, appKey, 0)
	require.NoError(t, err)
	entry, err := store.ApplicationKeyByHandle(handle)
	require.NoError(t, err)

	src := common.Address(0x0010)
	dst := common.Address(0x0020)
	iv := common.IvIndex(0)
	seq := common.Seq(5)
	plaintext := []byte("turn on")

	ct, mic, akf, aid, err := EncryptAccess(store, entry, common.SzMic32, seq, src, dst, iv, nil, plaintext)
	require.NoError(t, err)
	require.True(t, akf)
	require.Equal(t, entry.AID, aid)

	decrypted, err := DecryptAccess(store, true, aid, common.SzMic32, seq, src, dst, iv, ct, mic)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted.Plaintext)
	require.Equal(t, handle, decrypted.AppKey)
}

func TestDecryptAccessViaDeviceKey(t *testing.T) {
	var deviceKey [16]byte
	deviceKey[0] = 0xab
	store := secrets.NewStore(deviceKey)

	src := common.Address(0x0010)
	dst := common.Address(0x0001)
	iv := common.IvIndex(0)
	seq := common.Seq(1)
	plaintext := []byte("config message")

	ct, mic, akf, _, err := EncryptAccess(store, nil, common.SzMic64, seq, src, dst, iv, nil, plaintext)
	require.NoError(t, err)
	require.False(t, akf)

	decrypted, err := DecryptAccess(store, false, 0, common.SzMic64, seq, src, dst, iv, ct, mic)
	require.NoError(t, err)
	require.True(t, decrypted.DeviceKey)
	require.Equal(t, plaintext, decrypted.Plaintext)
}

func TestDecryptAccessViaVirtualAddressLabelUUID(t *testing.T) {
	store := secrets.NewStore([16]byte{})
	var appKey [16]byte
	appKey[0] = 0x0a
	handle, err := store.AddApplicationKey(0, appKey, 0)
	require.NoError(t, err)
	entry, err := store.ApplicationKeyByHandle(handle)
	require.NoError(t, err)

	label := common.LabelUUID{0x01, 0x02, 0x03}
	require.NoError(t, store.AddLabelUUID(label))
	// A label-UUID never subscribed should not decrypt.
	otherLabel := common.LabelUUID{0xff}

	src := common.Address(0x0010)
	dst := common.Address(0x8001) // virtual
	iv := common.IvIndex(0)
	seq := common.Seq(1)
	plaintext := []byte("virtual target")

	ct, mic, _, aid, err := EncryptAccess(store, entry, common.SzMic32, seq, src, dst, iv, &label, plaintext)
	require.NoError(t, err)

	decrypted, err := DecryptAccess(store, true, aid, common.SzMic32, seq, src, dst, iv, ct, mic)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted.Plaintext)
	require.Equal(t, label, *decrypted.LabelUUID)

	_, err = DecryptAccess(store, true, aid, common.SzMic32, seq, src, dst, iv, ct, mic)
	require.NoError(t, err) // sanity: repeatable without label mutation

	otherCT, otherMIC, _, otherAID, err := EncryptAccess(store, entry, common.SzMic32, seq, src, dst, iv, &otherLabel, plaintext)
	require.NoError(t, err)
	_, err = DecryptAccess(store, true, otherAID, common.SzMic32, seq, src, dst, iv, otherCT, otherMIC)
	require.Error(t, err)
}

func TestControlCodecRoundTrip(t *testing.T) {
	src := common.Address(0x0010)
	dst := common.Address(0x0020)
	m := ControlMessage{Opcode: 0x0a, Parameters: []byte{1, 2, 3}, Src: src, Dst: dst}

	wire := EncodeControl(m)
	decoded, err := DecodeControl(src, dst, wire)
	require.NoError(t, err)
	require.Equal(t, m, decoded)
}
