package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
)

func testKey(b byte) [16]byte {
	var k [16]byte
	for i := range k {
 k[i] = b
	}
	return k
}

func TestApplicationAccessRoundTrip(t *testing.T) {
	appKey := testKey(0x42)
	plaintext := []byte("hello mesh")
	seq := common.Seq(100)
	src := common.Address(0x0010)
	dst := common.Address(0x0020)
	iv := common.IvIndex(5)

	ct, mic, err := EncryptApplicationAccess(appKey[:], common.SzMic32, seq, src, dst, iv, nil, plaintext)
	require.NoError(t, err)

	pt, err := DecryptApplicationAccess(appKey[:], common.SzMic32, seq, src, dst, iv, nil, ct, mic)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestApplicationAccessWrongKeyFails(t *testing.T) {
	appKey := testKey(0x42)
	wrongKey := testKey(0x43)
	plaintext := []byte("hello mesh")
	seq := common.Seq(100)
	src := common.Address(0x0010)
	dst := common.Address(0x0020)
	iv := common.IvIndex(5)

	ct, mic, err := EncryptApplicationAccess(appKey[:], common.SzMic32, seq, src, dst, iv, nil, plaintext)
	require.NoError(t, err)

	_, err = DecryptApplicationAccess(wrongKey[:], common.SzMic32, seq, src, dst, iv, nil, ct, mic)
	require.Error(t, err)
}

func TestDeviceAccessRoundTrip(t *testing.T) {
	deviceKey := testKey(0x11)
	plaintext := []byte("foundation message")
	seq := common.Seq(1)
	src := common.Address(0x0001)
	dst := common.Address(0x0002)
	iv := common.IvIndex(0)

	ct, mic, err := EncryptDeviceAccess(deviceKey[:], common.SzMic32, seq, src, dst, iv, plaintext)
	require.NoError(t, err)

	pt, err := DecryptDeviceAccess(deviceKey[:], common.SzMic32, seq, src, dst, iv, ct, mic)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestNetworkRoundTrip(t *testing.T) {
	encKey := testKey(0x77)
	plaintext := []byte{0xde, 0xad, 0xbe, 0xef}
	seq := common.Seq(42)
	src := common.Address(0x0010)
	iv := common.IvIndex(3)

	ct, mic, err := EncryptNetwork(encKey[:], common.CtlAccess, common.NewTtl(5), seq, src, iv, nil, plaintext)
	require.NoError(t, err)
	require.Len(t, mic, 4)

	pt, err := DecryptNetwork(encKey[:], common.CtlAccess, common.NewTtl(5), seq, src, iv, nil, ct, mic)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestVirtualAddressHash14Deterministic(t *testing.T) {
	var label [16]byte
	for i := range label {
 label[i] = byte(i)
	}
	h1, err := VirtualAddressHash14(label)
	require.NoError(t, err)
	h2, err := VirtualAddressHash14(label)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.LessOrEqual(t, h1, uint16(0x3FFF))

	label[0] ^= 0xff
	h3, err := VirtualAddressHash14(label)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestK2DerivesDistinctEncryptionKeysForDistinctKeys(t *testing.T) {
	k1 := testKey(0x01)
	k2 := testKey(0x02)

	r1, err := K2(k1[:], []byte{0x00})
	require.NoError(t, err)
	r2, err := K2(k2[:], []byte{0x00})
	require.NoError(t, err)

	require.Len(t, r1.EncryptionKey, 16)
	require.Len(t, r1.PrivacyKey, 16)
	require.NotEqual(t, r1.EncryptionKey, r2.EncryptionKey)
}

func TestBeaconAuthenticateAndVerify(t *testing.T) {
	netKey := testKey(0x55)
	beaconKey, err := BeaconKey(netKey[:])
	require.NoError(t, err)

	iv := common.IvIndex(9)
	payload := BeaconPayload(0x00, []byte{1, 2, 3, 4, 5, 6, 7, 8}, iv)

	auth, err := AuthenticateBeacon(beaconKey, payload, iv)
	require.NoError(t, err)
	require.NoError(t, VerifyBeacon(beaconKey, payload, iv, auth))

	tampered := append([]byte{}, auth...)
	tampered[0] ^= 0xff
	require.Error(t, VerifyBeacon(beaconKey, payload, iv, tampered))
}

func TestObfuscateHeaderIsItsOwnInverse(t *testing.T) {
	privacyKey := testKey(0x99)
	privacyRandomSource := []byte{1, 2, 3, 4, 5, 6, 7}
	iv := common.IvIndex(1)

	pr, err := BuildPrivacyRandom(iv, privacyRandomSource)
	require.NoError(t, err)
	pecb, err := PECB(privacyKey[:], pr)
	require.NoError(t, err)

	header := []byte{0x80, 0x01, 0x02, 0x03, 0x00, 0x10}
	obf, err := ObfuscateHeader(header, pecb)
	require.NoError(t, err)
	require.NotEqual(t, header, obf)

	deobf, err := ObfuscateHeader(obf, pecb)
	require.NoError(t, err)
	require.Equal(t, header, deobf)
}
