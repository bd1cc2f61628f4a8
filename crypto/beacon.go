package crypto

import "github.com/dejanb/btmesh/common"

// BeaconPayload assembles the authenticated portion of a secure network
// beacon: flags(1) ‖ NetworkID(8) ‖ IVIndex(4), §5.2.
func BeaconPayload(flags byte, networkID []byte, iv common.IvIndex) []byte {
	p := make([]byte, 0, 13)
	p = append(p, flags)
	p = append(p, networkID...)
	ivBytes := iv.Bytes()
	p = append(p, ivBytes[:]...)
	return p
}

// AuthenticateBeacon computes the 64-bit authentication value appended to a
// secure network beacon, derived from the beacon key via AES-CCM with an
// empty plaintext (an authenticate-only CCM call), §5.2.
func AuthenticateBeacon(beaconKey []byte, payload []byte, iv common.IvIndex) ([]byte, error) {
	nonce := BeaconNonce(iv)
	_, tag, err := ccmSeal(beaconKey, nonce, payload, nil, 8)
	if err != nil {
 return nil, err
	}
	return tag, nil
}

// VerifyBeacon checks a received beacon's authentication value.
func VerifyBeacon(beaconKey []byte, payload []byte, iv common.IvIndex, auth []byte) error {
	nonce := BeaconNonce(iv)
	_, err := ccmOpen(beaconKey, nonce, payload, nil, auth, 8)
	return err
}

// BeaconKey derives the beacon key from a network key: BeaconKey = K1(N,
// S1("nkbk"), ""), §5.2 (distinct from the NetworkID K3 derivation).
func BeaconKey(networkKey []byte) ([]byte, error) {
	salt, err := S1([]byte("nkbk"))
	if err != nil {
 return nil, err
	}
	return K1(networkKey, salt, nil)
}
