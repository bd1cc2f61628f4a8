package crypto

import "github.com/dejanb/btmesh/mesherr"

// zeroKey is the all-zero 128-bit key used as the CMAC key in S1, per
// Bluetooth Mesh §3.8.2.4.
var zeroKey = make([]byte, 16)

// S1 is the salt generation function: S1(m) = AES-CMAC_zero(m), Bluetooth
// Mesh §3.8.2.4. Used directly by virtual-address hashing and as a building
// block of K2/K3/K4.
func S1(m []byte) ([]byte, error) {
	return aesCMAC(zeroKey, m)
}

// K1 derives the device key from the ECDH shared secret during provisioning
// ( §4.5): K1(N, SALT, P) = AES-CMAC_T(P) where T = AES-CMAC_SALT(N).
func K1(n, salt, p []byte) ([]byte, error) {
	t, err := aesCMAC(salt, n)
	if err != nil {
 return nil, err
	}
	return aesCMAC(t, p)
}

// K2Result holds the (NID, encryption key, privacy key) triple derived from a
// network key, §3 "Keys".
type K2Result struct {
	NID byte
	EncryptionKey []byte
	PrivacyKey []byte
}

// K2 derives NID/encryption-key/privacy-key from a network key and a
// single-byte P (0x00 for the master derivation used by the stack),
// Bluetooth Mesh §3.8.2.6.
func K2(n, p []byte) (K2Result, error) {
	salt, err := S1([]byte("smk2"))
	if err != nil {
 return K2Result{}, err
	}
	t, err := aesCMAC(salt, n)
	if err != nil {
 return K2Result{}, err
	}

	t1, err := aesCMAC(t, append(append([]byte{}, p...), 0x01))
	if err != nil {
 return K2Result{}, err
	}
	t2, err := aesCMAC(t, append(append(append([]byte{}, t1...), p...), 0x02))
	if err != nil {
 return K2Result{}, err
	}
	t3, err := aesCMAC(t, append(append(append([]byte{}, t2...), p...), 0x03))
	if err != nil {
 return K2Result{}, err
	}

	return K2Result{
 NID: t1[len(t1)-1] & 0x7f,
 EncryptionKey: t2,
 PrivacyKey: t3,
	}, nil
}

// K3 derives the 64-bit NetworkID from a network key, Bluetooth Mesh §3.8.2.7.
func K3(n []byte) ([]byte, error) {
	salt, err := S1([]byte("smk3"))
	if err != nil {
 return nil, err
	}
	t, err := aesCMAC(salt, n)
	if err != nil {
 return nil, err
	}
	full, err := aesCMAC(t, append([]byte("id64"), 0x01))
	if err != nil {
 return nil, err
	}
	if len(full) < 8 {
 return nil, mesherr.New(mesherr.CryptoError, "k3 output too short")
	}
	return full[len(full)-8:], nil
}

// K4 derives the 6-bit AID from an application key, Bluetooth Mesh §3.8.2.8.
func K4(n []byte) (byte, error) {
	salt, err := S1([]byte("smk4"))
	if err != nil {
 return 0, err
	}
	t, err := aesCMAC(salt, n)
	if err != nil {
 return 0, err
	}
	full, err := aesCMAC(t, append([]byte("id6"), 0x01))
	if err != nil {
 return 0, err
	}
	return full[len(full)-1] & 0x3f, nil
}

// VirtualAddressHash14 computes the 14-bit hash of a label-UUID used to form
// a virtual address: hash14(L) = S1(L)[14:16] & 0x3FFF, §3/§8.
func VirtualAddressHash14(labelUUID [16]byte) (uint16, error) {
	salted, err := S1(labelUUID[:])
	if err != nil {
 return 0, err
	}
	return (uint16(salted[14])<<8 | uint16(salted[15])) & 0x3FFF, nil
}
