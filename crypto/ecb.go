// Package crypto implements the Bluetooth Mesh cryptographic toolbox used by
// the stack: nonce construction, network/application/device CCM encrypt and
// decrypt, beacon authentication, and the S1/K1/K2/K3/K4 salt/key derivation
// functions ( §1, §4.1, §4.3). The underlying AES-CMAC and AES-CCM
// primitives are pure functions supplied by github.com/aead/cmac and
// github.com/aead/ccm; this package only ever calls them with the inputs
// mandated by the Bluetooth Mesh profile.
package crypto

import (
	"crypto/aes"

	"github.com/dejanb/btmesh/mesherr"
)

// aesECBEncrypt encrypts a single 16-byte block with AES-128 in the clear
// (no chaining). The network-layer privacy obfuscation step ( §4.1, PECB)
// needs exactly this primitive (K2/K3/K4 are built on AES-CMAC instead): one-block
// AES-ECB used as a keystream generator, which is safe (ECB's weakness is
// pattern leakage across repeated multi-block plaintexts, not a concern for a
// single, already-unique 16-byte block). No audited Go package exports plain
// ECB mode — crypto/cipher deliberately omits it, and every AEAD package in
// the examples (aead/ccm included) only exposes authenticated modes — so this
// is implemented directly against crypto/aes.NewCipher, §9's
// allowance for stdlib use where no ecosystem package serves the concern.
func aesECBEncrypt(key, block []byte) ([]byte, error) {
	if len(key) != 16 {
 return nil, mesherr.New(mesherr.InvalidKeyLength, "aes-ecb key must be 16 bytes")
	}
	if len(block) != 16 {
 return nil, mesherr.New(mesherr.InvalidKeyLength, "aes-ecb block must be 16 bytes")
	}
	c, err := aes.NewCipher(key)
	if err != nil {
 return nil, mesherr.Wrap(mesherr.CryptoError, err, "aes-ecb new cipher")
	}
	out := make([]byte, 16)
	c.Encrypt(out, block)
	return out, nil
}

func xor16(a, b []byte) []byte {
	out := make([]byte, 16)
	for i := 0; i < 16; i++ {
 out[i] = a[i] ^ b[i]
	}
	return out
}
