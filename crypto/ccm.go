package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/aead/ccm"

	"github.com/dejanb/btmesh/mesherr"
)

// nonceSize is the fixed 13-byte CCM nonce used throughout Bluetooth Mesh
// (network, application and device nonces are all 13 bytes, §4.1/§4.3).
const nonceSize = 13

// ccmAEAD builds a cipher.AEAD over key with the given MIC (tag) size. Callers
// pass tagSize 4 or 8 depending on layer (NetMIC §4.1, TransMIC
// per §4.3).
func ccmAEAD(key []byte, tagSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
 return nil, mesherr.Wrap(mesherr.InvalidKeyLength, err, "ccm new cipher")
	}
	aead, err := ccm.NewCCMWithNonceAndTagSize(block, nonceSize, tagSize)
	if err != nil {
 return nil, mesherr.Wrap(mesherr.CryptoError, err, "ccm new aead")
	}
	return aead, nil
}

// ccmSeal encrypts plaintext under key/nonce/aad, appending a tagSize MIC,
// and returns (ciphertext, mic) split apart the way the mesh wire format
// wants them (MIC trails the PDU as its own field, not concatenated with
// the ciphertext in the caller's framing).
func ccmSeal(key, nonce, aad, plaintext []byte, tagSize int) (ciphertext, mic []byte, err error) {
	aead, err := ccmAEAD(key, tagSize)
	if err != nil {
 return nil, nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, aad)
	ctLen := len(sealed) - tagSize
	return sealed[:ctLen], sealed[ctLen:], nil
}

// ccmOpen verifies and decrypts ciphertext||mic under key/nonce/aad.
func ccmOpen(key, nonce, aad, ciphertext, mic []byte, tagSize int) ([]byte, error) {
	aead, err := ccmAEAD(key, tagSize)
	if err != nil {
 return nil, err
	}
	sealed := append(append([]byte{}, ciphertext...), mic...)
	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
 return nil, mesherr.Wrap(mesherr.CryptoError, err, "ccm open")
	}
	return plaintext, nil
}
