package crypto

import (
	"crypto/aes"

	"github.com/aead/cmac"

	"github.com/dejanb/btmesh/mesherr"
)

// aesCMAC computes the full 128-bit AES-CMAC of message under key, per
// NIST SP 800-38B, using github.com/aead/cmac — there is no AES-CMAC in the
// standard library.
func aesCMAC(key, message []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
 return nil, mesherr.Wrap(mesherr.InvalidKeyLength, err, "cmac new cipher")
	}
	tag, err := cmac.Sum(message, block, block.BlockSize())
	if err != nil {
 return nil, mesherr.Wrap(mesherr.CryptoError, err, "cmac sum")
	}
	return tag, nil
}

// aesCMACTruncated computes AES-CMAC and truncates the tag to n bytes. No
// function in this package calls it: beacon authentication uses AES-CCM and
// virtual-address hashing uses S1 directly.
func aesCMACTruncated(key, message []byte, n int) ([]byte, error) {
	tag, err := aesCMAC(key, message)
	if err != nil {
 return nil, err
	}
	if n > len(tag) {
 return nil, mesherr.New(mesherr.InvalidKeyLength, "cmac truncation longer than tag")
	}
	return tag[:n], nil
}
