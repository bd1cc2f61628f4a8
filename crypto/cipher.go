package crypto

import (
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

// EncryptNetwork encrypts and authenticates a network PDU payload (the
// portion after SRC/DST, i.e. the lower-transport PDU) under a network
// encryption key, returning ciphertext and NetMIC, §4.1.
func EncryptNetwork(encryptionKey []byte, ctl common.Ctl, ttl common.Ttl, seq common.Seq, src common.Address, iv common.IvIndex, aad, plaintext []byte) (ciphertext, netMIC []byte, err error) {
	nonce := NetworkNonce(ctl, ttl, seq, src, iv)
	return ccmSeal(encryptionKey, nonce, aad, plaintext, ctl.NetMICSize())
}

// DecryptNetwork reverses EncryptNetwork, verifying NetMIC.
func DecryptNetwork(encryptionKey []byte, ctl common.Ctl, ttl common.Ttl, seq common.Seq, src common.Address, iv common.IvIndex, aad, ciphertext, netMIC []byte) ([]byte, error) {
	nonce := NetworkNonce(ctl, ttl, seq, src, iv)
	return ccmOpen(encryptionKey, nonce, aad, ciphertext, netMIC, ctl.NetMICSize())
}

// upperAAD returns the additional authenticated data bound into an upper
// transport access encryption: empty unless the destination is virtual, in
// which case the label-UUID itself is the AAD, §4.3 "When DST is
// virtual, the label-UUID is bound into the AAD".
func upperAAD(labelUUID *common.LabelUUID) []byte {
	if labelUUID == nil {
 return nil
	}
	return labelUUID[:]
}

// EncryptApplicationAccess encrypts an access payload under an application
// key, binding the label-UUID into the AAD when dst is virtual.
func EncryptApplicationAccess(appKey []byte, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex, labelUUID *common.LabelUUID, plaintext []byte) (ciphertext, transMIC []byte, err error) {
	nonce := ApplicationNonce(szmic, seq, src, dst, iv)
	return ccmSeal(appKey, nonce, upperAAD(labelUUID), plaintext, szmic.Size())
}

// DecryptApplicationAccess reverses EncryptApplicationAccess.
func DecryptApplicationAccess(appKey []byte, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex, labelUUID *common.LabelUUID, ciphertext, transMIC []byte) ([]byte, error) {
	nonce := ApplicationNonce(szmic, seq, src, dst, iv)
	return ccmOpen(appKey, nonce, upperAAD(labelUUID), ciphertext, transMIC, szmic.Size())
}

// EncryptDeviceAccess encrypts an access payload under a device key. Device
// key access is never sent to a virtual destination, so there is no AAD.
func EncryptDeviceAccess(deviceKey []byte, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex, plaintext []byte) (ciphertext, transMIC []byte, err error) {
	nonce := DeviceNonce(szmic, seq, src, dst, iv)
	return ccmSeal(deviceKey, nonce, nil, plaintext, szmic.Size())
}

// DecryptDeviceAccess reverses EncryptDeviceAccess.
func DecryptDeviceAccess(deviceKey []byte, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex, ciphertext, transMIC []byte) ([]byte, error) {
	nonce := DeviceNonce(szmic, seq, src, dst, iv)
	return ccmOpen(deviceKey, nonce, nil, ciphertext, transMIC, szmic.Size())
}

// EncryptControl encrypts a segmented control PDU payload under a device key
// using the lower-transport's own SZMIC=64 convention for control traffic
// ( §4.3 "control PDUs always use a 64-bit TransMIC when segmented").
func EncryptControl(deviceKey []byte, seq common.Seq, src, dst common.Address, iv common.IvIndex, plaintext []byte) (ciphertext, transMIC []byte, err error) {
	return EncryptDeviceAccess(deviceKey, common.SzMic64, seq, src, dst, iv, plaintext)
}

// PECB derives the 6-byte privacy keystream used to obfuscate CTL/TTL/SEQ/SRC
// in a network PDU header, §4.1: PECB = e(PrivacyKey, PrivacyRandom).
// PrivacyRandom is built by the caller as 0x0000000000 ‖ IVI ‖ PrivacyRandomSource
// (the first 7 bytes of EncDST‖NetMIC‖...), matching Bluetooth Mesh §3.8.7.3.
func PECB(privacyKey []byte, privacyRandom []byte) ([]byte, error) {
	if len(privacyRandom) != 16 {
 return nil, mesherr.New(mesherr.ParseError, "privacy random must be 16 bytes")
	}
	full, err := aesECBEncrypt(privacyKey, privacyRandom)
	if err != nil {
 return nil, err
	}
	return full[:6], nil
}

// BuildPrivacyRandom assembles the 16-byte privacy-random input to PECB from
// the IV index and the first 7 bytes following the obfuscated header
// (EncDST ‖ EncTransportPDU ‖ NetMIC), §4.1.
func BuildPrivacyRandom(iv common.IvIndex, privacyRandomSource []byte) ([]byte, error) {
	if len(privacyRandomSource) < 7 {
 return nil, mesherr.New(mesherr.ParseError, "privacy random source must be at least 7 bytes")
	}
	pr := make([]byte, 16)
	ivBytes := iv.Bytes()
	copy(pr[5:9], ivBytes[:])
	copy(pr[9:16], privacyRandomSource[:7])
	return pr, nil
}

// ObfuscateHeader XORs the 6-byte CTL/TTL/SEQ/SRC header with PECB, used both
// to obfuscate on send and deobfuscate on receive (XOR is its own inverse).
func ObfuscateHeader(header, pecb []byte) ([]byte, error) {
	if len(header) != 6 || len(pecb) != 6 {
 return nil, mesherr.New(mesherr.ParseError, "header and pecb must be 6 bytes")
	}
	out := make([]byte, 6)
	for i := range out {
 out[i] = header[i] ^ pecb[i]
	}
	return out, nil
}
