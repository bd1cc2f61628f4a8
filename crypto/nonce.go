package crypto

import "github.com/dejanb/btmesh/common"

// nonceType tags byte 0 of every Bluetooth Mesh nonce, §4.1/§4.3.
type nonceType byte

const (
	nonceTypeNetwork nonceType = 0x00
	nonceTypeApplication nonceType = 0x01
	nonceTypeDevice nonceType = 0x02
	nonceTypeProxy nonceType = 0x03
	nonceTypeBeacon nonceType = 0x01
)

// NetworkNonce builds the 13-byte nonce used to encrypt the network PDU:
// type(1) ‖ CTL‖TTL(1) ‖ SEQ(3) ‖ SRC(2) ‖ pad(2) ‖ IVI(4), §4.1.
func NetworkNonce(ctl common.Ctl, ttl common.Ttl, seq common.Seq, src common.Address, iv common.IvIndex) []byte {
	n := make([]byte, 13)
	n[0] = byte(nonceTypeNetwork)
	ctlBit := byte(0)
	if ctl == common.CtlControl {
 ctlBit = 0x80
	}
	n[1] = ctlBit | (byte(ttl.Value()) & 0x7f)
	seqBytes := seq.Bytes()
	copy(n[2:5], seqBytes[:])
	srcBytes := src.Bytes()
	copy(n[5:7], srcBytes[:])
	// n[7:9] left zero (pad)
	ivBytes := iv.Bytes()
	copy(n[9:13], ivBytes[:])
	return n
}

// ApplicationNonce builds the 13-byte nonce used to encrypt access payloads
// under an application key: type(1) ‖ ASZMIC‖pad(1) ‖ SEQ(3) ‖ SRC(2) ‖
// DST(2) ‖ IVI(4), §4.3.
func ApplicationNonce(szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex) []byte {
	return upperNonce(nonceTypeApplication, szmic, seq, src, dst, iv)
}

// DeviceNonce builds the device-key equivalent of ApplicationNonce, used for
// foundation model access messages and the provisioning key-exchange
// handoff, §4.3/§4.5.
func DeviceNonce(szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex) []byte {
	return upperNonce(nonceTypeDevice, szmic, seq, src, dst, iv)
}

func upperNonce(t nonceType, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex) []byte {
	n := make([]byte, 13)
	n[0] = byte(t)
	n[1] = szmic.Bit() << 7
	seqBytes := seq.Bytes()
	copy(n[2:5], seqBytes[:])
	srcBytes := src.Bytes()
	copy(n[5:7], srcBytes[:])
	dstBytes := dst.Bytes()
	copy(n[7:9], dstBytes[:])
	ivBytes := iv.Bytes()
	copy(n[9:13], ivBytes[:])
	return n
}

// BeaconNonce builds the nonce used to authenticate a private network
// beacon: type(1) ‖ pad(6) ‖ IVI(4) ‖ pad(2), §5.2.
func BeaconNonce(iv common.IvIndex) []byte {
	n := make([]byte, 13)
	n[0] = byte(nonceTypeBeacon)
	ivBytes := iv.Bytes()
	copy(n[7:11], ivBytes[:])
	return n
}
