// Package uppertransport implements access/control PDU encryption and
// decryption, including application-key AID iteration, virtual-address
// label-UUID trial decryption, and device-key fallback, §4.3.
// Grounded on original_source/btmesh-driver/src/provisioned/upper/mod.rs.
package uppertransport

import (
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/crypto"
	"github.com/dejanb/btmesh/mesherr"
	"github.com/dejanb/btmesh/secrets"
)

// DecryptedAccess is a successfully decrypted access message plus the key
// material that decrypted it, §4.3 "On any match, surface the
// plaintext plus the matched key-handle and label-UUID".
type DecryptedAccess struct {
	Plaintext []byte
	DeviceKey bool
	AppKey secrets.ApplicationKeyHandle
	LabelUUID *common.LabelUUID
}

// EncryptAccess encrypts an access payload under either an application key
// (appKey != nil) or the device key, §4.3 "Access encryption".
func EncryptAccess(store *secrets.Store, appKey *secrets.ApplicationKeyEntry, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex, labelUUID *common.LabelUUID, plaintext []byte) (ciphertext, transMIC []byte, akf bool, aid byte, err error) {
	if appKey != nil {
 ciphertext, transMIC, err = crypto.EncryptApplicationAccess(appKey.Key[:], szmic, seq, src, dst, iv, labelUUID, plaintext)
 return ciphertext, transMIC, true, appKey.AID, err
	}
	deviceKey := store.DeviceKey()
	ciphertext, transMIC, err = crypto.EncryptDeviceAccess(deviceKey[:], szmic, seq, src, dst, iv, plaintext)
	return ciphertext, transMIC, false, 0, err
}

// DecryptAccess iterates candidate keys §4.3 "Access decryption":
// when akf is true it tries every application key whose AID matches aid
// (and, for virtual destinations, every subscribed label-UUID); when akf is
// false it tries the device key directly.
func DecryptAccess(store *secrets.Store, akf bool, aid byte, szmic common.SzMic, seq common.Seq, src, dst common.Address, iv common.IvIndex, ciphertext, transMIC []byte) (*DecryptedAccess, error) {
	if !akf {
 deviceKey := store.DeviceKey()
 plaintext, err := crypto.DecryptDeviceAccess(deviceKey[:], szmic, seq, src, dst, iv, ciphertext, transMIC)
 if err != nil {
 return nil, mesherr.Wrap(mesherr.InvalidPDU, err, "device key decrypt failed")
 }
 return &DecryptedAccess{Plaintext: plaintext, DeviceKey: true}, nil
	}

	candidates := store.ApplicationKeysByAID(aid)
	if len(candidates) == 0 {
 return nil, mesherr.New(mesherr.InvalidKeyHandle, "no application key matches aid")
	}

	for _, c := range candidates {
 if dst.IsVirtual() {
 for _, l := range store.LabelUUIDs() {
 l := l
 plaintext, err := crypto.DecryptApplicationAccess(c.Entry.Key[:], szmic, seq, src, dst, iv, &l, ciphertext, transMIC)
 if err == nil {
 return &DecryptedAccess{Plaintext: plaintext, AppKey: c.Handle, LabelUUID: &l}, nil
 }
 }
 continue
 }
 plaintext, err := crypto.DecryptApplicationAccess(c.Entry.Key[:], szmic, seq, src, dst, iv, nil, ciphertext, transMIC)
 if err == nil {
 return &DecryptedAccess{Plaintext: plaintext, AppKey: c.Handle}, nil
 }
	}

	return nil, mesherr.New(mesherr.InvalidPDU, "no application key or label-uuid decrypted access message")
}

// ControlMessage is an unencrypted control PDU surfaced to the stack's
// internal control handlers (friendship, heartbeat), out of scope for this
// module §4.3 — only the interface is preserved.
type ControlMessage struct {
	Opcode byte
	Parameters []byte
	Src, Dst common.Address
}

// DecodeControl parses a control lower-transport payload: opcode(1) ‖
// parameters, carrying no transport-level encryption (the network MIC
// already authenticates it).
func DecodeControl(src, dst common.Address, payload []byte) (ControlMessage, error) {
	if len(payload) < 1 {
 return ControlMessage{}, mesherr.New(mesherr.ParseError, "control pdu empty")
	}
	return ControlMessage{Opcode: payload[0], Parameters: payload[1:], Src: src, Dst: dst}, nil
}

// EncodeControl renders a control message back to wire bytes.
func EncodeControl(m ControlMessage) []byte {
	out := make([]byte, 0, 1+len(m.Parameters))
	out = append(out, m.Opcode)
	return append(out, m.Parameters...)
}
