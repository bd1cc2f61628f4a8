// Package network implements the Bluetooth Mesh network layer: header
// obfuscation, NetMIC authentication, NID-based key selection, and the
// inbound/outbound encode/decode pipeline described in §4.1. Replay
// acceptance itself lives in package sequence; this layer only decrypts and
// reports the frame's (src, iv, seq) for the caller to check.
package network

import (
	"github.com/dejanb/btmesh/clog"
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/crypto"
	"github.com/dejanb/btmesh/mesherr"
	"github.com/dejanb/btmesh/secrets"
)

// Inbound is a successfully decrypted network PDU and the metadata needed to
// feed the replay cache and the lower transport layer.
type Inbound struct {
	Src common.Address
	Dst common.Address
	Ctl common.Ctl
	Ttl common.Ttl
	Seq common.Seq
	IvIndex common.IvIndex
	NetKey secrets.NetworkKeyHandle
	LowerTrans []byte
}

// Layer is the stateless network-layer codec. It holds no mutable state of
// its own; the node's current IV index and key store are passed in by the
// caller on every call, matching the supervisor's "reborrow state each
// iteration" discipline ( §5).
type Layer struct {
	log clog.Clog
}

// New constructs a network Layer logging under the given Clog.
func New(log clog.Clog) *Layer {
	return &Layer{log: log}
}

// DecodeInbound attempts to decrypt a raw bearer payload against every
// network key whose NID matches, §4.1 points 1–2. raw is the
// full network PDU: 1 byte NID||IVI(1 bit unused here, folded into NID byte
// per the wire format)||obfuscated CTL/TTL/SEQ/SRC(6)||DST(2)||transport
// payload||NetMIC.
func (l *Layer) DecodeInbound(raw []byte, store *secrets.Store, iv common.IvIndex) (*Inbound, error) {
	if len(raw) < 1+6+2+4 {
 return nil, mesherr.New(mesherr.ParseError, "network pdu too short")
	}
	nid := raw[0] & 0x7f
	candidates := store.NetworkKeysByNID(nid)
	if len(candidates) == 0 {
 l.log.Debug("network: no key matches nid %d, dropping", nid)
 return nil, mesherr.New(mesherr.InvalidKeyHandle, "no network key matches nid")
	}

	obfuscated := raw[1:7]
	encDstAndBody := raw[7:]

	var lastErr error
	for _, c := range candidates {
 entry := c.Entry
 privacyRandom, err := crypto.BuildPrivacyRandom(iv, encDstAndBody)
 if err != nil {
 lastErr = err
 continue
 }
 pecb, err := crypto.PECB(entry.PrivacyKey, privacyRandom)
 if err != nil {
 lastErr = err
 continue
 }
 header, err := crypto.ObfuscateHeader(obfuscated, pecb)
 if err != nil {
 lastErr = err
 continue
 }

 ctl, err := common.ParseCtl((header[0] >> 7) & 0x1)
 if err != nil {
 lastErr = err
 continue
 }
 ttl := common.NewTtl(header[0] & 0x7f)
 seq, err := common.ParseSeq(header[1:4])
 if err != nil {
 lastErr = err
 continue
 }
 src, err := common.ParseAddress(header[4:6])
 if err != nil {
 lastErr = err
 continue
 }
 if !src.IsUnicast() {
 lastErr = mesherr.New(mesherr.InvalidAddress, "network src must be unicast")
 continue
 }

 micSize := ctl.NetMICSize()
 if len(encDstAndBody) < 2+micSize {
 lastErr = mesherr.New(mesherr.ParseError, "network pdu body too short for mic")
 continue
 }
 encDst := encDstAndBody[:2]
 body :=encDstAndBody[2 : len(encDstAndBody)-micSize]
 netMIC := encDstAndBody[len(encDstAndBody)-micSize:]

 aad := []byte{} // network layer AAD is empty; dst is part of the sealed plaintext
 plaintext, err := crypto.DecryptNetwork(entry.EncryptionKey, ctl, ttl, seq, src, iv, aad, append(append([]byte{}, encDst...), body...), netMIC)
 if err != nil {
 lastErr = err
 continue
 }
 dst, err := common.ParseAddress(plaintext[:2])
 if err != nil {
 lastErr = err
 continue
 }

 return &Inbound{
 Src: src,
 Dst: dst,
 Ctl: ctl,
 Ttl: ttl,
 Seq: seq,
 IvIndex: iv,
 NetKey: c.Handle,
 LowerTrans: plaintext[2:],
 }, nil
	}

	if lastErr == nil {
 lastErr = mesherr.New(mesherr.CryptoError, "no network key decrypted frame")
	}
	l.log.Debug("network: decrypt failed for all candidate keys: %v", lastErr)
	return nil, mesherr.Wrap(mesherr.CryptoError, lastErr, "network decrypt")
}

// EncodeOutbound assembles and obfuscates a network PDU for transmission,
// §4.1 "Outbound contract".
func EncodeOutbound(entry *secrets.NetworkKeyEntry, ctl common.Ctl, ttl common.Ttl, seq common.Seq, src, dst common.Address, iv common.IvIndex, lowerTransportPDU []byte) ([]byte, error) {
	dstBytes := dst.Bytes()
	plaintext := append(append([]byte{}, dstBytes[:]...), lowerTransportPDU...)

	ciphertext, netMIC, err := crypto.EncryptNetwork(entry.EncryptionKey, ctl, ttl, seq, src, iv, nil, plaintext)
	if err != nil {
 return nil, err
	}

	ctlBit := byte(0)
	if ctl == common.CtlControl {
 ctlBit = 0x80
	}
	seqBytes := seq.Bytes()
	srcBytes := src.Bytes()
	header := []byte{
 ctlBit | (ttl.Value() & 0x7f),
 seqBytes[0], seqBytes[1], seqBytes[2],
 srcBytes[0], srcBytes[1],
	}

	privacyRandom, err := crypto.BuildPrivacyRandom(iv, ciphertext)
	if err != nil {
 return nil, err
	}
	pecb, err := crypto.PECB(entry.PrivacyKey, privacyRandom)
	if err != nil {
 return nil, err
	}
	obfuscated, err := crypto.ObfuscateHeader(header, pecb)
	if err != nil {
 return nil, err
	}

	out := make([]byte, 0, 1+6+len(ciphertext)+len(netMIC))
	out = append(out, entry.NID&0x7f)
	out = append(out, obfuscated...)
	out = append(out, ciphertext...)
	out = append(out, netMIC...)
	return out, nil
}

// Relay re-encrypts an accepted frame for forwarding under the same network
// key, decrementing TTL, §4.1 point 4. Returns ok=false when the
// frame is not relayable (TTL<=1).
func Relay(entry *secrets.NetworkKeyEntry, in *Inbound, outSeq common.Seq, outIv common.IvIndex, lowerTransportPDU []byte) (pdu []byte, ok bool, err error) {
	newTTL, relayable := in.Ttl.Decremented()
	if !relayable {
 return nil, false, nil
	}
	pdu, err = EncodeOutbound(entry, in.Ctl, newTTL, outSeq, in.Src, in.Dst, outIv, lowerTransportPDU)
	if err != nil {
 return nil, false, err
	}
	return pdu, true, nil
}
