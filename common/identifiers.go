package common

import (
	"encoding/binary"
	"io"

	"github.com/gofrs/uuid"

	"github.com/dejanb/btmesh/mesherr"
)

// UUID is a node's 16-byte device identifier ( §3 "Lifecycle": a fresh
// Unprovisioned configuration holds a random UUID). The wire value is a
// conformant RFC 4122 version-4 UUID, formatted via github.com/gofrs/uuid,
// but the entropy source (the RNG, §1 an external collaborator)
// is supplied by the caller as an io.Reader rather than read globally.
type UUID [16]byte

// NewRandomUUID generates a version-4 UUID, drawing randomness from rng
// instead of a package-global source, keeping the RNG an injectable
// collaborator as §1 requires.
func NewRandomUUID(rng io.Reader) (UUID, error) {
	var raw [16]byte
	if _, err := io.ReadFull(rng, raw[:]); err != nil {
 return UUID{}, mesherr.Wrap(mesherr.InvalidState, err, "read device uuid entropy")
	}
	// RFC 4122 version 4 / variant 1 bits, same fixup gofrs/uuid applies in NewV4.
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80
	var u UUID
	copy(u[:], raw[:])
	return u, nil
}

// ParseUUID validates and wraps a 16-byte slice as a UUID.
func ParseUUID(b []byte) (UUID, error) {
	if len(b) != 16 {
 return UUID{}, mesherr.New(mesherr.ParseError, "uuid must be 16 bytes")
	}
	var u UUID
	copy(u[:], b)
	return u, nil
}

func (u UUID) String() string {
	id, err := uuid.FromBytes(u[:])
	if err != nil {
 // Unreachable for any UUID produced by this package; fall back to
 // the nil UUID's string rather than panicking on foreign callers'
 // malformed input.
 return uuid.Nil.String()
	}
	return id.String()
}

// CompanyIdentifier is a Bluetooth SIG-assigned company ID, little-endian on
// the wire ( §6: "model identifiers are little-endian").
type CompanyIdentifier uint16

// ParseCompanyIdentifier parses a little-endian 2-byte company identifier.
func ParseCompanyIdentifier(b []byte) (CompanyIdentifier, error) {
	if len(b) != 2 {
 return 0, mesherr.New(mesherr.ParseError, "company identifier must be 2 bytes")
	}
	return CompanyIdentifier(binary.LittleEndian.Uint16(b)), nil
}

// ProductIdentifier is a vendor-assigned product ID.
type ProductIdentifier uint16

// VersionIdentifier is a vendor-assigned product version.
type VersionIdentifier uint16

// ModelIdentifier identifies a SIG or vendor model, §3/§4.4.
// NOTE: while most mesh fields are big-endian, model identifiers are
// little-endian on the wire (Bluetooth Mesh §3.7.1) — the same surprising
// asymmetry the original Rust source flags with a comment.
type ModelIdentifier struct {
	sig uint16
	cid CompanyIdentifier
	modelID uint16
	isSIG bool
}

// SIGModel constructs a SIG-defined model identifier.
func SIGModel(id uint16) ModelIdentifier {
	return ModelIdentifier{sig: id, isSIG: true}
}

// VendorModel constructs a vendor model identifier.
func VendorModel(cid CompanyIdentifier, modelID uint16) ModelIdentifier {
	return ModelIdentifier{cid: cid, modelID: modelID, isSIG: false}
}

// IsSIG reports whether this is a SIG (as opposed to vendor) model identifier.
func (m ModelIdentifier) IsSIG() bool { return m.isSIG }
// SIGID returns the 16-bit SIG model ID. Only meaningful if IsSIG.
func (m ModelIdentifier) SIGID() uint16 { return m.sig }
// Vendor returns the company identifier and vendor model ID. Only meaningful
// if !IsSIG.
func (m ModelIdentifier) Vendor() (CompanyIdentifier, uint16) { return m.cid, m.modelID }

// ParseModelIdentifier parses either a 2-byte SIG or 4-byte vendor model
// identifier, example 2 ("Model-id emission (little-endian)").
func ParseModelIdentifier(b []byte) (ModelIdentifier, error) {
	switch len(b) {
	case 2:
 return SIGModel(binary.LittleEndian.Uint16(b)), nil
	case 4:
 cid, err := ParseCompanyIdentifier(b[0:2])
 if err != nil {
 return ModelIdentifier{}, err
 }
 return VendorModel(cid, binary.LittleEndian.Uint16(b[2:4])), nil
	default:
 return ModelIdentifier{}, mesherr.New(mesherr.ParseError, "model identifier must be 2 or 4 bytes")
	}
}

// Emit appends the wire encoding of m to xmit: [0x00,0x10] for SIG(0x1000),
// [0x59,0x00,0x34,0x12] for Vendor(0x0059, 0x1234) — example 2.
func (m ModelIdentifier) Emit(xmit []byte) []byte {
	if m.isSIG {
 return binary.LittleEndian.AppendUint16(xmit, m.sig)
	}
	xmit = binary.LittleEndian.AppendUint16(xmit, uint16(m.cid))
	return binary.LittleEndian.AppendUint16(xmit, m.modelID)
}
