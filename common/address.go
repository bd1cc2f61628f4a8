// Package common holds the primitive wire types shared by every layer of the
// stack: addresses, sequence numbers, IV index, TTL, identifiers, MICs and the
// static node composition. §3 "Data model".
package common

import (
	"fmt"

	"github.com/dejanb/btmesh/mesherr"
)

// Address is a 16-bit mesh address in one of four variants, §3.
type Address uint16

// UnassignedAddress is the zero address.
const UnassignedAddress Address = 0x0000

// AddressKind discriminates the four Address variants.
type AddressKind int

const (
	// KindUnassigned is the single unassigned address, 0x0000.
	KindUnassigned AddressKind = iota
	// KindUnicast covers 0x0001..0x7FFF.
	KindUnicast
	// KindVirtual covers 0x8000..0xBFFF.
	KindVirtual
	// KindGroup covers 0xC000..0xFFFF.
	KindGroup
)

// Kind classifies the address §3.
func (a Address) Kind() AddressKind {
	switch {
	case a == UnassignedAddress:
 return KindUnassigned
	case a <= 0x7FFF:
 return KindUnicast
	case a <= 0xBFFF:
 return KindVirtual
	default:
 return KindGroup
	}
}

// IsUnicast reports whether a is a unicast address.
func (a Address) IsUnicast() bool { return a.Kind() == KindUnicast }
// IsVirtual reports whether a is a virtual address.
func (a Address) IsVirtual() bool { return a.Kind() == KindVirtual }
// IsGroup reports whether a is a group address.
func (a Address) IsGroup() bool { return a.Kind() == KindGroup }
// IsUnassigned reports whether a is the unassigned address.
func (a Address) IsUnassigned() bool { return a == UnassignedAddress }
// ParseAddress parses a big-endian 2-byte address field.
func ParseAddress(b []byte) (Address, error) {
	if len(b) != 2 {
 return 0, mesherr.New(mesherr.ParseError, "address field must be 2 bytes")
	}
	return Address(uint16(b[0])<<8 | uint16(b[1])), nil
}

// Bytes renders the address as big-endian wire bytes.
func (a Address) Bytes() [2]byte {
	return [2]byte{byte(a >> 8), byte(a)}
}

func (a Address) String() string {
	switch a.Kind() {
	case KindUnassigned:
 return "unassigned"
	case KindUnicast:
 return fmt.Sprintf("unicast(0x%04x)", uint16(a))
	case KindVirtual:
 return fmt.Sprintf("virtual(0x%04x)", uint16(a))
	default:
 return fmt.Sprintf("group(0x%04x)", uint16(a))
	}
}

// LabelUUID is a 16-byte identifier whose 14-bit hash is a virtual address,
// §3 and the GLOSSARY.
type LabelUUID [16]byte

// VirtualAddress computes the virtual address that this label-UUID hashes to,
// via hash(l) = S1(l)[14:16] & 0x3FFF | 0x8000. The salt function itself
// lives in package crypto to avoid an import cycle; callers pass the
// already-computed 14-bit hash.
func (l LabelUUID) VirtualAddress(hash14 uint16) Address {
	return Address((hash14 & 0x3FFF) | 0x8000)
}
