package common

import "github.com/dejanb/btmesh/mesherr"

// Ctl discriminates access (CTL=0) from control (CTL=1) lower-transport PDUs,
// which in turn selects the NetMIC width, §4.1.
type Ctl int

const (
	CtlAccess Ctl = iota
	CtlControl
)

// ParseCtl parses the 1-bit CTL field.
func ParseCtl(b byte) (Ctl, error) {
	switch b {
	case 0:
 return CtlAccess, nil
	case 1:
 return CtlControl, nil
	default:
 return 0, mesherr.New(mesherr.ParseError, "ctl must be 0 or 1")
	}
}

// NetMICSize returns the NetMIC width in bytes: 4 for access, 8 for control,
// §4.1.
func (c Ctl) NetMICSize() int {
	if c == CtlControl {
 return 8
	}
	return 4
}

// SzMic selects the upper-transport TransMIC width.
type SzMic int

const (
	// SzMic32 selects a 32-bit (4-byte) TransMIC.
	SzMic32 SzMic = iota
	// SzMic64 selects a 64-bit (8-byte) TransMIC.
	SzMic64
)

// Size returns the TransMIC width in bytes.
func (s SzMic) Size() int {
	if s == SzMic64 {
 return 8
	}
	return 4
}

// Bit reports the single-bit wire encoding of SZMIC (only meaningful for
// segmented access PDUs).
func (s SzMic) Bit() byte {
	if s == SzMic64 {
 return 1
	}
	return 0
}

// TransMic is the upper-transport message integrity code, 4 or 8 bytes.
type TransMic []byte

// ParseTransMic validates a TransMic is 4 or 8 bytes.
func ParseTransMic(b []byte) (TransMic, error) {
	if len(b) != 4 && len(b) != 8 {
 return nil, mesherr.New(mesherr.ParseError, "transmic must be 4 or 8 bytes")
	}
	return TransMic(b), nil
}

// SzMic reports which size class this TransMic belongs to.
func (m TransMic) SzMic() SzMic {
	if len(m) == 8 {
 return SzMic64
	}
	return SzMic32
}
