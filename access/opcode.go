// Package access implements the access layer: opcode encode/decode and
// fan-out dispatch of decrypted access messages to element/model handlers,
// §4.4.
package access

import "github.com/dejanb/btmesh/mesherr"

// Opcode is a decoded access-layer opcode: either a 1-byte, SIG 2-byte, or
// vendor 3-byte opcode, §4.4.
type Opcode struct {
	Value uint16 // the 7-bit, 14-bit, or 6-bit opcode value depending on Len
	Company uint16 // company identifier, only meaningful when Len==3
	Len int // wire length: 1, 2 or 3
}

// EncodeOpcode renders op to its wire bytes.
func EncodeOpcode(op Opcode) ([]byte, error) {
	switch op.Len {
	case 1:
 if op.Value == 0x7f || op.Value > 0x7f {
 return nil, mesherr.New(mesherr.ParseError, "1-byte opcode must be <=0x7e")
 }
 return []byte{byte(op.Value)}, nil
	case 2:
 if op.Value > 0x3fff {
 return nil, mesherr.New(mesherr.ParseError, "sig opcode must fit in 14 bits")
 }
 b0 := 0x80 | byte(op.Value>>8)
 b1 := byte(op.Value)
 return []byte{b0, b1}, nil
	case 3:
 if op.Value > 0x3f {
 return nil, mesherr.New(mesherr.ParseError, "vendor opcode must fit in 6 bits")
 }
 b0 := 0xc0 | byte(op.Value)
 return []byte{b0, byte(op.Company), byte(op.Company >> 8)}, nil
	default:
 return nil, mesherr.New(mesherr.ParseError, "opcode length must be 1, 2 or 3")
	}
}

// DecodeOpcode parses the leading opcode bytes of an access PDU, returning
// the opcode and the bytes following it, §4.4:
// - 1 byte: top bit 0, value != 0x7F.
// - 2 bytes: top two bits 10, 14-bit SIG opcode.
// - 3 bytes: top two bits 11, 6-bit vendor opcode + 16-bit company id (LE).
func DecodeOpcode(b []byte) (Opcode, []byte, error) {
	if len(b) < 1 {
 return Opcode{}, nil, mesherr.New(mesherr.ParseError, "opcode empty")
	}
	switch {
	case b[0]&0x80 == 0:
 if b[0] == 0x7f {
 return Opcode{}, nil, mesherr.New(mesherr.ParseError, "opcode 0x7f reserved")
 }
 return Opcode{Value: uint16(b[0]), Len: 1}, b[1:], nil
	case b[0]&0xc0 == 0x80:
 if len(b) < 2 {
 return Opcode{}, nil, mesherr.New(mesherr.ParseError, "sig opcode truncated")
 }
 value := uint16(b[0]&0x3f)<<8 | uint16(b[1])
 return Opcode{Value: value, Len: 2}, b[2:], nil
	default:
 if len(b) < 3 {
 return Opcode{}, nil, mesherr.New(mesherr.ParseError, "vendor opcode truncated")
 }
 value := uint16(b[0] & 0x3f)
 company := uint16(b[1]) | uint16(b[2])<<8
 return Opcode{Value: value, Company: company, Len: 3}, b[3:], nil
	}
}
