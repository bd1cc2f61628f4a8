package stack

import (
	"github.com/dejanb/btmesh/access"
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/secrets"
)

// MaxOutboundPayload bounds one outbound access message, §5
// "payload <= 379 bytes".
const MaxOutboundPayload = 379

// DefaultOutboundTTL is used when OutboundMessage.TTL is left zero.
const DefaultOutboundTTL = common.Ttl(127)

// OutboundMessage is carried on the models->supervisor outbound channel,
// §5 "(element-index, model-id, opcode, payload, metadata)".
type OutboundMessage struct {
	ElementIndex int
	ModelID common.ModelIdentifier
	Opcode uint32
	Payload []byte
	Dst common.Address
	LabelUUID *common.LabelUUID
	// AppKey selects the application key to encrypt under; nil means encrypt
	// under the device key instead, §4.3.
	AppKey *secrets.ApplicationKeyHandle
	// SzMic selects the TransMIC width; the zero value is SzMic32.
	SzMic common.SzMic
	// TTL overrides DefaultOutboundTTL when non-zero.
	TTL common.Ttl
}

// buildOutboundOpcode renders the opcode wire bytes for an outbound message:
// a 1- or 2-byte SIG opcode for a SIG model, a 3-byte vendor opcode
// (carrying the model's own company identifier) for a vendor model, §4.4.
func buildOutboundOpcode(modelID common.ModelIdentifier, opcode uint32) (access.Opcode, error) {
	if modelID.IsSIG() {
		if opcode <= 0x7e {
			return access.Opcode{Value: uint16(opcode), Len: 1}, nil
		}
		return access.Opcode{Value: uint16(opcode & 0x3fff), Len: 2}, nil
	}
	company, _ := modelID.Vendor()
	return access.Opcode{Value: uint16(opcode & 0x3f), Company: uint16(company), Len: 3}, nil
}
