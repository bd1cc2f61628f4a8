package provisioning

import "github.com/dejanb/btmesh/mesherr"

// pduType is the single-byte Provisioning PDU type field that precedes
// every step's payload on the wire, per the Bluetooth Mesh provisioning PDU
// format §4.5 abridges.
type pduType byte

const (
	pduInvite pduType = iota
	pduCapabilities
	pduStart
	pduPublicKey
	pduInputComplete
	pduConfirmation
	pduRandom
	pduData
	pduComplete
	pduFailed
)

var pduToState = map[pduType]State{
	pduInvite: StateInvite,
	pduCapabilities: StateCapabilities,
	pduStart: StateStart,
	pduPublicKey: StatePublicKey,
	pduConfirmation: StateConfirmation,
	pduRandom: StateRandom,
	pduData: StateData,
}

// DecodeStep splits a raw provisioning bearer frame into its declared step
// and payload, for Supervisor to feed into FSM.Process without guessing the
// step from FSM state alone (a malformed or reordered frame must be
// rejected, not silently reinterpreted).
func DecodeStep(pdu []byte) (State, []byte, error) {
	if len(pdu) < 1 {
 return 0, nil, mesherr.New(mesherr.ParseError, "provisioning pdu empty")
	}
	state, ok := pduToState[pduType(pdu[0])]
	if !ok {
 return 0, nil, mesherr.New(mesherr.ParseError, "unrecognized provisioning pdu type")
	}
	return state, pdu[1:], nil
}

// CompletePDU renders the wire bytes of the Provisioning Complete PDU, sent
// CompleteRepeatCount times per CompleteRepeats after Data is processed,
// §4.5/§6. It carries no payload.
func CompletePDU() []byte {
	return []byte{byte(pduComplete)}
}

// EncodeStep prepends the wire type byte for state to payload.
func EncodeStep(state State, payload []byte) ([]byte, error) {
	for t, s := range pduToState {
 if s == state {
 return append([]byte{byte(t)}, payload...), nil
 }
	}
	return nil, mesherr.New(mesherr.InvalidState, "state has no wire pdu type")
}
