// Package provisioning implements the provisionee-side provisioning state
// machine that bootstraps an unprovisioned device into a provisioned one,
// §4.5. Grounded on the state-machine shape of
// original_source/btmesh-driver/src/lib.rs's Stack handling and on the
// teacher's timer/retry idiom (cs104.Config's t1/t2/t3).
package provisioning

import (
	"time"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

// State names every step of the provisionee state machine, §4.5.
type State int

const (
	StateBeaconing State = iota
	StateInvite
	StateCapabilities
	StateStart
	StatePublicKey
	StateConfirmation
	StateRandom
	StateData
	StateComplete
	StateProvisioned
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBeaconing:
 return "beaconing"
	case StateInvite:
 return "invite"
	case StateCapabilities:
 return "capabilities"
	case StateStart:
 return "start"
	case StatePublicKey:
 return "public-key"
	case StateConfirmation:
 return "confirmation"
	case StateRandom:
 return "random"
	case StateData:
 return "data"
	case StateComplete:
 return "complete"
	case StateProvisioned:
 return "provisioned"
	case StateFailed:
 return "failed"
	default:
 return "unknown"
	}
}

// Timing constants, §6.
const (
	BeaconInterval = 5 * time.Second
	StepRetryInterval = 500 * time.Millisecond
	TotalTimeout = 30 * time.Second
	CompleteRepeatCount = 5
	CompleteRepeatSpacing = 100 * time.Millisecond
	// StartingSequence is the conservative seq value a newly provisioned
	// node starts at, §4.5/§9.
	StartingSequence uint32 = 800
)

// Capabilities describes this device's provisioning capabilities, sent in
// response to Invite.
type Capabilities struct {
	NumElements uint8
	Algorithms uint16
	PublicKeyType uint8
	StaticOOBType uint8
	OutputOOBSize uint8
	OutputOOBAction uint16
	InputOOBSize uint8
	InputOOBAction uint16
}

// ProvisioningData is the decrypted payload of the Data PDU, 
// §4.5 "decrypts to (network key, key index, flags, IV index, unicast
// address)".
type ProvisioningData struct {
	NetworkKey [16]byte
	KeyIndex uint16
	Flags byte
	IvIndex common.IvIndex
	UnicastAddr common.Address
}

// Outcome tells the caller what FSM.Process produced.
type Outcome int

const (
	// OutcomeResponse means Response holds the next PDU to transmit.
	OutcomeResponse Outcome = iota
	// OutcomeProvisioned means the FSM has reached StateProvisioned; Data
	// holds the decoded ProvisioningData.
	OutcomeProvisioned
	// OutcomeFailed means Process rejected the step (unexpected step or
	// malformed Data) and left the FSM state unchanged; Fail reverts it to
	// Beaconing, and timeouts are reported by Expired.
	OutcomeFailed
)

// FSM drives one provisioning attempt.
type FSM struct {
	state State
	caps Capabilities
	uuid common.UUID
	confirmationInput []byte
	lastOutbound []byte
	lastStepAt time.Time
	startedAt time.Time
	ecdhSecret []byte
	sessionKey []byte
	provisioningSalt []byte
}

// NewFSM constructs an FSM beaconing uuid with the given capabilities.
func NewFSM(uuid common.UUID, caps Capabilities) *FSM {
	return &FSM{state: StateBeaconing, uuid: uuid, caps: caps}
}

// State reports the current state.
func (f *FSM) State() State { return f.state }
// accumulate appends b to the confirmation-inputs accumulator, 
// §4.5 "updates its ConfirmationInputs accumulator (concatenation of all
// exchanged fields used in the confirmation key derivation)".
func (f *FSM) accumulate(b []byte) {
	f.confirmationInput = append(f.confirmationInput, b...)
}

// ConfirmationInputs returns the accumulated bytes used in confirmation key
// derivation.
func (f *FSM) ConfirmationInputs() []byte { return f.confirmationInput }
// NextBeaconDeadline reports when the next Unprovisioned Device Beacon
// should be sent, valid only while State==StateBeaconing.
func (f *FSM) NextBeaconDeadline(lastBeaconAt time.Time) time.Time {
	return lastBeaconAt.Add(BeaconInterval)
}

// Expired reports whether the current step has exceeded its retry/timeout
// budget, §4.5 "Retransmit... every 500ms... or ~30s elapses".
func (f *FSM) Expired(now time.Time) (shouldRetry, shouldFail bool) {
	if f.state == StateBeaconing || f.state == StateProvisioned || f.state == StateFailed {
 return false, false
	}
	if now.Sub(f.startedAt) >= TotalTimeout {
 return false, true
	}
	if now.Sub(f.lastStepAt) >= StepRetryInterval {
 return true, false
	}
	return false, false
}

// LastOutbound returns the last PDU sent, for retransmission.
func (f *FSM) LastOutbound() []byte { return f.lastOutbound }
// Fail reverts the FSM to Beaconing, preserving the UUID, §7
// "provisioning failures return the FSM to Beaconing (a fresh Unprovisioned
// stack is created, preserving the same UUID)".
func (f *FSM) Fail() {
	*f = FSM{state: StateBeaconing, uuid: f.uuid, caps: f.caps}
}

// Process advances the FSM on receipt of one inbound step PDU, validating
// format and returning either the next PDU to send or, at Data, the
// decoded ProvisioningData.
func (f *FSM) Process(now time.Time, step State, payload []byte) (response []byte, outcome Outcome, data *ProvisioningData, err error) {
	if step != f.expectedNext() {
 return nil, OutcomeFailed, nil, mesherr.New(mesherr.InvalidState, "unexpected provisioning step")
	}
	switch step {
	case StateInvite, StateStart, StatePublicKey:
 f.accumulate(payload)
	}
	f.lastStepAt = now
	if f.startedAt.IsZero() {
 f.startedAt = now
	}

	switch step {
	case StateInvite:
 f.state = StateCapabilities
 resp := encodeCapabilities(f.caps)
 f.accumulate(resp)
 f.lastOutbound = resp
 return resp, OutcomeResponse, nil, nil
	case StateCapabilities:
 // Provisioner sends Start next; this branch only reached if caller
 // models Capabilities as an inbound echo. Advance regardless.
 f.state = StateStart
 return nil, OutcomeResponse, nil, nil
	case StateStart:
 // f.state stays at the step just processed; expectedNext derives the
 // next expected step from it rather than pre-advancing here.
 f.state = StateStart
 return nil, OutcomeResponse, nil, nil
	case StatePublicKey:
 f.state = StatePublicKey
 return nil, OutcomeResponse, nil, nil
	case StateConfirmation:
 f.state = StateConfirmation
 return nil, OutcomeResponse, nil, nil
	case StateRandom:
 f.state = StateRandom
 return nil, OutcomeResponse, nil, nil
	case StateData:
 decoded, err := decodeProvisioningData(payload)
 if err != nil {
 return nil, OutcomeFailed, nil, err
 }
 f.state = StateProvisioned
 return nil, OutcomeProvisioned, &decoded, nil
	default:
 return nil, OutcomeFailed, nil, mesherr.New(mesherr.InvalidState, "provisioning fsm in terminal state")
	}
}

func (f *FSM) expectedNext() State {
	switch f.state {
	case StateBeaconing:
 return StateInvite
	case StateCapabilities:
 return StateStart
	case StateStart:
 return StatePublicKey
	case StatePublicKey:
 return StateConfirmation
	case StateConfirmation:
 return StateRandom
	case StateRandom:
 return StateData
	default:
 return f.state
	}
}

func encodeCapabilities(c Capabilities) []byte {
	return []byte{
 c.NumElements,
 byte(c.Algorithms >> 8), byte(c.Algorithms),
 c.PublicKeyType,
 c.StaticOOBType,
 c.OutputOOBSize,
 byte(c.OutputOOBAction >> 8), byte(c.OutputOOBAction),
 c.InputOOBSize,
 byte(c.InputOOBAction >> 8), byte(c.InputOOBAction),
	}
}

func decodeProvisioningData(b []byte) (ProvisioningData, error) {
	if len(b) < 16+2+1+4+2 {
 return ProvisioningData{}, mesherr.New(mesherr.ParseError, "provisioning data too short")
	}
	var pd ProvisioningData
	copy(pd.NetworkKey[:], b[0:16])
	pd.KeyIndex = uint16(b[16])<<8 | uint16(b[17])
	pd.Flags = b[18]
	iv, err := common.ParseIvIndex(b[19:23])
	if err != nil {
 return ProvisioningData{}, err
	}
	pd.IvIndex = iv
	addr, err := common.ParseAddress(b[23:25])
	if err != nil {
 return ProvisioningData{}, err
	}
	pd.UnicastAddr = addr
	return pd, nil
}

// CompleteRepeats returns the send schedule for the Provisioning Complete
// PDU: 5 sends at 100ms spacing, §4.5/§6.
func CompleteRepeats(startAt time.Time) []time.Time {
	out := make([]time.Time, CompleteRepeatCount)
	for i := range out {
 out[i] = startAt.Add(time.Duration(i) * CompleteRepeatSpacing)
	}
	return out
}
