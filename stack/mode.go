package stack

import (
	"time"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/lowertransport"
	"github.com/dejanb/btmesh/provisioning"
	"github.com/dejanb/btmesh/secrets"
	"github.com/dejanb/btmesh/sequence"
	"github.com/dejanb/btmesh/txqueue"
)

// ModeKind discriminates the three states a Mode can hold, §4.8
// "tri-state current mode (None, Unprovisioned{...}, Provisioned{...})".
type ModeKind int

const (
	ModeNone ModeKind = iota
	ModeUnprovisioned
	ModeProvisioned
)

// UnprovisionedStack is the runtime state while bootstrapping a device.
type UnprovisionedStack struct {
	UUID common.UUID
	FSM *provisioning.FSM
}

// ProvisionedStack is the runtime state of a fully provisioned node.
type ProvisionedStack struct {
	Secrets *secrets.Store
	Reassembler *lowertransport.Reassembler
	TxQueue *txqueue.Queue
	ReplayCache *sequence.ReplayCache
	SeqAllocator *sequence.Allocator
	IvIndex common.IvIndex
	IvUpdateFlag common.IvUpdateFlag
	UnicastAddr common.Address
	NumElements uint8
	LastBeaconAt time.Time
}

// Mode is the supervisor's current tri-state, §4.8.
type Mode struct {
	Kind ModeKind
	Unprovisioned *UnprovisionedStack
	Provisioned *ProvisionedStack
}

// DeviceState tells the bearer which frame types are currently admissible,
// §4.8 point 3 and §6 "receive(device_state) -> PDU".
type DeviceState int

const (
	// DeviceStateUnprovisioned admits only provisioning bearer frames.
	DeviceStateUnprovisioned DeviceState = iota
	// DeviceStateProvisioned admits only network frames.
	DeviceStateProvisioned
	// DeviceStateIdle admits nothing; the stack holds ModeNone.
	DeviceStateIdle
)

// DeviceState computes the current admissibility filter from mode.
func (m Mode) DeviceState() DeviceState {
	switch m.Kind {
	case ModeUnprovisioned:
 return DeviceStateUnprovisioned
	case ModeProvisioned:
 return DeviceStateProvisioned
	default:
 return DeviceStateIdle
	}
}
