// Package storage defines the persisted-configuration collaborator
// interface and the tagged-union Configuration it carries, §6
// "Storage interface" and "Configuration serialisation". Static startup
// configuration is a separate, koanf-backed concern living in
// stack.LoadConfig — this package only ever holds runtime state.
package storage

import (
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

// NetworkKeyRecord is the persisted form of one network key.
type NetworkKeyRecord struct {
	Index uint16
	Key [16]byte
	Phase int
	AssociatedNID byte
}

// ApplicationKeyRecord is the persisted form of one application key.
type ApplicationKeyRecord struct {
	Index uint16
	Key [16]byte
	AID byte
	BoundNetKeyIndex uint16
}

// Secrets is the persisted key material of a provisioned node.
type Secrets struct {
	DeviceKey [16]byte
	NetworkKeys []NetworkKeyRecord
	AppKeys []ApplicationKeyRecord
}

// DeviceInfo is the persisted per-node identity.
type DeviceInfo struct {
	PrimaryUnicastAddr common.Address
	NumElements uint8
}

// NetworkState is the persisted mesh-wide counters a provisioned node
// tracks across reboots.
type NetworkState struct {
	IvIndex common.IvIndex
	IvUpdateFlag common.IvUpdateFlag
}

// FoundationState is reserved for the configuration-server model's
// persisted state (subscriptions, publications); out of scope 
// §1, carried here only as an opaque blob so a future foundation layer has
// somewhere to round-trip it.
type FoundationState struct {
	Opaque []byte
}

// Provisioned is the persisted state of a provisioned node, §6.
type Provisioned struct {
	NetworkState NetworkState
	Secrets Secrets
	DeviceInfo DeviceInfo
	Sequence uint32
	Foundation FoundationState
}

// Unprovisioned is the persisted state of an unprovisioned node: just its
// stable UUID, §3 "Lifecycle".
type Unprovisioned struct {
	UUID common.UUID
}

// Configuration is the tagged union persisted by the backing store, per
// §6. Exactly one of Unprovisioned/Provisioned is non-nil.
type Configuration struct {
	Unprovisioned *Unprovisioned
	Provisioned *Provisioned
}

// IsProvisioned reports which arm of the union is populated.
func (c Configuration) IsProvisioned() bool { return c.Provisioned != nil }
// BackingStore is the low-level collaborator a concrete flash/file driver
// implements, §6 "Storage interface".
type BackingStore interface {
	// Init opens/validates the backing region.
	Init() error
	// Get reads the current persisted configuration. Returns
	// mesherr.InvalidState if no configuration has ever been written.
	Get() (Configuration, error)
	// Put atomically replaces the persisted configuration.
	Put(cfg Configuration) error
}

// Storage wraps a BackingStore with the hash-on-change discipline the
// supervisor uses ( §4.8 point 5: "rehash the configuration and
// write back to storage if changed").
type Storage struct {
	backing BackingStore
	lastHash [32]byte
	haveHash bool
}

// NewStorage wraps backing.
func NewStorage(backing BackingStore) *Storage {
	return &Storage{backing: backing}
}

// Init delegates to the backing store.
func (s *Storage) Init() error {
	if s.backing == nil {
 return mesherr.New(mesherr.InvalidState, "no backing store configured")
	}
	return s.backing.Init()
}

// Get delegates to the backing store.
func (s *Storage) Get() (Configuration, error) {
	return s.backing.Get()
}

// PutIfChanged writes cfg only if its hash differs from the last write,
// returning whether a write occurred.
func (s *Storage) PutIfChanged(cfg Configuration) (bool, error) {
	h := hashConfiguration(cfg)
	if s.haveHash && h == s.lastHash {
 return false, nil
	}
	if err := s.backing.Put(cfg); err != nil {
 return false, mesherr.Wrap(mesherr.InsufficientSpace, err, "persist configuration")
	}
	s.lastHash = h
	s.haveHash = true
	return true, nil
}
