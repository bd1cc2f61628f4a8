// Package secrets holds the key material a provisioned node needs at
// runtime: the device key, the set of network keys (each carrying its
// derived NID/encryption/privacy material), the set of application keys
// (each carrying its derived AID), and the table of subscribed label-UUIDs
// used to resolve virtual addresses. §3 "Keys" and
// SPEC_FULL.md §5.
package secrets

import (
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/crypto"
	"github.com/dejanb/btmesh/mesherr"
)

// DefaultLabelUUIDCapacity is the default bound on the label-UUID
// subscription table, §3.
const DefaultLabelUUIDCapacity = 20

// NetworkKeyPhase tracks a network key's position in a key-refresh
// procedure. Key refresh itself is out of scope ( §1 Non-goals by
// omission — no KR operations are specified); the phase field is carried so
// a future foundation layer has somewhere to put it.
type NetworkKeyPhase int

const (
	PhaseNormal NetworkKeyPhase = iota
	PhaseKeyDistribution
	PhaseFinalizing
)

// NetworkKeyHandle indexes into Store's network key slice.
type NetworkKeyHandle int

// ApplicationKeyHandle indexes into Store's application key slice.
type ApplicationKeyHandle int

// NetworkKeyEntry holds one network key and its full derived material.
type NetworkKeyEntry struct {
	Index uint16
	Key [16]byte
	Phase NetworkKeyPhase
	NID byte
	EncryptionKey []byte
	PrivacyKey []byte
	NetworkID []byte
	BeaconKey []byte
}

// ApplicationKeyEntry holds one application key and its derived AID.
type ApplicationKeyEntry struct {
	Index uint16
	Key [16]byte
	AID byte
	BoundNetKeyIndex uint16
}

// Store is the runtime secret material of a provisioned node.
type Store struct {
	deviceKey [16]byte
	networkKeys []NetworkKeyEntry
	applicationKeys []ApplicationKeyEntry
	labelUUIDs []common.LabelUUID
	labelUUIDCap int
}

// NewStore constructs an empty Store with the default label-UUID capacity.
func NewStore(deviceKey [16]byte) *Store {
	return &Store{
 deviceKey: deviceKey,
 labelUUIDCap: DefaultLabelUUIDCapacity,
	}
}

// DeviceKey returns the node's singleton device key.
func (s *Store) DeviceKey() [16]byte { return s.deviceKey }
// AddNetworkKey derives NID/encryption/privacy/NetworkID/BeaconKey material
// for key and appends it, returning its handle.
func (s *Store) AddNetworkKey(index uint16, key [16]byte) (NetworkKeyHandle, error) {
	k2, err := crypto.K2(key[:], []byte{0x00})
	if err != nil {
 return 0, mesherr.Wrap(mesherr.CryptoError, err, "derive k2 for network key")
	}
	networkID, err := crypto.K3(key[:])
	if err != nil {
 return 0, mesherr.Wrap(mesherr.CryptoError, err, "derive k3 for network key")
	}
	beaconKey, err := crypto.BeaconKey(key[:])
	if err != nil {
 return 0, mesherr.Wrap(mesherr.CryptoError, err, "derive beacon key")
	}
	s.networkKeys = append(s.networkKeys, NetworkKeyEntry{
 Index: index,
 Key: key,
 Phase: PhaseNormal,
 NID: k2.NID,
 EncryptionKey: k2.EncryptionKey,
 PrivacyKey: k2.PrivacyKey,
 NetworkID: networkID,
 BeaconKey: beaconKey,
	})
	return NetworkKeyHandle(len(s.networkKeys) - 1), nil
}

// AddApplicationKey derives the AID for key, binds it to netKeyIndex, and
// appends it, returning its handle.
func (s *Store) AddApplicationKey(index uint16, key [16]byte, netKeyIndex uint16) (ApplicationKeyHandle, error) {
	aid, err := crypto.K4(key[:])
	if err != nil {
 return 0, mesherr.Wrap(mesherr.CryptoError, err, "derive k4 for application key")
	}
	s.applicationKeys = append(s.applicationKeys, ApplicationKeyEntry{
 Index: index,
 Key: key,
 AID: aid,
 BoundNetKeyIndex: netKeyIndex,
	})
	return ApplicationKeyHandle(len(s.applicationKeys) - 1), nil
}

// AddLabelUUID subscribes l, failing with InsufficientSpace once the bounded
// table is full.
func (s *Store) AddLabelUUID(l common.LabelUUID) error {
	if len(s.labelUUIDs) >= s.labelUUIDCap {
 return mesherr.New(mesherr.InsufficientSpace, "label-uuid table full")
	}
	s.labelUUIDs = append(s.labelUUIDs, l)
	return nil
}

// LabelUUIDs returns every subscribed label-UUID, for virtual-address trial
// decryption ( §4.3).
func (s *Store) LabelUUIDs() []common.LabelUUID {
	return s.labelUUIDs
}

// NetworkKeyByHandle resolves a handle to its entry.
func (s *Store) NetworkKeyByHandle(h NetworkKeyHandle) (*NetworkKeyEntry, error) {
	if int(h) < 0 || int(h) >= len(s.networkKeys) {
 return nil, mesherr.New(mesherr.InvalidKeyHandle, "unknown network key handle")
	}
	return &s.networkKeys[h], nil
}

// ApplicationKeyByHandle resolves a handle to its entry.
func (s *Store) ApplicationKeyByHandle(h ApplicationKeyHandle) (*ApplicationKeyEntry, error) {
	if int(h) < 0 || int(h) >= len(s.applicationKeys) {
 return nil, mesherr.New(mesherr.InvalidKeyHandle, "unknown application key handle")
	}
	return &s.applicationKeys[h], nil
}

// NetworkKeysByNID returns every network key entry (with handle) whose NID
// matches nid, for the network layer's key-iteration-on-decrypt loop
// ( §4.1 point 1).
func (s *Store) NetworkKeysByNID(nid byte) []struct {
	Handle NetworkKeyHandle
	Entry *NetworkKeyEntry
} {
	var out []struct {
 Handle NetworkKeyHandle
 Entry *NetworkKeyEntry
	}
	for i := range s.networkKeys {
 if s.networkKeys[i].NID == nid {
 out = append(out, struct {
 Handle NetworkKeyHandle
 Entry *NetworkKeyEntry
 }{NetworkKeyHandle(i), &s.networkKeys[i]})
 }
	}
	return out
}

// ApplicationKeysByAID returns every application key entry (with handle)
// whose AID matches aid, for upper-transport decrypt iteration
// ( §4.3).
func (s *Store) ApplicationKeysByAID(aid byte) []struct {
	Handle ApplicationKeyHandle
	Entry *ApplicationKeyEntry
} {
	var out []struct {
 Handle ApplicationKeyHandle
 Entry *ApplicationKeyEntry
	}
	for i := range s.applicationKeys {
 if s.applicationKeys[i].AID == aid {
 out = append(out, struct {
 Handle ApplicationKeyHandle
 Entry *ApplicationKeyEntry
 }{ApplicationKeyHandle(i), &s.applicationKeys[i]})
 }
	}
	return out
}
