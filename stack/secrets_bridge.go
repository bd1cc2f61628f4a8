package stack

import (
	"context"
	"time"

	"github.com/dejanb/btmesh/lowertransport"
	"github.com/dejanb/btmesh/mesherr"
	"github.com/dejanb/btmesh/provisioning"
	"github.com/dejanb/btmesh/secrets"
	"github.com/dejanb/btmesh/sequence"
	"github.com/dejanb/btmesh/storage"
	"github.com/dejanb/btmesh/txqueue"
)

// completeProvisioning transitions the supervisor from Unprovisioned to
// Provisioned on FSM.Process returning OutcomeProvisioned, 
// §4.5 "the stack atomically transitions to Provisioned with sequence
// initialised to... 800... and commits the new configuration to storage".
//
// Device-key derivation (K1 over the ECDH shared secret, §4.5)
// requires a P-256 ECDH collaborator that is out of scope here — see
// DESIGN.md for the disposition. store.DeviceKey starts zeroed until that
// collaborator is wired in by a caller that supplies one.
func (s *Supervisor) completeProvisioning(ctx context.Context, data *provisioning.ProvisioningData) error {
	if data == nil {
 return mesherr.New(mesherr.InvalidState, "provisioning completed with no data")
	}

	store := secrets.NewStore([16]byte{})
	if _, err := store.AddNetworkKey(data.KeyIndex, data.NetworkKey); err != nil {
 return err
	}

	s.mode = Mode{
 Kind: ModeProvisioned,
 Provisioned: &ProvisionedStack{
 Secrets: store,
 Reassembler: lowertransport.NewReassembler(lowertransport.DefaultMaxContexts),
 TxQueue: txqueue.NewQueue(s.cfg.TxQueueSlots),
 ReplayCache: sequence.NewReplayCache(s.cfg.ReplayCacheCapacity, nil),
 SeqAllocator: sequence.NewAllocator(provisioning.StartingSequence, s.cfg.SeqCommitStride, nil),
 IvIndex: data.IvIndex,
 UnicastAddr: data.UnicastAddr,
 NumElements: 1,
 },
	}

	if _, err := s.storage.PutIfChanged(storage.Configuration{
 Provisioned: &storage.Provisioned{
 NetworkState: storage.NetworkState{IvIndex: data.IvIndex},
 Secrets: snapshotSecretStore(store),
 DeviceInfo: storage.DeviceInfo{PrimaryUnicastAddr: data.UnicastAddr, NumElements: 1},
 Sequence: provisioning.StartingSequence,
 },
	}); err != nil {
 return mesherr.Wrap(mesherr.InsufficientSpace, err, "persist provisioned configuration")
	}

	pdu := provisioning.CompletePDU()
	for _, deadline := range provisioning.CompleteRepeats(time.Now()) {
 if wait := time.Until(deadline); wait > 0 {
 timer := time.NewTimer(wait)
 select {
 case <-timer.C:
 case <-ctx.Done():
 timer.Stop()
 return ctx.Err()
 }
 }
 if err := s.bearer.Transmit(ctx, pdu); err != nil {
 return err
 }
	}

	return nil
}

// rebuildSecretStore reconstructs a runtime secrets.Store from its
// persisted form on supervisor restart.
func rebuildSecretStore(p storage.Provisioned) *secrets.Store {
	store := secrets.NewStore(p.Secrets.DeviceKey)
	for _, nk := range p.Secrets.NetworkKeys {
 // Errors are unreachable here: nk.Key is always 16 bytes (it is
 // declared as [16]byte), so K2/K3/beacon-key derivation cannot fail
 // for the reasons AddNetworkKey checks.
 _, _ = store.AddNetworkKey(nk.Index, nk.Key)
	}
	for _, ak := range p.Secrets.AppKeys {
 _, _ = store.AddApplicationKey(ak.Index, ak.Key, ak.BoundNetKeyIndex)
	}
	return store
}

// snapshotSecretStore renders a runtime secrets.Store back to its persisted
// form. It re-derives nothing; NetworkKeyEntry/ApplicationKeyEntry already
// hold everything storage.NetworkKeyRecord/ApplicationKeyRecord need.
func snapshotSecretStore(store *secrets.Store) storage.Secrets {
	s := storage.Secrets{DeviceKey: store.DeviceKey()}
	for h := secrets.NetworkKeyHandle(0); ; h++ {
 entry, err := store.NetworkKeyByHandle(h)
 if err != nil {
 break
 }
 s.NetworkKeys = append(s.NetworkKeys, storage.NetworkKeyRecord{
 Index: entry.Index,
 Key: entry.Key,
 Phase: int(entry.Phase),
 AssociatedNID: entry.NID,
 })
	}
	for h := secrets.ApplicationKeyHandle(0); ; h++ {
 entry, err := store.ApplicationKeyByHandle(h)
 if err != nil {
 break
 }
 s.AppKeys = append(s.AppKeys, storage.ApplicationKeyRecord{
 Index: entry.Index,
 Key: entry.Key,
 AID: entry.AID,
 BoundNetKeyIndex: entry.BoundNetKeyIndex,
 })
	}
	return s
}
