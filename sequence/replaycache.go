package sequence

import (
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

// highWaterMark is the highest accepted (iv, seq) pair for one source.
type highWaterMark struct {
	iv common.IvIndex
	seq common.Seq
}

func (h highWaterMark) greaterThan(iv common.IvIndex, seq common.Seq) bool {
	if iv != h.iv {
 return iv > h.iv
	}
	return seq > h.seq
}

// ReplayCache is the per-source Replay Protection List: a mapping from
// source unicast address to the highest seen (iv, seq), §3 "RPL".
// It is fail-closed: once full, new sources are rejected rather than
// evicting an existing entry, §9 Open Question.
type ReplayCache struct {
	capacity int
	entries map[common.Address]highWaterMark
	persist func(src common.Address, iv common.IvIndex, seq common.Seq) error
}

// NewReplayCache constructs a ReplayCache bounded at capacity entries
// (the node's CRPL). persist may be nil if persistence is handled elsewhere.
func NewReplayCache(capacity int, persist func(src common.Address, iv common.IvIndex, seq common.Seq) error) *ReplayCache {
	return &ReplayCache{
 capacity: capacity,
 entries: make(map[common.Address]highWaterMark),
 persist: persist,
	}
}

// Accept reports whether (iv, seq) from src is strictly newer than the
// stored high-water mark, §3 "A frame is accepted iff (iv, seq)
// is strictly greater than the stored tuple". It does NOT update the cache —
// callers must call Update only after upper-layer decryption has succeeded,
// §4.6.
func (r *ReplayCache) Accept(src common.Address, iv common.IvIndex, seq common.Seq) bool {
	hwm, ok := r.entries[src]
	if !ok {
 return true
	}
	return hwm.greaterThan(iv, seq)
}

// Update records (iv, seq) as the new high-water mark for src, rejecting
// with InsufficientSpace if src is new and the cache is already at capacity.
func (r *ReplayCache) Update(src common.Address, iv common.IvIndex, seq common.Seq) error {
	if _, exists := r.entries[src]; !exists && len(r.entries) >= r.capacity {
 return mesherr.New(mesherr.InsufficientSpace, "replay cache full, rejecting new source")
	}
	r.entries[src] = highWaterMark{iv: iv, seq: seq}
	if r.persist != nil {
 if err := r.persist(src, iv, seq); err != nil {
 return mesherr.Wrap(mesherr.InsufficientSpace, err, "persist replay cache entry")
 }
	}
	return nil
}

// Len reports the number of tracked sources, for metrics.
func (r *ReplayCache) Len() int { return len(r.entries) }