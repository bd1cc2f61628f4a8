// Package sequence implements outbound sequence-number allocation with a
// persisted high-water mark, and the inbound replay-protection cache, per
// §3 "RPL" and §4.6.
package sequence

import "github.com/dejanb/btmesh/mesherr"

// DefaultCommitStride is the default gap maintained between seq_current and
// the persisted seq_commit threshold, §4.6.
const DefaultCommitStride = 100

// DefaultStartSeq is the conservative starting sequence number for a newly
// provisioned node, §4.5/§9 Open Question ("the reference starts
//... at Seq = 800").
const DefaultStartSeq uint32 = 800

// CommitFunc persists a new seq_commit threshold to stable storage. It must
// return before the new threshold is honoured for further allocation,
// §4.6 "written to storage before further seq allocation is
// permitted".
type CommitFunc func(commit uint32) error

// Allocator hands out strictly monotonic outbound sequence numbers, keeping
// seq_current always <= a persisted seq_commit threshold.
type Allocator struct {
	current uint32
	commit uint32
	stride uint32
	persist CommitFunc
}

// NewAllocator constructs an Allocator starting at startSeq with
// seq_commit==startSeq already persisted (the caller is responsible for
// having written that initial threshold; this constructor does not call
// persist itself). stride<=0 selects DefaultCommitStride.
func NewAllocator(startSeq uint32, stride uint32, persist CommitFunc) *Allocator {
	if stride == 0 {
 stride = DefaultCommitStride
	}
	return &Allocator{
 current: startSeq,
 commit: startSeq,
 stride: stride,
 persist: persist,
	}
}

// Next allocates the next sequence number, committing a new threshold first
// if current has crossed within stride of commit, §4.6.
// Rollover past 0x00FFFFFF returns mesherr.SeqRolloverError and allocates
// nothing.
func (a *Allocator) Next() (uint32, error) {
	if a.current > 0x00FFFFFF {
 return 0, mesherr.New(mesherr.SeqRolloverError, "sequence number exhausted")
	}
	if a.current+a.stride >= a.commit {
 newCommit := a.commit + a.stride
 if newCommit > 0x00FFFFFF {
 newCommit = 0x00FFFFFF + 1 // one-past-max, allocation will fail on next Next
 }
 if a.persist != nil {
 if err := a.persist(newCommit); err != nil {
 return 0, mesherr.Wrap(mesherr.InsufficientSpace, err, "persist seq_commit")
 }
 }
 a.commit = newCommit
	}

	v := a.current
	if v > 0x00FFFFFF {
 return 0, mesherr.New(mesherr.SeqRolloverError, "sequence number exhausted")
	}
	a.current++
	return v, nil
}

// Current returns the next value that will be allocated, without consuming
// it.
func (a *Allocator) Current() uint32 { return a.current }
// Commit returns the currently persisted threshold.
func (a *Allocator) Commit() uint32 { return a.commit }