// Package txqueue implements the bounded segmented/non-segmented
// retransmission queue, §4.7 and
// original_source/btmesh-driver/src/stack/provisioned/transmit_queue.rs.
package txqueue

import (
	"time"

	"github.com/rs/xid"

	"github.com/dejanb/btmesh/lowertransport"
	"github.com/dejanb/btmesh/mesherr"
)

// DefaultSlots is the default bounded slot count, §4.7.
const DefaultSlots = 5

// WatchdogBase and WatchdogPerTTL compose the segmented watchdog deadline
// formula: base + perTTL*ttl, §6.
const (
	WatchdogBase = 200 * time.Millisecond
	WatchdogPerTTL = 50 * time.Millisecond
)

// DefaultRetries bounds non-segmented retransmission and segmented watchdog
// retry attempts before the entry is dropped.
const DefaultRetries = 4

// CompletionToken correlates a queued outbound PDU with its eventual
// completion, backed by github.com/rs/xid for compact sortable IDs that are
// convenient to grep out of logs.
type CompletionToken struct {
	id xid.ID
}

// NewCompletionToken mints a fresh token.
func NewCompletionToken() CompletionToken {
	return CompletionToken{id: xid.New()}
}

func (t CompletionToken) String() string { return t.id.String() }

// Completion reports how a queue entry finished.
type Completion struct {
	Token CompletionToken
	Success bool
}

// nonsegmentedEntry holds a single-PDU transmission awaiting retransmission.
type nonsegmentedEntry struct {
	pdu []byte
	retries int
	token *CompletionToken
	deadline time.Time
	retryDelay time.Duration
}

// segmentedEntry holds a multi-segment transmission awaiting block-ack.
type segmentedEntry struct {
	segments []lowertransport.Segmented
	ack lowertransport.BlockAck
	token *CompletionToken
	ttl uint8
	deadline time.Time
	retries int
}

// slot is one bounded queue entry: exactly one of its two fields is set.
type slot struct {
	nonsegmented *nonsegmentedEntry
	segmented *segmentedEntry
}

func (s slot) empty() bool { return s.nonsegmented == nil && s.segmented == nil }
// Queue is the bounded transmit queue, default 5 slots.
type Queue struct {
	slots []slot
}

// NewQueue constructs a Queue with the given slot count (DefaultSlots if 0).
func NewQueue(slots int) *Queue {
	if slots <= 0 {
 slots = DefaultSlots
	}
	return &Queue{slots: make([]slot, slots)}
}

func (q *Queue) firstFree() (int, error) {
	for i, s := range q.slots {
 if s.empty() {
 return i, nil
 }
	}
	return -1, mesherr.New(mesherr.InsufficientSpace, "transmit queue full")
}

// AddNonsegmented enqueues a single-PDU transmission.
func (q *Queue) AddNonsegmented(pdu []byte, retries int, token *CompletionToken, retryDelay time.Duration, now time.Time) error {
	i, err := q.firstFree()
	if err != nil {
 return err
	}
	if retries <= 0 {
 retries = DefaultRetries
	}
	q.slots[i] = slot{nonsegmented: &nonsegmentedEntry{
 pdu: pdu,
 retries: retries,
 token: token,
 deadline: now.Add(retryDelay),
 retryDelay: retryDelay,
	}}
	return nil
}

// AddSegmented enqueues a multi-segment transmission.
func (q *Queue) AddSegmented(segments []lowertransport.Segmented, seqZero uint16, ttl uint8, token *CompletionToken, now time.Time) error {
	i, err := q.firstFree()
	if err != nil {
 return err
	}
	segN := uint8(len(segments) - 1)
	q.slots[i] = slot{segmented: &segmentedEntry{
 segments: segments,
 ack: lowertransport.NewBlockAck(seqZero, segN),
 token: token,
 ttl: ttl,
 deadline: now.Add(watchdogDeadline(ttl)),
	}}
	return nil
}

func watchdogDeadline(ttl uint8) time.Duration {
	return WatchdogBase + WatchdogPerTTL*time.Duration(ttl)
}

// RetransmitItem is one PDU the caller should resend.
type RetransmitItem struct {
	PDU []byte
}

// Iter returns every slot whose deadline has elapsed, resetting their
// deadlines and decrementing retry counters; entries whose budget is
// exhausted are cleared and their completion fired with failure,
// §4.7 "iter (yields PDUs to retransmit and decays counters)".
func (q *Queue) Iter(now time.Time) (retransmits []RetransmitItem, completions []Completion) {
	for i := range q.slots {
 s := &q.slots[i]
 switch {
 case s.nonsegmented != nil:
 e := s.nonsegmented
 if now.Before(e.deadline) {
 continue
 }
 if e.retries <= 0 {
 if e.token != nil {
 completions = append(completions, Completion{Token: *e.token, Success: false})
 }
 *s = slot{}
 continue
 }
 retransmits = append(retransmits, RetransmitItem{PDU: e.pdu})
 e.retries--
 e.deadline = now.Add(e.retryDelay)
 case s.segmented != nil:
 e := s.segmented
 if now.Before(e.deadline) {
 continue
 }
 if e.retries >= DefaultRetries {
 if e.token != nil {
 completions = append(completions, Completion{Token: *e.token, Success: false})
 }
 *s = slot{}
 continue
 }
 for _, seg := range e.segments {
 if e.ack.Bitmap&(1<<seg.SegO) != 0 {
 continue
 }
 retransmits = append(retransmits, RetransmitItem{PDU: lowertransport.EncodeSegment(seg)})
 }
 e.retries++
 e.deadline = now.Add(watchdogDeadline(e.ttl))
 }
	}
	return retransmits, completions
}

// ReceiveAck merges an inbound block-ack into the matching segmented entry,
// firing completion and clearing the slot once every segment is acked,
// §4.7 "On block-ack receipt, merge into bitmap; if fully
// acked, fire token and clear".
func (q *Queue) ReceiveAck(seqZero uint16, bitmap uint32) *Completion {
	for i := range q.slots {
 s := &q.slots[i]
 if s.segmented == nil || s.segmented.ack.SeqZero != seqZero {
 continue
 }
 s.segmented.ack.Merge(bitmap)
 if s.segmented.ack.Complete() {
 var c *Completion
 if s.segmented.token != nil {
 c = &Completion{Token: *s.segmented.token, Success: true}
 }
 *s = slot{}
 return c
 }
 return nil
	}
	return nil
}

// ExpireOutbound force-clears the segmented entry matching seqZero (used
// when the upper layer abandons a transmission outright), §4.7
// "expire_outbound(seq_zero)".
func (q *Queue) ExpireOutbound(seqZero uint16) {
	for i := range q.slots {
 s := &q.slots[i]
 if s.segmented != nil && s.segmented.ack.SeqZero == seqZero {
 *s = slot{}
 return
 }
	}
}

// Len reports the number of occupied slots, for metrics.
func (q *Queue) Len() int {
	n := 0
	for _, s := range q.slots {
 if !s.empty() {
 n++
 }
	}
	return n
}
