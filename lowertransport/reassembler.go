package lowertransport

import (
	"time"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

// IncompleteTimeout is the idle duration after which a reassembly context is
// silently dropped, §4.2/§6.
const IncompleteTimeout = 10 * time.Second

// AckSuppressionInterval bounds how often a block-ack is emitted for a given
// context, §4.2.
const AckSuppressionInterval = 150 * time.Millisecond

// DefaultMaxContexts bounds the number of concurrent reassembly contexts.
const DefaultMaxContexts = 8

// contextKey identifies one in-flight segmented transmission.
type contextKey struct {
	src common.Address
	seqZero uint16
}

// context is one in-progress reassembly.
type context struct {
	key contextKey
	dst common.Address
	segN uint8
	akf bool
	aid byte
	szMic byte
	segments [][]byte
	bitmap uint32
	lastActivity time.Time
	lastAckSent time.Time
	createdAt time.Time
}

func (c *context) complete() bool {
	full := uint32(1)<<(uint32(c.segN)+1) - 1
	return c.bitmap&full == full
}

// Reassembler tracks in-flight segmented transmissions, keyed by (src,
// SeqZero), §4.2 "Reassembly".
type Reassembler struct {
	maxContexts int
	contexts map[contextKey]*context
	order []contextKey // insertion order, for oldest-incomplete eviction
}

// NewReassembler constructs a Reassembler bounded at maxContexts concurrent
// transmissions. maxContexts<=0 selects DefaultMaxContexts.
func NewReassembler(maxContexts int) *Reassembler {
	if maxContexts <= 0 {
 maxContexts = DefaultMaxContexts
	}
	return &Reassembler{
 maxContexts: maxContexts,
 contexts: make(map[contextKey]*context),
	}
}

// AckDue is returned alongside a segment's acceptance when a block-ack
// should now be sent (either because the suppression interval elapsed or
// the transmission just completed).
type AckDue struct {
	Src common.Address
	SeqZero uint16
	SegN uint8
	Bitmap uint32
}

// Result is the outcome of feeding one segment into the reassembler.
type Result struct {
	Complete bool
	Payload []byte // valid only if Complete
	Ack *AckDue
}

// Receive feeds one inbound segment, returning whether the transmission is
// now complete (and its reassembled payload) and whether a block-ack should
// be emitted, §4.2.
func (r *Reassembler) Receive(src, dst common.Address, seg Segmented, now time.Time) (Result, error) {
	key := contextKey{src: src, seqZero: seg.SeqZero}
	ctx, ok := r.contexts[key]
	if !ok {
 if len(r.contexts) >= r.maxContexts {
 r.evictOldestIncomplete()
 }
 ctx = &context{
 key: key,
 dst: dst,
 segN: seg.SegN,
 akf: seg.AKF,
 aid: seg.AID,
 szMic: seg.SzMic,
 segments: make([][]byte, int(seg.SegN)+1),
 createdAt: now,
 }
 r.contexts[key] = ctx
 r.order = append(r.order, key)
	}

	if seg.SegO > ctx.segN {
 return Result{}, mesherr.New(mesherr.InvalidPDU, "segment index beyond segN")
	}
	if ctx.segments[seg.SegO] == nil {
 ctx.segments[seg.SegO] = seg.Payload
 ctx.bitmap |= 1 << seg.SegO
	}
	ctx.lastActivity = now

	if ctx.complete() {
 payload := make([]byte, 0, (int(ctx.segN)+1)*MaxSegmentPayload)
 for _, s := range ctx.segments {
 payload = append(payload, s...)
 }
 delete(r.contexts, key)
 r.removeFromOrder(key)
 return Result{
 Complete: true,
 Payload: payload,
 Ack: &AckDue{Src: src, SeqZero: seg.SeqZero, SegN: ctx.segN, Bitmap: ctx.bitmap},
 }, nil
	}

	var ack *AckDue
	if ctx.lastAckSent.IsZero() || now.Sub(ctx.lastAckSent) >= AckSuppressionInterval {
 ctx.lastAckSent = now
 ack = &AckDue{Src: src, SeqZero: seg.SeqZero, SegN: ctx.segN, Bitmap: ctx.bitmap}
	}
	return Result{Ack: ack}, nil
}

// ExpireIdle drops every context whose last activity is older than
// IncompleteTimeout, §4.2 "Incomplete timer".
func (r *Reassembler) ExpireIdle(now time.Time) {
	for _, key := range append([]contextKey{}, r.order...) {
 ctx, ok := r.contexts[key]
 if !ok {
 continue
 }
 if now.Sub(ctx.lastActivity) >= IncompleteTimeout {
 delete(r.contexts, key)
 r.removeFromOrder(key)
 }
	}
}

func (r *Reassembler) evictOldestIncomplete() {
	if len(r.order) == 0 {
 return
	}
	oldest := r.order[0]
	delete(r.contexts, oldest)
	r.order = r.order[1:]
}

func (r *Reassembler) removeFromOrder(key contextKey) {
	for i, k := range r.order {
 if k == key {
 r.order = append(r.order[:i], r.order[i+1:]...)
 return
 }
	}
}

// Len reports the number of in-flight contexts, for metrics.
func (r *Reassembler) Len() int {
	return len(r.contexts)
}
