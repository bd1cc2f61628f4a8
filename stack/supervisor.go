// Package stack implements the top-level event loop described in 
// §4.8: it holds the tri-state current mode (None/Unprovisioned/
// Provisioned), multiplexes bearer I/O, outbound application traffic,
// beacon emission and retransmission timers, and reconciles persisted
// configuration. Grounded on original_source/btmesh-driver/src/lib.rs's
// run_driver loop, translated from Rust's select4/embassy-executor
// cooperative model into a Go select over goroutine-fed channels guarded by
// golang.org/x/sync/errgroup.
package stack

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dejanb/btmesh/access"
	"github.com/dejanb/btmesh/clog"
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/lowertransport"
	"github.com/dejanb/btmesh/mesherr"
	"github.com/dejanb/btmesh/metrics"
	"github.com/dejanb/btmesh/network"
	"github.com/dejanb/btmesh/provisioning"
	"github.com/dejanb/btmesh/secrets"
	"github.com/dejanb/btmesh/sequence"
	"github.com/dejanb/btmesh/storage"
	"github.com/dejanb/btmesh/txqueue"
	"github.com/dejanb/btmesh/uppertransport"
)

// Supervisor owns the stack's current Mode and drives the single
// cooperative event loop described in §5.
type Supervisor struct {
	cfg Config
	bearer Bearer
	storage *storage.Storage
	outbound chan OutboundMessage
	log clog.Clog
	metrics *metrics.Registry
	network *network.Layer
	caps provisioning.Capabilities
	rng io.Reader
	mode Mode
}

// New constructs a Supervisor. metricsRegistry may be nil. rng supplies the
// entropy used to mint a fresh device UUID on cold boot or node reset,
// §1 ("the RNG" is an external collaborator) — it defaults to
// crypto/rand.Reader when nil.
func New(cfg Config, bearer Bearer, backing storage.BackingStore, log clog.Clog, metricsRegistry *metrics.Registry, caps provisioning.Capabilities, rng io.Reader) *Supervisor {
	if rng == nil {
 rng = rand.Reader
	}
	return &Supervisor{
 cfg: cfg,
 bearer: bearer,
 storage: storage.NewStorage(backing),
 outbound: make(chan OutboundMessage, 1),
 log: log,
 metrics: metricsRegistry,
 network: network.New(log),
 caps: caps,
 rng: rng,
 mode: Mode{Kind: ModeNone},
	}
}

// Outbound returns the models->supervisor channel, §5.
func (s *Supervisor) Outbound() chan<- OutboundMessage { return s.outbound }
type eventKind int

const (
	eventNone eventKind = iota
	eventBearerFrame
	eventOutbound
	eventBeacon
	eventRetransmit
)

type eventResult struct {
	kind eventKind
	pdu []byte
	outbound OutboundMessage
}

// Run executes the supervisor loop until ctx is cancelled or a fatal
// condition (seq rollover, an InvalidState error from an event handler,
// storage failure) occurs, §4.8/§5.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.storage.Init(); err != nil {
 return err
	}

	for {
 select {
 case <-ctx.Done():
 return ctx.Err()
 default:
 }

 if err := s.loadAndReconcile(); err != nil {
 return err
 }

 res, err := s.awaitOneEvent(ctx)
 if err != nil {
 return err
 }

 if err := s.handleEvent(ctx, res); err != nil {
 var me *mesherr.Error
 if errAs(err, &me) && (me.Kind() == mesherr.SeqRolloverError || me.Kind() == mesherr.InvalidState) {
 return err
 }
 s.log.Warn("stack: dropping frame: %v", err)
 }

 if err := s.persistIfChanged(); err != nil {
 return err
 }
	}
}

// errAs extracts a *mesherr.Error from err by a direct type assertion, for
// the kind check above; it does not unwrap err's chain.
func errAs(err error, target **mesherr.Error) bool {
	e, ok := err.(*mesherr.Error)
	if !ok {
 return false
	}
	*target = e
	return true
}

func (s *Supervisor) loadAndReconcile() error {
	cfg, err := s.storage.Get()
	if err != nil {
 uuid, genErr := common.NewRandomUUID(s.rng)
 if genErr != nil {
 return mesherr.Wrap(mesherr.InvalidState, genErr, "generate initial uuid")
 }
 cfg = storage.Configuration{Unprovisioned: &storage.Unprovisioned{UUID: uuid}}
 if _, err := s.storage.PutIfChanged(cfg); err != nil {
 return err
 }
	}

	switch {
	case cfg.Provisioned != nil && s.mode.Kind != ModeProvisioned:
 s.mode = s.buildProvisionedMode(*cfg.Provisioned)
	case cfg.Unprovisioned != nil && s.mode.Kind != ModeUnprovisioned:
 s.mode = Mode{
 Kind: ModeUnprovisioned,
 Unprovisioned: &UnprovisionedStack{
 UUID: cfg.Unprovisioned.UUID,
 FSM: provisioning.NewFSM(cfg.Unprovisioned.UUID, s.caps),
 },
 }
	}
	return nil
}

func (s *Supervisor) buildProvisionedMode(p storage.Provisioned) Mode {
	store := rebuildSecretStore(p)
	return Mode{
 Kind: ModeProvisioned,
 Provisioned: &ProvisionedStack{
 Secrets: store,
 Reassembler: lowertransport.NewReassembler(lowertransport.DefaultMaxContexts),
 TxQueue: txqueue.NewQueue(s.cfg.TxQueueSlots),
 ReplayCache: sequence.NewReplayCache(s.cfg.ReplayCacheCapacity, nil),
 SeqAllocator: sequence.NewAllocator(p.Sequence, s.cfg.SeqCommitStride, nil),
 IvIndex: p.NetworkState.IvIndex,
 IvUpdateFlag: p.NetworkState.IvUpdateFlag,
 UnicastAddr: p.DeviceInfo.PrimaryUnicastAddr,
 NumElements: p.DeviceInfo.NumElements,
 },
	}
}

func (s *Supervisor) awaitOneEvent(ctx context.Context) (eventResult, error) {
	iterCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan eventResult, 4)
	g, gctx := errgroup.WithContext(iterCtx)

	g.Go(func() error {
 pdu, err := s.bearer.Receive(gctx, s.mode.DeviceState())
 if err != nil {
 if gctx.Err() != nil {
 return nil
 }
 return err
 }
 select {
 case results <- eventResult{kind: eventBearerFrame, pdu: pdu}:
 cancel()
 case <-gctx.Done():
 }
 return nil
	})

	g.Go(func() error {
 select {
 case msg := <-s.outbound:
 select {
 case results <- eventResult{kind: eventOutbound, outbound: msg}:
 cancel()
 case <-gctx.Done():
 }
 case <-gctx.Done():
 }
 return nil
	})

	g.Go(func() error {
 timer := time.NewTimer(time.Until(s.nextBeaconDeadline()))
 defer timer.Stop()
 select {
 case <-timer.C:
 select {
 case results <- eventResult{kind: eventBeacon}:
 cancel()
 case <-gctx.Done():
 }
 case <-gctx.Done():
 }
 return nil
	})

	g.Go(func() error {
 timer := time.NewTimer(time.Until(s.nextRetransmitDeadline()))
 defer timer.Stop()
 select {
 case <-timer.C:
 select {
 case results <- eventResult{kind: eventRetransmit}:
 cancel()
 case <-gctx.Done():
 }
 case <-gctx.Done():
 }
 return nil
	})

	if err := g.Wait(); err != nil {
 return eventResult{}, err
	}

	select {
	case res := <-results:
 return res, nil
	default:
 return eventResult{kind: eventNone}, nil
	}
}

func (s *Supervisor) nextBeaconDeadline() time.Time {
	now := time.Now()
	switch s.mode.Kind {
	case ModeUnprovisioned:
 return s.mode.Unprovisioned.FSM.NextBeaconDeadline(now.Add(-s.cfg.UnprovisionedBeacon))
	case ModeProvisioned:
 return s.mode.Provisioned.LastBeaconAt.Add(s.cfg.SecureBeacon)
	default:
 return now.Add(s.cfg.UnprovisionedBeacon)
	}
}

func (s *Supervisor) nextRetransmitDeadline() time.Time {
	// In the absence of a populated transmit queue there is nothing to
	// retransmit; re-arm on the ack-suppression interval so the loop still
	// makes forward progress and picks up newly-queued entries promptly.
	return time.Now().Add(s.cfg.AckSuppression)
}

func (s *Supervisor) handleEvent(ctx context.Context, res eventResult) error {
	switch res.kind {
	case eventBearerFrame:
 return s.handleBearerFrame(ctx, res.pdu)
	case eventOutbound:
 return s.handleOutbound(ctx, res.outbound)
	case eventBeacon:
 return s.handleBeacon(ctx)
	case eventRetransmit:
 return s.handleRetransmit(ctx)
	default:
 return nil
	}
}

func (s *Supervisor) handleBeacon(ctx context.Context) error {
	switch s.mode.Kind {
	case ModeUnprovisioned:
 err := s.bearer.Beacon(ctx, Beacon{Kind: BeaconKindUnprovisioned, UUID: s.mode.Unprovisioned.UUID})
 return err
	case ModeProvisioned:
 s.mode.Provisioned.LastBeaconAt = time.Now()
 entry, err := s.mode.Provisioned.Secrets.NetworkKeyByHandle(0)
 if err != nil {
 return err
 }
 return s.bearer.Beacon(ctx, Beacon{Kind: BeaconKindProvisioned, NetworkID: entry.NetworkID})
	default:
 return nil
	}
}

func (s *Supervisor) handleRetransmit(ctx context.Context) error {
	if s.mode.Kind != ModeProvisioned {
 return nil
	}
	s.mode.Provisioned.Reassembler.ExpireIdle(time.Now())
	items, completions := s.mode.Provisioned.TxQueue.Iter(time.Now())
	for _, item := range items {
 if err := s.bearer.Transmit(ctx, item.PDU); err != nil {
 s.log.Warn("stack: retransmit failed: %v", err)
 }
	}
	_ = completions // completion tokens are surfaced to callers via a future foundation-layer hook; out of scope here
	if s.metrics != nil {
 s.metrics.SetTxQueueDepth(s.mode.Provisioned.TxQueue.Len())
	}
	return nil
}

func (s *Supervisor) handleOutbound(ctx context.Context, msg OutboundMessage) error {
	if s.mode.Kind != ModeProvisioned {
 return mesherr.New(mesherr.InvalidState, "outbound message while not provisioned")
	}
	p := s.mode.Provisioned

	op, err := buildOutboundOpcode(msg.ModelID, msg.Opcode)
	if err != nil {
 return err
	}
	opcodeBytes, err := access.EncodeOpcode(op)
	if err != nil {
 return err
	}
	accessPayload := append(append([]byte{}, opcodeBytes...), msg.Payload...)

	var appKeyEntry *secrets.ApplicationKeyEntry
	if msg.AppKey != nil {
 appKeyEntry, err = p.Secrets.ApplicationKeyByHandle(*msg.AppKey)
 if err != nil {
 return err
 }
	}

	netEntry, err := p.Secrets.NetworkKeyByHandle(0)
	if err != nil {
 return err
	}

	seq, err := p.SeqAllocator.Next()
	if err != nil {
 return err
	}

	ciphertext, transMIC, akf, aid, err := uppertransport.EncryptAccess(
 p.Secrets, appKeyEntry, msg.SzMic, common.Seq(seq), p.UnicastAddr, msg.Dst, p.IvIndex, msg.LabelUUID, accessPayload)
	if err != nil {
 return err
	}
	upperPDU := append(append([]byte{}, ciphertext...), transMIC...)

	ttl := msg.TTL
	if ttl == 0 {
 ttl = DefaultOutboundTTL
	}

	token := txqueue.NewCompletionToken()
	if msg.SzMic == common.SzMic32 && len(upperPDU) <= lowertransport.MaxSegmentPayload {
 lowerPDU := lowertransport.EncodeUnsegmented(lowertransport.Unsegmented{AKF: akf, AID: aid, Payload: upperPDU})
 pdu, err := network.EncodeOutbound(netEntry, common.CtlAccess, ttl, common.Seq(seq), p.UnicastAddr, msg.Dst, p.IvIndex, lowerPDU)
 if err != nil {
 return err
 }
 if err := p.TxQueue.AddNonsegmented(pdu, txqueue.DefaultRetries, &token, txqueue.WatchdogBase, time.Now()); err != nil {
 return err
 }
 return s.bearer.Transmit(ctx, pdu)
	}

	seqZero := common.SeqZeroOf(common.Seq(seq))
	segments := lowertransport.Segment(upperPDU, akf, aid, msg.SzMic.Bit(), uint16(seqZero), false)
	if err := p.TxQueue.AddSegmented(segments, uint16(seqZero), ttl.Value(), &token, time.Now()); err != nil {
 return err
	}
	for _, seg := range segments {
 pdu, err := network.EncodeOutbound(netEntry, common.CtlAccess, ttl, common.Seq(seq), p.UnicastAddr, msg.Dst, p.IvIndex, lowertransport.EncodeSegment(seg))
 if err != nil {
 return err
 }
 if err := s.bearer.Transmit(ctx, pdu); err != nil {
 return err
 }
	}
	return nil
}

func (s *Supervisor) persistIfChanged() error {
	if s.mode.Kind == ModeNone {
 return nil
	}
	cfg := storage.Configuration{}
	switch s.mode.Kind {
	case ModeUnprovisioned:
 cfg.Unprovisioned = &storage.Unprovisioned{UUID: s.mode.Unprovisioned.UUID}
	case ModeProvisioned:
 p := s.mode.Provisioned
 cfg.Provisioned = &storage.Provisioned{
 NetworkState: storage.NetworkState{IvIndex: p.IvIndex, IvUpdateFlag: p.IvUpdateFlag},
 Secrets: snapshotSecretStore(p.Secrets),
 DeviceInfo: storage.DeviceInfo{PrimaryUnicastAddr: p.UnicastAddr, NumElements: p.NumElements},
 Sequence: p.SeqAllocator.Commit(),
 }
	}
	_, err := s.storage.PutIfChanged(cfg)
	if s.metrics != nil && s.mode.Kind == ModeProvisioned {
 s.metrics.SetRPLOccupancy(s.mode.Provisioned.ReplayCache.Len())
 s.metrics.SetReassemblyContexts(s.mode.Provisioned.Reassembler.Len())
	}
	return err
}
