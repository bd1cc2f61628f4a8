package stack

import (
	"context"
	"time"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/lowertransport"
	"github.com/dejanb/btmesh/mesherr"
	"github.com/dejanb/btmesh/provisioning"
	"github.com/dejanb/btmesh/uppertransport"
)

// handleBearerFrame routes one inbound bearer frame through the layered
// decode pipeline described in §2 "Data flow (inbound)": network
// decrypt/replay -> lower-transport reassemble -> upper-transport decrypt.
// The final hand-off to access-layer dispatch belongs to the
// element/model runtime built atop this package ( §9 "model tasks
// receive only value copies via channels"), which is out of scope here.
func (s *Supervisor) handleBearerFrame(ctx context.Context, pdu []byte) error {
	switch s.mode.Kind {
	case ModeUnprovisioned:
 return s.handleProvisioningFrame(ctx, pdu)
	case ModeProvisioned:
 return s.handleNetworkFrame(ctx, pdu)
	default:
 return mesherr.New(mesherr.InvalidState, "bearer frame received with no active mode")
	}
}

func (s *Supervisor) handleProvisioningFrame(ctx context.Context, pdu []byte) error {
	fsm := s.mode.Unprovisioned.FSM
	step, payload, err := provisioning.DecodeStep(pdu)
	if err != nil {
 return err
	}

	resp, outcome, data, err := fsm.Process(time.Now(), step, payload)
	if err != nil {
 fsm.Fail()
 return err
	}

	switch outcome {
	case provisioning.OutcomeResponse:
 if resp == nil {
 return nil
 }
 wire, err := provisioning.EncodeStep(fsm.State(), resp)
 if err != nil {
 return err
 }
 return s.bearer.Transmit(ctx, wire)
	case provisioning.OutcomeProvisioned:
 return s.completeProvisioning(ctx, data)
	default:
 fsm.Fail()
 return mesherr.New(mesherr.IncompleteTransaction, "provisioning step failed")
	}
}

func (s *Supervisor) handleNetworkFrame(ctx context.Context, pdu []byte) error {
	p := s.mode.Provisioned
	in, err := s.network.DecodeInbound(pdu, p.Secrets, p.IvIndex)
	if err != nil {
 if s.metrics != nil {
 s.metrics.IncFramesDropped()
 }
 return err
	}
	if s.metrics != nil {
 s.metrics.IncFramesDecrypted()
	}

	if !p.ReplayCache.Accept(in.Src, in.IvIndex, in.Seq) {
 if s.metrics != nil {
 s.metrics.IncReplayRejections()
 }
 return mesherr.New(mesherr.InvalidPDU, "replay rejected")
	}

	var upperPDU []byte
	var akf bool
	var aid byte
	var szmic common.SzMic
	if len(in.LowerTrans) > 0 && in.LowerTrans[0]&0x80 != 0 {
 seg, err := lowertransport.DecodeSegment(in.LowerTrans)
 if err != nil {
 return err
 }
 result, err := p.Reassembler.Receive(in.Src, in.Dst, seg, time.Now())
 if err != nil {
 if s.metrics != nil {
 s.metrics.IncReassemblyDrops()
 }
 return err
 }
 if !result.Complete {
 return nil
 }
 upperPDU = result.Payload
 akf = seg.AKF
 aid = seg.AID
 szmic = common.SzMic(seg.SzMic)
	} else {
 u, err := lowertransport.DecodeUnsegmented(in.LowerTrans)
 if err != nil {
 return err
 }
 upperPDU = u.Payload
 akf = u.AKF
 aid = u.AID
 szmic = common.SzMic32 // unsegmented access PDUs always carry a 32-bit TransMIC, §4.2.
	}

	micSize := szmic.Size()
	if len(upperPDU) < micSize {
 return mesherr.New(mesherr.ParseError, "upper transport pdu too short for transmic")
	}
	ciphertext := upperPDU[:len(upperPDU)-micSize]
	transMIC := upperPDU[len(upperPDU)-micSize:]

	// The eventual access.Dispatcher fan-out of the decrypted plaintext
	// belongs to the element/model runtime built on these packages (see the
	// package doc above); decryption itself is fully exercised by
	// uppertransport's own tests.
	if _, err = uppertransport.DecryptAccess(p.Secrets, akf, aid, szmic, in.Seq, in.Src, in.Dst, in.IvIndex, ciphertext, transMIC); err != nil {
 return err
	}
	return p.ReplayCache.Update(in.Src, in.IvIndex, in.Seq)
}
