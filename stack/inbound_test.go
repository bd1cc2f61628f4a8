package stack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/clog"
	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/lowertransport"
	"github.com/dejanb/btmesh/mesherr"
	"github.com/dejanb/btmesh/network"
	"github.com/dejanb/btmesh/provisioning"
	"github.com/dejanb/btmesh/secrets"
	"github.com/dejanb/btmesh/sequence"
	"github.com/dejanb/btmesh/txqueue"
)

type noopBearer struct{}

func (noopBearer) Transmit(ctx context.Context, pdu []byte) error { return nil }
func (noopBearer) Receive(ctx context.Context, state DeviceState) ([]byte, error) {
	return nil, nil
}
func (noopBearer) Beacon(ctx context.Context, b Beacon) error { return nil }

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	cfg := DefaultConfig()
	s := New(cfg, noopBearer{}, nil, clog.NewLogger("test"), nil, provisioning.Capabilities{}, nil)
	return s
}

func TestHandleBearerFrameRejectsWithNoActiveMode(t *testing.T) {
	s := newTestSupervisor(t)
	err := s.handleBearerFrame(context.Background(), []byte{0x00})
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.InvalidState)
}

func TestHandleNetworkFrameRejectsReplayedSeq(t *testing.T) {
	s := newTestSupervisor(t)

	var netKey [16]byte
	netKey[0] = 0x55
	secretsStore := secrets.NewStore([16]byte{})
	handle, err := secretsStore.AddNetworkKey(0, netKey)
	require.NoError(t, err)
	entry, err := secretsStore.NetworkKeyByHandle(handle)
	require.NoError(t, err)

	src := common.Address(0x0010)
	dst := common.Address(0x0020)
	iv := common.IvIndex(0)
	seq := common.Seq(3)

	lower := lowertransport.EncodeUnsegmented(lowertransport.Unsegmented{AKF: false, AID: 0, Payload: []byte{1, 2, 3, 4}})
	pdu, err := network.EncodeOutbound(entry, common.CtlAccess, common.NewTtl(5), seq, src, dst, iv, lower)
	require.NoError(t, err)

	replay := sequence.NewReplayCache(8, nil)
	require.True(t, replay.Accept(src, iv, seq))
	require.NoError(t, replay.Update(src, iv, seq))

	s.mode = Mode{
 Kind: ModeProvisioned,
 Provisioned: &ProvisionedStack{
 Secrets: secretsStore,
 Reassembler: lowertransport.NewReassembler(4),
 TxQueue: txqueue.NewQueue(4),
 ReplayCache: replay,
 IvIndex: iv,
 },
	}

	err = s.handleBearerFrame(context.Background(), pdu)
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.InvalidPDU)
}
