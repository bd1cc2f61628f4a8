package provisioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
)

func TestHappyPathProvisioning(t *testing.T) {
	uuid := common.UUID{0x01, 0x02, 0x03}
	caps := Capabilities{NumElements: 1}
	fsm := NewFSM(uuid, caps)
	require.Equal(t, StateBeaconing, fsm.State())

	now := time.Now()

	resp, outcome, _, err := fsm.Process(now, StateInvite, []byte{0x00})
	require.NoError(t, err)
	require.Equal(t, OutcomeResponse, outcome)
	require.NotEmpty(t, resp)

	_, outcome, _, err = fsm.Process(now, StateStart, []byte{0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, OutcomeResponse, outcome)

	_, outcome, _, err = fsm.Process(now, StatePublicKey, make([]byte, 64))
	require.NoError(t, err)
	require.Equal(t, OutcomeResponse, outcome)

	_, outcome, _, err = fsm.Process(now, StateConfirmation, make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, OutcomeResponse, outcome)

	_, outcome, _, err = fsm.Process(now, StateRandom, make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, OutcomeResponse, outcome)

	dataPayload := make([]byte, 25)
	dataPayload[16] = 0x00 // key index high byte
	dataPayload[17] = 0x00 // key index low byte
	dataPayload[18] = 0x00 // flags
	// iv index bytes [19:23] left zero
	dataPayload[23] = 0x01
	dataPayload[24] = 0x00 // unicast address 0x0100

	_, outcome, data, err := fsm.Process(now, StateData, dataPayload)
	require.NoError(t, err)
	require.Equal(t, OutcomeProvisioned, outcome)
	require.NotNil(t, data)
	require.Equal(t, common.Address(0x0100), data.UnicastAddr)
	require.Equal(t, common.IvIndex(0), data.IvIndex)
	require.Equal(t, StartingSequence, uint32(800))
}

func TestProcessRejectsOutOfOrderStep(t *testing.T) {
	fsm := NewFSM(common.UUID{}, Capabilities{})
	_, _, _, err := fsm.Process(time.Now(), StateData, nil)
	require.Error(t, err)
}

func TestFailRevertsToBeaconingPreservingUUID(t *testing.T) {
	uuid := common.UUID{0xaa, 0xbb}
	fsm := NewFSM(uuid, Capabilities{NumElements: 2})
	_, _, _, err := fsm.Process(time.Now(), StateInvite, nil)
	require.NoError(t, err)

	fsm.Fail()
	require.Equal(t, StateBeaconing, fsm.State())
	require.Equal(t, uuid, fsm.uuid)

	// The FSM accepts Invite again, proving it reverted cleanly.
	_, outcome, _, err := fsm.Process(time.Now(), StateInvite, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeResponse, outcome)
}

func TestCompleteRepeatsSchedule(t *testing.T) {
	start := time.Now()
	repeats := CompleteRepeats(start)
	require.Len(t, repeats, CompleteRepeatCount)
	for i, at := range repeats {
 require.Equal(t, start.Add(time.Duration(i)*CompleteRepeatSpacing), at)
	}
}

func TestDecodeEncodeStepRoundTrip(t *testing.T) {
	wire, err := EncodeStep(StateInvite, []byte{0x00})
	require.NoError(t, err)

	state, payload, err := DecodeStep(wire)
	require.NoError(t, err)
	require.Equal(t, StateInvite, state)
	require.Equal(t, []byte{0x00}, payload)
}
