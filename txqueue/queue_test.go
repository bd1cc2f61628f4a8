package txqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/lowertransport"
)

func TestAddNonsegmentedRetransmitsAfterDeadline(t *testing.T) {
	q := NewQueue(2)
	now := time.Unix(0, 0)
	token := NewCompletionToken()
	require.NoError(t, q.AddNonsegmented([]byte{1, 2, 3}, 2, &token, 10*time.Millisecond, now))
	require.Equal(t, 1, q.Len())

	retransmits, completions := q.Iter(now)
	require.Empty(t, retransmits)
	require.Empty(t, completions)

	retransmits, completions = q.Iter(now.Add(11 * time.Millisecond))
	require.Len(t, retransmits, 1)
	require.Empty(t, completions)
}

func TestNonsegmentedFiresFailureCompletionWhenExhausted(t *testing.T) {
	q := NewQueue(1)
	now := time.Unix(0, 0)
	token := NewCompletionToken()
	require.NoError(t, q.AddNonsegmented([]byte{1}, 1, &token, time.Millisecond, now))

	// First iteration past the deadline consumes the one retry.
	_, completions := q.Iter(now.Add(2 * time.Millisecond))
	require.Empty(t, completions)

	// Second iteration past the next deadline finds retries exhausted.
	_, completions = q.Iter(now.Add(4 * time.Millisecond))
	require.Len(t, completions, 1)
	require.False(t, completions[0].Success)
	require.Equal(t, 0, q.Len())
}

func TestQueueFullReturnsInsufficientSpace(t *testing.T) {
	q := NewQueue(1)
	now := time.Unix(0, 0)
	require.NoError(t, q.AddNonsegmented([]byte{1}, 1, nil, time.Second, now))
	err := q.AddNonsegmented([]byte{2}, 1, nil, time.Second, now)
	require.Error(t, err)
}

func TestSegmentedReceiveAckFiresCompletionOnceComplete(t *testing.T) {
	q := NewQueue(1)
	now := time.Unix(0, 0)
	payload := make([]byte, 20)
	segments := lowertransport.Segment(payload, false, 0, 0, 0x10, false)
	token := NewCompletionToken()

	require.NoError(t, q.AddSegmented(segments, 0x10, 5, &token, now))

	require.Nil(t, q.ReceiveAck(0x10, 1)) // only segment 0 acked
	completion := q.ReceiveAck(0x10, 0b11)
	require.NotNil(t, completion)
	require.True(t, completion.Success)
	require.Equal(t, 0, q.Len())
}

func TestExpireOutboundClearsSlot(t *testing.T) {
	q := NewQueue(1)
	now := time.Unix(0, 0)
	payload := make([]byte, 12)
	segments := lowertransport.Segment(payload, false, 0, 0, 0x20, false)
	require.NoError(t, q.AddSegmented(segments, 0x20, 0, nil, now))
	require.Equal(t, 1, q.Len())

	q.ExpireOutbound(0x20)
	require.Equal(t, 0, q.Len())
}
