package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

func TestReplayCacheRejectsDuplicate(t *testing.T) {
	cache := NewReplayCache(8, nil)
	src := common.Address(0x0010)
	iv := common.IvIndex(5)
	seq := common.Seq(100)

	require.True(t, cache.Accept(src, iv, seq))
	require.NoError(t, cache.Update(src, iv, seq))

	require.False(t, cache.Accept(src, iv, seq))
	require.Equal(t, 1, cache.Len())
}

func TestReplayCacheAcceptDoesNotMutate(t *testing.T) {
	cache := NewReplayCache(8, nil)
	src := common.Address(0x0010)
	iv := common.IvIndex(5)
	seq := common.Seq(100)

	require.NoError(t, cache.Update(src, iv, seq))
	require.Equal(t, 1, cache.Len())

	// Calling Accept for a higher seq must not itself record anything.
	require.True(t, cache.Accept(src, iv, common.Seq(101)))
	require.Equal(t, 1, cache.Len())
	require.True(t, cache.Accept(src, iv, common.Seq(101)))
}

func TestReplayCacheFailsClosedAtCapacity(t *testing.T) {
	cache := NewReplayCache(1, nil)
	require.NoError(t, cache.Update(common.Address(1), common.IvIndex(0), common.Seq(1)))

	err := cache.Update(common.Address(2), common.IvIndex(0), common.Seq(1))
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.InsufficientSpace)
}

func TestAllocatorSeqRollover(t *testing.T) {
	a := NewAllocator(0x00FFFFFF, 10, nil)
	v, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, uint32(0x00FFFFFF), v)

	_, err = a.Next()
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.SeqRolloverError)
}

func TestAllocatorCommitsThreshold(t *testing.T) {
	var commits []uint32
	a := NewAllocator(0, 5, func(c uint32) error {
 commits = append(commits, c)
 return nil
	})

	for i := 0; i < 6; i++ {
 _, err := a.Next()
 require.NoError(t, err)
	}

	require.NotEmpty(t, commits)
	require.GreaterOrEqual(t, a.Commit(), a.Current())
}
