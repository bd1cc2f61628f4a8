package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dejanb/btmesh/common"
	"github.com/dejanb/btmesh/mesherr"
)

func TestAddNetworkKeyDerivesMaterial(t *testing.T) {
	store := NewStore([16]byte{})
	var key [16]byte
	for i := range key {
 key[i] = byte(i)
	}

	handle, err := store.AddNetworkKey(0, key)
	require.NoError(t, err)

	entry, err := store.NetworkKeyByHandle(handle)
	require.NoError(t, err)
	require.Equal(t, key, entry.Key)
	require.Len(t, entry.EncryptionKey, 16)
	require.Len(t, entry.PrivacyKey, 16)
	require.Len(t, entry.NetworkID, 8)
	require.Len(t, entry.BeaconKey, 16)

	byNID := store.NetworkKeysByNID(entry.NID)
	require.Len(t, byNID, 1)
	require.Equal(t, handle, byNID[0].Handle)
}

func TestAddApplicationKeyDerivesAID(t *testing.T) {
	store := NewStore([16]byte{})
	var key [16]byte
	key[0] = 0x42

	handle, err := store.AddApplicationKey(0, key, 0)
	require.NoError(t, err)

	entry, err := store.ApplicationKeyByHandle(handle)
	require.NoError(t, err)
	require.LessOrEqual(t, entry.AID, byte(0x3f))

	byAID := store.ApplicationKeysByAID(entry.AID)
	require.Len(t, byAID, 1)
}

func TestNetworkKeyByHandleRejectsUnknown(t *testing.T) {
	store := NewStore([16]byte{})
	_, err := store.NetworkKeyByHandle(NetworkKeyHandle(0))
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.InvalidKeyHandle)
}

func TestLabelUUIDCapacityBound(t *testing.T) {
	store := NewStore([16]byte{})
	store.labelUUIDCap = 2

	require.NoError(t, store.AddLabelUUID(common.LabelUUID{1}))
	require.NoError(t, store.AddLabelUUID(common.LabelUUID{2}))
	err := store.AddLabelUUID(common.LabelUUID{3})
	require.Error(t, err)
	require.ErrorIs(t, err, mesherr.InsufficientSpace)
	require.Len(t, store.LabelUUIDs(), 2)
}
