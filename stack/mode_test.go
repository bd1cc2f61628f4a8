package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceStateFollowsModeKind(t *testing.T) {
	require.Equal(t, DeviceStateIdle, Mode{Kind: ModeNone}.DeviceState())
	require.Equal(t, DeviceStateUnprovisioned, Mode{Kind: ModeUnprovisioned}.DeviceState())
	require.Equal(t, DeviceStateProvisioned, Mode{Kind: ModeProvisioned}.DeviceState())
}
