package stack

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidAppliesDefaults(t *testing.T) {
	var c Config
	require.NoError(t, c.Valid())
	require.Equal(t, DefaultConfig(), c)
}

func TestConfigValidRejectsOutOfRange(t *testing.T) {
	c := Config{TxQueueSlots: 64}
	err := c.Valid()
	require.Error(t, err)
}

func TestConfigValidLeavesExplicitValuesAlone(t *testing.T) {
	c := Config{AckSuppression: 1 * time.Second}
	require.NoError(t, c.Valid())
	require.Equal(t, 1*time.Second, c.AckSuppression)
	require.Equal(t, 10*time.Second, c.IncompleteTimeout)
}

func TestLoadConfigWithoutFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("txqueueslots: 8\nreplaycachecapacity: 256\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.TxQueueSlots)
	require.Equal(t, 256, cfg.ReplayCacheCapacity)
	require.Equal(t, 150*time.Millisecond, cfg.AckSuppression)
}
