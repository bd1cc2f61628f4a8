package stack

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dejanb/btmesh/mesherr"
)

// envPrefix is stripped and lower-cased/dot-converted from environment
// variable names when overriding static configuration, e.g.
// BTMESH_TXQUEUESLOTS=8 overrides txqueueslots.
const envPrefix = "BTMESH_"

// LoadConfig reads the static node configuration from an optional YAML file
// and environment overrides, applying Config.Valid defaults afterward.
// This is the *static* configuration concern of §6 (timing
// constants, capacities) — it never touches the Unprovisioned/Provisioned
// runtime state, which is storage.BackingStore's job.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
 if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
 return Config{}, mesherr.Wrap(mesherr.InvalidState, err, "load static config file")
 }
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
 return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
	}), nil); err != nil {
 return Config{}, mesherr.Wrap(mesherr.InvalidState, err, "load static config env overrides")
	}

	cfg := Config{
 AckSuppression: k.Duration("acksuppression"),
 IncompleteTimeout: k.Duration("incompletetimeout"),
 ProvisioningRetry: k.Duration("provisioningretry"),
 ProvisioningTimeout: k.Duration("provisioningtimeout"),
 UnprovisionedBeacon: k.Duration("unprovisionedbeacon"),
 SecureBeacon: k.Duration("securebeacon"),
 TxQueueSlots: k.Int("txqueueslots"),
 ReplayCacheCapacity: k.Int("replaycachecapacity"),
 SeqCommitStride: uint32(k.Int64("seqcommitstride")),
	}

	// koanf.Duration returns 0 for an unset key, matching the
	// zero-means-default convention Config.Valid expects. An acksuppression
	// value that is not a duration string (a bare integer) is read as
	// milliseconds; the other duration keys take duration strings such as "10s".
	if k.Exists("acksuppression") {
 if _, err := time.ParseDuration(k.String("acksuppression")); err != nil {
 cfg.AckSuppression = time.Duration(k.Int64("acksuppression")) * time.Millisecond
 }
	}

	if err := cfg.Valid(); err != nil {
 return Config{}, mesherr.Wrap(mesherr.InvalidState, err, "validate static config")
	}
	return cfg, nil
}
