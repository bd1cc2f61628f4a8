package stack

import (
	"time"

	"github.com/pkg/errors"
)

// defines a btmesh node configuration range, mirroring the teacher
// cs104.Config's documented [min,max] convention.
const (
	// segment ack suppression interval range [10, 10000]ms, default 150ms.
	AckSuppressionMin = 10 * time.Millisecond
	AckSuppressionMax = 10 * time.Second

	// incomplete reassembly timer range [1, 120]s, default 10s.
	IncompleteTimeoutMin = 1 * time.Second
	IncompleteTimeoutMax = 120 * time.Second

	// provisioning step retry range [100, 5000]ms, default 500ms.
	ProvisioningRetryMin = 100 * time.Millisecond
	ProvisioningRetryMax = 5 * time.Second

	// provisioning total timeout range [5, 300]s, default 30s.
	ProvisioningTimeoutMin = 5 * time.Second
	ProvisioningTimeoutMax = 300 * time.Second

	// unprovisioned beacon cadence range [1, 60]s, default 5s.
	UnprovisionedBeaconMin = 1 * time.Second
	UnprovisionedBeaconMax = 60 * time.Second

	// secure network beacon cadence range [1, 300]s, default 10s.
	SecureBeaconMin = 1 * time.Second
	SecureBeaconMax = 300 * time.Second

	// transmit queue slot count range [1, 32], default 5.
	TxQueueSlotsMin = 1
	TxQueueSlotsMax = 32

	// replay protection list capacity range [1, 4096], default 128.
	ReplayCacheCapacityMin = 1
	ReplayCacheCapacityMax = 4096

	// seq commit stride range [1, 10000], default 100.
	SeqCommitStrideMin = 1
	SeqCommitStrideMax = 10000
)

// Config defines the timing and capacity knobs of a btmesh node. The
// default is applied for each unspecified value, §6 "Timing
// constants" — mirroring the teacher's cs104.Config.Valid idiom.
type Config struct {
	// Segment ack suppression interval, default 150ms. §4.2.
	AckSuppression time.Duration

	// Incomplete reassembly timer, default 10s. §4.2. Only validated here:
	// the reassembler uses lowertransport.IncompleteTimeout.
	IncompleteTimeout time.Duration

	// Provisioning per-step retransmit interval, default 500ms. §4.5. Only
	// validated here: Supervisor does not read it.
	ProvisioningRetry time.Duration

	// Provisioning total timeout, default 30s. §4.5. Only validated here:
	// Supervisor does not read it.
	ProvisioningTimeout time.Duration

	// Unprovisioned Device Beacon cadence, default 5s. §4.5/§6.
	UnprovisionedBeacon time.Duration

	// Secure Network Beacon cadence, default 10s. §6.
	SecureBeacon time.Duration

	// Transmit queue slot count, default 5. §4.7.
	TxQueueSlots int

	// Replay protection list capacity (CRPL), default 128. §3.
	ReplayCacheCapacity int

	// Seq commit stride, default 100. §4.6.
	SeqCommitStride uint32
}

// Valid applies the default for each unspecified value, range-checking the
// rest, mirroring the teacher's cs104.Config.Valid.
func (c *Config) Valid() error {
	if c == nil {
 return errors.New("invalid pointer")
	}

	if c.AckSuppression == 0 {
 c.AckSuppression = 150 * time.Millisecond
	} else if c.AckSuppression < AckSuppressionMin || c.AckSuppression > AckSuppressionMax {
 return errors.New("AckSuppression not in [10ms, 10s]")
	}

	if c.IncompleteTimeout == 0 {
 c.IncompleteTimeout = 10 * time.Second
	} else if c.IncompleteTimeout < IncompleteTimeoutMin || c.IncompleteTimeout > IncompleteTimeoutMax {
 return errors.New("IncompleteTimeout not in [1s, 120s]")
	}

	if c.ProvisioningRetry == 0 {
 c.ProvisioningRetry = 500 * time.Millisecond
	} else if c.ProvisioningRetry < ProvisioningRetryMin || c.ProvisioningRetry > ProvisioningRetryMax {
 return errors.New("ProvisioningRetry not in [100ms, 5s]")
	}

	if c.ProvisioningTimeout == 0 {
 c.ProvisioningTimeout = 30 * time.Second
	} else if c.ProvisioningTimeout < ProvisioningTimeoutMin || c.ProvisioningTimeout > ProvisioningTimeoutMax {
 return errors.New("ProvisioningTimeout not in [5s, 300s]")
	}

	if c.UnprovisionedBeacon == 0 {
 c.UnprovisionedBeacon = 5 * time.Second
	} else if c.UnprovisionedBeacon < UnprovisionedBeaconMin || c.UnprovisionedBeacon > UnprovisionedBeaconMax {
 return errors.New("UnprovisionedBeacon not in [1s, 60s]")
	}

	if c.SecureBeacon == 0 {
 c.SecureBeacon = 10 * time.Second
	} else if c.SecureBeacon < SecureBeaconMin || c.SecureBeacon > SecureBeaconMax {
 return errors.New("SecureBeacon not in [1s, 300s]")
	}

	if c.TxQueueSlots == 0 {
 c.TxQueueSlots = 5
	} else if c.TxQueueSlots < TxQueueSlotsMin || c.TxQueueSlots > TxQueueSlotsMax {
 return errors.New("TxQueueSlots not in [1, 32]")
	}

	if c.ReplayCacheCapacity == 0 {
 c.ReplayCacheCapacity = 128
	} else if c.ReplayCacheCapacity < ReplayCacheCapacityMin || c.ReplayCacheCapacity > ReplayCacheCapacityMax {
 return errors.New("ReplayCacheCapacity not in [1, 4096]")
	}

	if c.SeqCommitStride == 0 {
 c.SeqCommitStride = 100
	} else if c.SeqCommitStride < SeqCommitStrideMin || c.SeqCommitStride > SeqCommitStrideMax {
 return errors.New("SeqCommitStride not in [1, 10000]")
	}

	return nil
}

// DefaultConfig returns a fully-defaulted Config.
func DefaultConfig() Config {
	return Config{
 AckSuppression: 150 * time.Millisecond,
 IncompleteTimeout: 10 * time.Second,
 ProvisioningRetry: 500 * time.Millisecond,
 ProvisioningTimeout: 30 * time.Second,
 UnprovisionedBeacon: 5 * time.Second,
 SecureBeacon: 10 * time.Second,
 TxQueueSlots: 5,
 ReplayCacheCapacity: 128,
 SeqCommitStride: 100,
	}
}
