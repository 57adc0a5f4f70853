package scanner

import (
	"time"

	"github.com/robotalks/radar.go/pkg/handshake"
)

// Config holds the fixed policy of the scan cycle.
type Config struct {
	// PaceDelay separates cycles.
	PaceDelay time.Duration
	// SettleDelay is held between the display update and the report.
	SettleDelay time.Duration
	// PollInterval is the handshake poll cadence.
	PollInterval time.Duration
	// ReversalThreshold is the number of cycles per sweep direction.
	ReversalThreshold uint32
}

// Policy defaults.
const (
	DefaultPaceDelay         = 70 * time.Millisecond
	DefaultSettleDelay       = 60 * time.Millisecond
	DefaultReversalThreshold = 90
)

// DefaultConfig returns the policy the scanner ships with.
func DefaultConfig() Config {
	return Config{
		PaceDelay:         DefaultPaceDelay,
		SettleDelay:       DefaultSettleDelay,
		PollInterval:      handshake.DefaultPollInterval,
		ReversalThreshold: DefaultReversalThreshold,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.PaceDelay <= 0 {
		c.PaceDelay = def.PaceDelay
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ReversalThreshold == 0 {
		c.ReversalThreshold = def.ReversalThreshold
	}
	return c
}
