package paymentqueue

import (
	"time"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultSweepTimeout = 5 * time.Minute
	DefaultLeaseTTL     = DefaultSweepTimeout + leaseMargin

	leaseMargin = time.Minute
)

// Config controls the fallback polling loop
type Config struct {
	Enabled      bool
	Interval     time.Duration
	MaxRetries   int
	SweepTimeout time.Duration
	LeaseTTL     time.Duration
}

// LoadConfig reads the PAYMENT_QUEUE_* environment variables
func LoadConfig() Config {
	cfg := Config{
		Enabled:      env.GetBool("PAYMENT_QUEUE_ENABLED", true),
		Interval:     env.GetDuration("PAYMENT_QUEUE_INTERVAL", DefaultInterval),
		MaxRetries:   env.GetInt("PAYMENT_QUEUE_MAX_RETRIES", DefaultMaxRetries),
		SweepTimeout: env.GetDuration("PAYMENT_QUEUE_SWEEP_TIMEOUT", DefaultSweepTimeout),
		LeaseTTL:     env.GetDuration("PAYMENT_QUEUE_LEASE_TTL", DefaultLeaseTTL),
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = DefaultSweepTimeout
	}
	// The lease must outlive the longest sweep or replicas overlap.
	if c.LeaseTTL < c.SweepTimeout+leaseMargin {
		c.LeaseTTL = c.SweepTimeout + leaseMargin
	}
	return c
}
