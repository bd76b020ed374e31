package harness

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config tunes the timing behavior of the harness.
//
// Slack is the permissible scheduling overshoot for timing assertions:
// clauses waiting for a TTL or a delivery delay wait for the requested
// duration plus Slack, and accept arrivals up to Slack late. It is a
// configuration knob, not a constant, because acceptable overshoot differs
// between an in-memory provider and one backed by a remote broker.
type Config struct {
	// Slack is the allowed scheduling overshoot for timing assertions.
	Slack time.Duration `env:"TCK_TIMING_SLACK" envDefault:"250ms"`

	// PollInterval is the delay between bounded-wait probe attempts.
	PollInterval time.Duration `env:"TCK_POLL_INTERVAL" envDefault:"10ms"`

	// WaitBound is the default bound for Await when the caller passes
	// zero.
	WaitBound time.Duration `env:"TCK_WAIT_BOUND" envDefault:"3s"`
}

// Default returns the built-in configuration used when the environment
// provides no overrides.
func Default() Config {
	return Config{
		Slack:        250 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		WaitBound:    3 * time.Second,
	}
}

// FromEnv loads the configuration from the environment, falling back to
// the documented defaults for unset variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse harness env: %w", err)
	}
	return cfg, nil
}

// Harness orchestrates bounded waits, real-time sleeps and concurrent
// actors on behalf of clause code. It holds no mutable state of its own;
// any state shared between actors within a clause belongs to the provider
// under test.
type Harness struct {
	cfg Config
}

// New creates a harness with the given configuration. Zero fields are
// replaced with the defaults.
func New(cfg Config) *Harness {
	def := Default()
	if cfg.Slack <= 0 {
		cfg.Slack = def.Slack
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.WaitBound <= 0 {
		cfg.WaitBound = def.WaitBound
	}
	return &Harness{cfg: cfg}
}

// Slack returns the configured timing slack.
func (h *Harness) Slack() time.Duration { return h.cfg.Slack }

// PollInterval returns the configured probe interval.
func (h *Harness) PollInterval() time.Duration { return h.cfg.PollInterval }

// Bound returns the default wait bound.
func (h *Harness) Bound() time.Duration { return h.cfg.WaitBound }
