package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openomni/tck/harness"
)

// RunConfig is the optional YAML configuration for the run command. It
// layers over the environment-derived harness config; zero fields keep
// the environment's values.
type RunConfig struct {
	// Slack is the timing slack for TTL and delay assertions.
	Slack time.Duration `yaml:"slack"`

	// PollInterval is the delay between bounded-wait probes.
	PollInterval time.Duration `yaml:"poll_interval"`

	// WaitBound is the default bound for asynchronous waits.
	WaitBound time.Duration `yaml:"wait_bound"`

	// Parallelism is how many clauses run concurrently per suite.
	Parallelism int `yaml:"parallelism"`

	// Include restricts a bare `tck run` to the named certifications.
	Include []string `yaml:"include"`
}

// LoadRunConfig reads and strictly decodes a YAML run configuration.
// Unknown fields are an error; a typo silently ignored would loosen
// timing bounds without anyone noticing.
func LoadRunConfig(path string) (*RunConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg RunConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// harnessConfig merges the file config over the environment config.
func (c *RunConfig) harnessConfig(base harness.Config) harness.Config {
	if c == nil {
		return base
	}
	if c.Slack > 0 {
		base.Slack = c.Slack
	}
	if c.PollInterval > 0 {
		base.PollInterval = c.PollInterval
	}
	if c.WaitBound > 0 {
		base.WaitBound = c.WaitBound
	}
	return base
}
