package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/san-kum/grabsim/internal/body"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/logging"
	"github.com/san-kum/grabsim/internal/metrics"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const DefaultScenario = "throw"

var ErrInvalidConfig = errors.New("config: invalid config")

// Config is everything a run needs, as read from a YAML file.
type Config struct {
	Scenario string           `yaml:"scenario"`
	LogLevel string           `yaml:"log_level"`
	Metrics  []string         `yaml:"metrics"`
	Sim      sim.Config       `yaml:"sim"`
	Grab     grab.Params      `yaml:"grab"`
	Body     body.Config      `yaml:"body"`
	Options  scenario.Options `yaml:"options"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: DefaultScenario,
		LogLevel: "info",
		Metrics:  metrics.Names(),
		Sim:      sim.DefaultConfig(),
		Grab:     grab.DefaultParams(),
		Body:     body.DefaultConfig(),
		Options:  scenario.DefaultOptions(),
	}
}

// Load reads path over the defaults, so a file only needs the fields it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, ok := scenario.Describe(c.Scenario); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, scenario.ErrUnknownScenario, c.Scenario)
	}
	if _, _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, name := range c.Metrics {
		if _, err := metrics.ByName(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	checks := []func() error{c.Sim.Validate, c.Grab.Validate, c.Body.Validate, c.Options.Validate}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Fingerprint identifies the settings that shape a run's outcome. Two
// configs with the same fingerprint produce the same frames.
func (c *Config) Fingerprint() (string, error) {
	shaping := *c
	shaping.LogLevel = ""
	shaping.Metrics = nil
	data, err := yaml.Marshal(&shaping)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}
