package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oxplot/go-tps6699x"
)

// Config describes how the controller is wired to the host.
type Config struct {
	// Bus is the I2C bus name as understood by i2creg, eg "1". Empty selects
	// the first bus found.
	Bus string `yaml:"bus"`

	// Addresses holds the I2C address of each port. Its length is the number
	// of ports.
	Addresses []uint8 `yaml:"addresses"`

	// InterruptPin is the gpioreg name of the pin wired to the IRQ output.
	InterruptPin string `yaml:"interrupt_pin"`

	CommandTimeout time.Duration `yaml:"command_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	LogLevel       string        `yaml:"log_level"`
}

var (
	errNoAddresses  = errors.New("tpsctl: between 1 and 2 port addresses are required")
	errNoPin        = errors.New("tpsctl: interrupt_pin is required")
	errBadTimeout   = errors.New("tpsctl: command_timeout must be positive")
	errUnknownLevel = errors.New("tpsctl: unknown log level")
)

func defaultConfig() Config {
	return Config{
		Addresses:      []uint8{0x20},
		CommandTimeout: time.Second,
		PollInterval:   100 * time.Millisecond,
		LogLevel:       "info",
	}
}

// loadConfig returns the default config overlaid with the YAML file at
// path, if path is not empty.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("tpsctl: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns an error if the config can't describe a controller.
func (c Config) Validate() error {
	if len(c.Addresses) < 1 || len(c.Addresses) > tps6699x.MaxSupportedPorts {
		return errNoAddresses
	}
	if c.InterruptPin == "" {
		return errNoPin
	}
	if c.CommandTimeout <= 0 {
		return errBadTimeout
	}
	_, err := c.level()
	return err
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("%w: %q", errUnknownLevel, c.LogLevel)
	}
	return l, nil
}

func (c Config) portAddresses() [tps6699x.MaxSupportedPorts]uint8 {
	var a [tps6699x.MaxSupportedPorts]uint8
	copy(a[:], c.Addresses)
	return a
}
