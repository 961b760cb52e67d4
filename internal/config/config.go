package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
)

const (
	DriverSim    = "sim"
	DriverOpenCL = "opencl"
)

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
		Encoding  string `yaml:"encoding"`
	} `yaml:"logger"`
	Runtime struct {
		Driver        string `yaml:"driver"`
		PlatformIndex int    `yaml:"platformIndex"`
		// MaxVersion caps the negotiated version; empty means no cap.
		MaxVersion    string `yaml:"maxVersion"`
		ReleaseOnExit bool   `yaml:"releaseOnExit"`
	} `yaml:"runtime"`
	Sim struct {
		Version string `yaml:"version"`
		Devices int    `yaml:"devices"`
	} `yaml:"sim"`
	Metrics struct {
		ListenAddress string `yaml:"listenAddress"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.Logger.Verbosity = "info"
	c.Logger.Encoding = "json"
	c.Runtime.Driver = DriverSim
	c.Runtime.ReleaseOnExit = true
	c.Sim.Version = "OpenCL 2.2 clfacade simulator"
	c.Sim.Devices = 2
	return &c
}

// LoadConfig reads path over the defaults, so a file only needs the keys it
// changes.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks values that yaml decoding alone cannot.
func (c *Config) Validate() error {
	switch c.Runtime.Driver {
	case DriverSim, DriverOpenCL:
	default:
		return fmt.Errorf("unknown runtime driver %q (want %s or %s)", c.Runtime.Driver, DriverSim, DriverOpenCL)
	}
	if c.Runtime.PlatformIndex < 0 {
		return fmt.Errorf("platformIndex must not be negative, got %d", c.Runtime.PlatformIndex)
	}
	if _, err := c.MaxVersion(); err != nil {
		return err
	}
	switch c.Logger.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown logger encoding %q", c.Logger.Encoding)
	}
	if c.Runtime.Driver == DriverSim && c.Sim.Devices < 1 {
		return fmt.Errorf("sim.devices must be at least 1, got %d", c.Sim.Devices)
	}
	return nil
}

// MaxVersion parses runtime.maxVersion. It returns VersionNone when unset.
func (c *Config) MaxVersion() (capability.Version, error) {
	if c.Runtime.MaxVersion == "" {
		return capability.VersionNone, nil
	}
	v, err := capability.ParseTag(c.Runtime.MaxVersion)
	if err != nil {
		return capability.VersionNone, fmt.Errorf("runtime.maxVersion: %w", err)
	}
	return v, nil
}

// WriteTemplate writes data to path unless a file already exists there.
func WriteTemplate(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
