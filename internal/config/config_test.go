package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/clfacade/fixtures"
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, config)

		assert.Equal(t, "debug", config.Logger.Verbosity)
		assert.Equal(t, "json", config.Logger.Encoding) // from defaults
		assert.Equal(t, DriverOpenCL, config.Runtime.Driver)
		assert.Equal(t, 1, config.Runtime.PlatformIndex)
		assert.False(t, config.Runtime.ReleaseOnExit)
		assert.Equal(t, "OpenCL 1.1 test", config.Sim.Version)
		assert.Equal(t, 3, config.Sim.Devices)
		assert.Equal(t, ":9464", config.Metrics.ListenAddress)

		v, err := config.MaxVersion()
		require.NoError(t, err)
		assert.Equal(t, capability.V12, v)
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := LoadConfig("non-existent-file.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir, err := os.Getwd()
		require.NoError(t, err)

		configPath := filepath.Join(dir, "..", "..", "fixtures", "tests", "invalid_config", "config.yaml")
		_, err = LoadConfig(configPath)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := LoadConfig("../../fixtures/tests/config/bad_driver.yaml")
		assert.ErrorContains(t, err, "unknown runtime driver")
	})

	t.Run("max version below minimum", func(t *testing.T) {
		_, err := LoadConfig("../../fixtures/tests/config/bad_version.yaml")
		assert.ErrorIs(t, err, capability.ErrVersionTooOld)
	})
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, DriverSim, c.Runtime.Driver)
	assert.True(t, c.Runtime.ReleaseOnExit)

	v, err := c.MaxVersion()
	require.NoError(t, err)
	assert.Equal(t, capability.VersionNone, v)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Sim.Devices = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Runtime.PlatformIndex = -1
	assert.Error(t, c.Validate())

	c = Default()
	c.Logger.Encoding = "xml"
	assert.Error(t, c.Validate())
}

func TestTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clfacade", "config.yaml")
	require.NoError(t, WriteTemplate(path, fixtures.ConfigTemplate))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, *Default(), *config)

	assert.Error(t, WriteTemplate(path, fixtures.ConfigTemplate))
}
