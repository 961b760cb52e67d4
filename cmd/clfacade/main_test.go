package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fxnlabs/clfacade/fixtures"
	"github.com/fxnlabs/clfacade/internal/config"
	"github.com/fxnlabs/clfacade/pkg/cl"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
	"github.com/fxnlabs/clfacade/pkg/cl/driver/opencl"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	app := newApp(&env{})
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"clfacade", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNegotiateCommand(t *testing.T) {
	out, err := run(t, "negotiate", "OpenCL 1.3 Future Vendor")
	require.NoError(t, err)
	assert.Equal(t, "1.2\n", out)

	_, err = run(t, "negotiate", "Vulkan 1.3")
	assert.Error(t, err)
	_, err = run(t, "negotiate")
	assert.Error(t, err)
}

func TestDiffCommand(t *testing.T) {
	out, err := run(t, "diff", "1.2", "2.0")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2 -> 2.0:")
	assert.Contains(t, out, "+ createPipe")
	assert.Contains(t, out, "+ svmAlloc")
	assert.NotContains(t, out, "- ")

	out, err = run(t, "diff", "1.0", "1.1")
	require.NoError(t, err)
	assert.Contains(t, out, "- setCommandQueueProperty")

	_, err = run(t, "diff", "1.2")
	assert.Error(t, err)
}

func TestCapsCommand(t *testing.T) {
	out, err := run(t, "caps", "--version", "1.0")
	require.NoError(t, err)
	assert.Contains(t, out, "setCommandQueueProperty")
	assert.Contains(t, out, "removed in 1.1")
	assert.NotContains(t, out, "createPipe")

	out, err = run(t, "caps", "--version", "1.2", "--deprecated")
	require.NoError(t, err)
	assert.Contains(t, out, "createImage2D")
	assert.Contains(t, out, "enqueueMarker")
	assert.Contains(t, out, "deprecated in 1.2")
	assert.NotContains(t, out, "enqueueMarkerWithWaitList")

	_, err = run(t, "caps", "--version", "0.9")
	assert.Error(t, err)
}

func TestCapsDefaultsToNegotiatedVersion(t *testing.T) {
	path := writeConfig(t, "sim:\n  version: \"OpenCL 1.1 Test\"\n  devices: 1\n")
	color.NoColor = true
	var out bytes.Buffer
	app := newApp(&env{})
	app.Writer = &out
	require.NoError(t, app.Run([]string{"clfacade", "--config", path, "caps"}))
	assert.Contains(t, out.String(), "createUserEvent")
	assert.NotContains(t, out.String(), "createSubDevices")
}

func TestInfoCommand(t *testing.T) {
	path := writeConfig(t, "sim:\n  version: \"OpenCL 1.1 Test\"\n  devices: 3\n")
	color.NoColor = true
	var out bytes.Buffer
	app := newApp(&env{})
	app.Writer = &out
	require.NoError(t, app.Run([]string{"clfacade", "--config", path, "info"}))
	assert.Contains(t, out.String(), "Reported:   OpenCL 1.1 Test")
	assert.Contains(t, out.String(), "Negotiated: 1.1")
}

func TestInfoHonoursMaxVersion(t *testing.T) {
	path := writeConfig(t, "runtime:\n  maxVersion: \"1.0\"\n")
	var out bytes.Buffer
	app := newApp(&env{})
	app.Writer = &out
	require.NoError(t, app.Run([]string{"clfacade", "--config", path, "info"}))
	assert.Contains(t, out.String(), "Negotiated: 1.0")
}

func TestDriverFlagIsValidated(t *testing.T) {
	_, err := run(t, "--driver", "cuda", "negotiate", "OpenCL 1.0 x")
	assert.ErrorContains(t, err, "unknown runtime driver")
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	app := newApp(&env{})
	app.Writer = io.Discard
	require.NoError(t, app.Run([]string{"clfacade", "--config", path, "init"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fixtures.ConfigTemplate, data)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	assert.Error(t, newApp(&env{}).Run([]string{"clfacade", "--config", path, "init"}))
}

func TestOpenDriverFallsBackToSimulator(t *testing.T) {
	if opencl.Available() {
		t.Skip("built with native OpenCL")
	}
	cfg := config.Default()
	cfg.Runtime.Driver = config.DriverOpenCL
	drv, closeDriver, err := openDriver(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, drv)
	assert.NoError(t, closeDriver())
}

func TestSessionServesMetricsAndReleases(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.ListenAddress = "127.0.0.1:0"
	s, err := openSession(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, s.Serving())

	devices, err := s.rt.Devices(driver.DeviceTypeAll)
	require.NoError(t, err)
	_, err = s.rt.CreateContext(devices[0])
	require.NoError(t, err)
	require.NotEmpty(t, s.rt.Live())

	resp, err := http.Get("http://" + s.addr + metricsPath)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "clfacade_negotiated_version")

	require.NoError(t, s.Close())
	assert.Empty(t, s.rt.Live())
	_, err = s.rt.Devices(driver.DeviceTypeAll)
	assert.ErrorIs(t, err, cl.ErrClosed)
}
