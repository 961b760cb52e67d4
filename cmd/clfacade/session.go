package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fxnlabs/clfacade/internal/config"
	"github.com/fxnlabs/clfacade/internal/metrics"
	"github.com/fxnlabs/clfacade/pkg/cl"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
	"github.com/fxnlabs/clfacade/pkg/cl/driver/opencl"
	"github.com/fxnlabs/clfacade/pkg/cl/driver/sim"
)

const metricsPath = "/metrics"

// session owns an open runtime and whatever serves it: the driver, the
// metrics listener and the signal handler.
type session struct {
	rt  *cl.Runtime
	log *zap.Logger

	closeDriver func() error
	server      *http.Server
	addr        string
	release     bool

	ctx  context.Context
	stop context.CancelFunc
}

// openDriver builds the driver named by cfg. A binary without native
// support falls back to the simulator.
func openDriver(cfg *config.Config, log *zap.Logger) (driver.Driver, func() error, error) {
	if cfg.Runtime.Driver == config.DriverOpenCL {
		drv, err := opencl.New()
		if err == nil {
			return drv, func() error { return nil }, nil
		}
		if !errors.Is(err, opencl.ErrNotBuilt) && !errors.Is(err, opencl.ErrNoPlatform) {
			return nil, nil, err
		}
		log.Warn("native OpenCL unavailable, using the simulator", zap.Error(err))
	}
	drv := sim.New(sim.WithVersion(cfg.Sim.Version), sim.WithDevices(cfg.Sim.Devices))
	return drv, drv.Close, nil
}

func openSession(parent context.Context, cfg *config.Config, log *zap.Logger) (*session, error) {
	drv, closeDriver, err := openDriver(cfg, log)
	if err != nil {
		return nil, err
	}
	maxVersion, err := cfg.MaxVersion()
	if err != nil {
		return nil, multierr.Append(err, closeDriver())
	}
	rt, err := cl.Open(drv,
		cl.WithLogger(log),
		cl.WithPlatformIndex(cfg.Runtime.PlatformIndex),
		cl.WithMaxVersion(maxVersion),
	)
	if err != nil {
		return nil, multierr.Append(err, closeDriver())
	}

	s := &session{
		rt:          rt,
		log:         log,
		closeDriver: closeDriver,
		release:     cfg.Runtime.ReleaseOnExit,
	}
	s.ctx, s.stop = signal.NotifyContext(parent, shutdownSignals...)

	if addr := cfg.Metrics.ListenAddress; addr != "" {
		if err := s.serveMetrics(addr); err != nil {
			return nil, multierr.Append(err, s.Close())
		}
	}
	return s, nil
}

func (s *session) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.server = &http.Server{Handler: metrics.Handler(metricsPath), ReadHeaderTimeout: 5 * time.Second}
	s.log.Info("serving metrics", zap.String("address", s.addr), zap.String("path", metricsPath))
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Serving reports whether the session keeps a metrics listener open.
func (s *session) Serving() bool { return s.server != nil }

// Wait blocks until the process is asked to stop.
func (s *session) Wait() {
	<-s.ctx.Done()
	s.log.Info("shutdown signal received")
}

// Close releases the runtime's objects, then stops the listener and the
// driver. Release is skipped when runtime.releaseOnExit is off.
func (s *session) Close() error {
	defer s.stop()
	var err error
	if s.release {
		err = multierr.Append(err, s.rt.Close())
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, s.server.Shutdown(ctx))
	}
	return multierr.Append(err, s.closeDriver())
}
