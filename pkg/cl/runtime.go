// Package cl is a version-gated facade over a native OpenCL runtime.
//
// A Runtime is opened against a driver, negotiates the OpenCL version of the
// selected platform once, and from then on refuses operations the negotiated
// version does not define before they reach the driver. Every operation has a
// typed method; Invoke offers the same surface by operation name for callers
// that work from the capability registry.
package cl

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fxnlabs/clfacade/internal/lifecycle"
	"github.com/fxnlabs/clfacade/internal/metrics"
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

type options struct {
	log           *zap.Logger
	maxVersion    capability.Version
	platformIndex int
	registry      *capability.Registry
}

type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMaxVersion caps the negotiated version. It never raises it.
func WithMaxVersion(v capability.Version) Option {
	return func(o *options) { o.maxVersion = v }
}

// WithPlatformIndex selects which of the reported platforms to negotiate
// against. The default is the first.
func WithPlatformIndex(i int) Option {
	return func(o *options) { o.platformIndex = i }
}

// WithRegistry replaces the standard capability registry.
func WithRegistry(reg *capability.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// Runtime is safe for concurrent use. It takes no lock around native calls;
// serializing access to native objects is left to the driver, as in C.
type Runtime struct {
	drv      driver.Driver
	log      *zap.Logger
	registry *capability.Registry
	tracker  *lifecycle.Tracker

	platform Platform
	reported string
	version  capability.Version

	closed    atomic.Bool
	closeOnce sync.Once
}

// Open selects a platform of drv and negotiates the version to use with it.
// The result is fixed for the life of the Runtime.
func Open(drv driver.Driver, opts ...Option) (*Runtime, error) {
	o := options{log: zap.NewNop(), registry: capability.Standard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if drv == nil {
		return nil, &LocalError{Kind: KindInvalidArgument, Param: "driver", Detail: "nil driver"}
	}
	r := &Runtime{
		drv:      drv,
		log:      o.log.Named("cl"),
		registry: o.registry,
	}
	r.tracker = lifecycle.New(r.log)

	var ids []driver.Ptr
	err := r.native(capability.OpGetPlatformIDs, func() (st driver.Status) {
		ids, st = drv.PlatformIDs()
		return st
	})
	if err != nil {
		return nil, err
	}
	if o.platformIndex < 0 || o.platformIndex >= len(ids) {
		return nil, &LocalError{
			Op:     capability.OpGetPlatformIDs,
			Kind:   KindNegotiation,
			Detail: fmt.Sprintf("platform index %d out of range, runtime reports %d platforms", o.platformIndex, len(ids)),
		}
	}
	r.platform = Platform{ptr: ids[o.platformIndex]}

	var raw []byte
	err = r.native(capability.OpGetPlatformInfo, func() (st driver.Status) {
		raw, st = drv.Info(driver.KindPlatform, r.platform.ptr, driver.PlatformVersion)
		return st
	})
	if err != nil {
		return nil, err
	}
	r.reported = driver.DecodeString(raw)

	negotiated, err := capability.Negotiate(r.reported)
	if err != nil {
		return nil, &LocalError{Op: capability.OpGetPlatformInfo, Kind: KindNegotiation, Detail: r.reported, Cause: err}
	}
	r.version = capability.Clamp(negotiated, o.maxVersion)
	metrics.NegotiatedVersion.Set(float64(r.version.Major()*10 + r.version.Minor()))

	r.log.Info("negotiated OpenCL version",
		zap.String("reported", r.reported),
		zap.Stringer("negotiated", negotiated),
		zap.Stringer("version", r.version),
	)
	return r, nil
}

// Version returns the negotiated version.
func (r *Runtime) Version() capability.Version { return r.version }

// ReportedVersion returns the platform's CL_PLATFORM_VERSION string.
func (r *Runtime) ReportedVersion() string { return r.reported }

// Flags returns the per-generation feature flags of the negotiated version.
func (r *Runtime) Flags() capability.Capabilities { return capability.Flags(r.version) }

// Platform returns the platform the runtime negotiated against.
func (r *Runtime) Platform() Platform { return r.platform }

// Registry returns the capability registry gating this runtime.
func (r *Runtime) Registry() *capability.Registry { return r.registry }

// Supports reports whether op may be called at the negotiated version.
func (r *Runtime) Supports(op capability.Op) bool {
	return r.registry.Supports(r.version, op)
}

// Devices lists the devices of the selected platform.
func (r *Runtime) Devices(typ driver.DeviceType) ([]Device, error) {
	return r.GetDeviceIDs(r.platform, typ)
}

// DeviceVersion negotiates a device's own CL_DEVICE_VERSION. Devices may
// report a lower version than their platform.
func (r *Runtime) DeviceVersion(d Device) (capability.Version, error) {
	raw, err := r.GetDeviceInfo(d, driver.DeviceVersion)
	if err != nil {
		return capability.VersionNone, err
	}
	v, err := capability.Negotiate(driver.DecodeString(raw))
	if err != nil {
		return capability.VersionNone, &LocalError{Op: capability.OpGetDeviceInfo, Kind: KindNegotiation, Detail: driver.DecodeString(raw), Cause: err}
	}
	return v, nil
}

// Live returns the objects created through the runtime and not yet
// released, in the order Close would release them.
func (r *Runtime) Live() []lifecycle.Entry {
	return r.tracker.Live()
}

// Close releases every object still held through the runtime, dependents
// first, and refuses further calls. Only the first call does any work or
// reports release failures.
func (r *Runtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		n := r.tracker.Len()
		err = r.tracker.Sweep(r.releaseNative)
		r.log.Info("runtime closed", zap.Int("released", n), zap.Error(err))
	})
	return err
}

func (r *Runtime) releaseNative(kind driver.Kind, ptr driver.Ptr) error {
	op, ok := capability.ReleaseOp(kind)
	if !ok {
		return nil
	}
	return r.native(op, func() driver.Status { return r.drv.Release(kind, ptr) })
}

// enter gates op on the negotiated version and rejects zero handles. Handles
// are given in parameter order and are matched to parameter names through
// the active signature.
func (r *Runtime) enter(op capability.Op, handles ...Handle) error {
	if r.closed.Load() {
		return r.reject(&LocalError{Op: op, Kind: KindClosed, Detail: "runtime is closed"})
	}
	sig, ok := r.registry.Lookup(r.version, op)
	if !ok {
		return r.reject(r.unsupported(op))
	}
	next := 0
	for _, h := range handles {
		name := h.Kind().String()
		for next < len(sig.Params) {
			p := sig.Params[next]
			next++
			if p.Type == capability.TypeHandle && p.Kind == h.Kind() {
				name = p.Name
				break
			}
		}
		if h.Ptr() == 0 {
			return r.reject(invalidArg(op, name, "nil %s handle", h.Kind()))
		}
	}
	return nil
}

func (r *Runtime) unsupported(op capability.Op) *LocalError {
	d, ok := r.registry.Definition(op)
	switch {
	case !ok:
		return &LocalError{Op: op, Kind: KindUnsupported, Detail: "unknown operation"}
	case d.Removed() != capability.VersionNone && r.version >= d.Removed():
		return &LocalError{Op: op, Kind: KindUnsupported, Detail: fmt.Sprintf("removed in OpenCL %s, runtime negotiated %s", d.Removed(), r.version)}
	default:
		return &LocalError{Op: op, Kind: KindUnsupported, Detail: fmt.Sprintf("requires OpenCL %s, runtime negotiated %s", d.Since(), r.version)}
	}
}

// nonNil rejects zero handles inside a list argument.
func nonNil[H Handle](r *Runtime, op capability.Op, param string, hs []H) error {
	for i, h := range hs {
		if h.Ptr() == 0 {
			return r.reject(invalidArg(op, param, "element %d is a nil %s handle", i, h.Kind()))
		}
	}
	return nil
}

func (r *Runtime) reject(err *LocalError) error {
	metrics.LocalRejections.WithLabelValues(string(err.Op), string(err.Kind)).Inc()
	r.log.Debug("rejected locally",
		zap.String("op", string(err.Op)),
		zap.String("kind", string(err.Kind)),
		zap.String("param", err.Param),
		zap.String("detail", err.Detail),
	)
	return err
}

// native runs one driver call and maps its status into the error model.
func (r *Runtime) native(op capability.Op, call func() driver.Status) error {
	start := time.Now()
	st := call()
	metrics.NativeCallDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	metrics.NativeCalls.WithLabelValues(string(op), st.String()).Inc()
	if st.OK() {
		return nil
	}
	r.log.Debug("native call failed", zap.String("op", string(op)), zap.Stringer("status", st))
	return &Error{Op: op, Status: st}
}

// created records a new object so Close can release it. An object created
// while Close was sweeping is released here instead.
func (r *Runtime) created(kind driver.Kind, ptrs ...driver.Ptr) {
	for _, p := range ptrs {
		if r.tracker.Created(kind, p) {
			continue
		}
		err := r.releaseNative(kind, p)
		r.log.Warn("released object created during close",
			zap.Stringer("kind", kind),
			zap.Uint64("ptr", uint64(p)),
			zap.Error(err))
	}
}

func (r *Runtime) retain(op capability.Op, h Handle) error {
	if err := r.enter(op, h); err != nil {
		return err
	}
	if err := r.native(op, func() driver.Status { return r.drv.Retain(h.Kind(), h.Ptr()) }); err != nil {
		return err
	}
	r.tracker.Retained(h.Kind(), h.Ptr())
	return nil
}

func (r *Runtime) release(op capability.Op, h Handle) error {
	if err := r.enter(op, h); err != nil {
		return err
	}
	if err := r.native(op, func() driver.Status { return r.drv.Release(h.Kind(), h.Ptr()) }); err != nil {
		return err
	}
	r.tracker.Released(h.Kind(), h.Ptr())
	return nil
}

func (r *Runtime) info(op capability.Op, h Handle, call func() ([]byte, driver.Status)) ([]byte, error) {
	if err := r.enter(op, h); err != nil {
		return nil, err
	}
	var out []byte
	err := r.native(op, func() (st driver.Status) {
		out, st = call()
		return st
	})
	return out, err
}
