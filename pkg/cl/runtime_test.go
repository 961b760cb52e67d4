package cl

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fxnlabs/clfacade/internal/metrics"
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
	"github.com/fxnlabs/clfacade/pkg/cl/driver/drivertest"
	"github.com/fxnlabs/clfacade/pkg/cl/driver/sim"
)

const vecAdd = `
__kernel void vec_add(__global const float *a, __global const float *b, __global float *out, const uint n)
{
	size_t i = get_global_id(0);
	if (i < n) out[i] = a[i] + b[i];
}

kernel void scale(global float *x, float factor, local float *scratch) {}
`

type fixture struct {
	rt      *Runtime
	drv     *sim.Runtime
	device  Device
	context Context
	queue   CommandQueue
}

func openSim(t *testing.T, version string, opts ...Option) (*Runtime, *sim.Runtime) {
	t.Helper()
	drv := sim.New(sim.WithVersion(version), sim.WithDevices(2))
	t.Cleanup(func() { drv.Close() })

	rt, err := Open(drv, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt, drv
}

func newFixture(t *testing.T, version string, opts ...Option) fixture {
	t.Helper()
	rt, drv := openSim(t, version, opts...)

	devices, err := rt.Devices(driver.DeviceTypeAll)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
	ctx, err := rt.CreateContext(devices[0])
	require.NoError(t, err)
	q, err := rt.NewQueue(ctx, devices[0], 0)
	require.NoError(t, err)
	return fixture{rt: rt, drv: drv, device: devices[0], context: ctx, queue: q}
}

func (f fixture) buffer(t *testing.T, size int) Mem {
	t.Helper()
	buf, err := f.rt.CreateBuffer(f.context, driver.MemReadWrite, size, nil)
	require.NoError(t, err)
	return buf
}

func (f fixture) program(t *testing.T, source string) Program {
	t.Helper()
	p, err := f.rt.CreateProgramWithSource(f.context, source)
	require.NoError(t, err)
	return p
}

func openMock(t *testing.T, version string) (*Runtime, *drivertest.Driver) {
	t.Helper()
	m := &drivertest.Driver{}
	m.On("PlatformIDs").Return([]driver.Ptr{0x10}, driver.Success)
	m.On("Info", driver.KindPlatform, driver.Ptr(0x10), driver.PlatformVersion).
		Return(driver.EncodeString(version), driver.Success)

	rt, err := Open(m, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return rt, m
}

func TestOpenNegotiatesPlatformVersion(t *testing.T) {
	tests := []struct {
		reported string
		want     capability.Version
	}{
		{"OpenCL 1.0 Legacy", capability.V10},
		{"OpenCL 1.1 CUDA 4.2", capability.V11},
		{"OpenCL 1.2 Vendor Info", capability.V12},
		{"OpenCL 2.0 AMD-APP (1800.8)", capability.V20},
		{"OpenCL 2.1 ", capability.V21},
		{"OpenCL 3.0 CUDA 12.2.148", capability.V22},
	}
	for _, tt := range tests {
		t.Run(tt.reported, func(t *testing.T) {
			rt, _ := openSim(t, tt.reported)
			assert.Equal(t, tt.want, rt.Version())
			assert.Equal(t, tt.reported, rt.ReportedVersion())
			assert.Equal(t, float64(tt.want.Major()*10+tt.want.Minor()), testutil.ToFloat64(metrics.NegotiatedVersion))
		})
	}
}

func TestNegotiatedVersionGaugeFollowsLatestOpen(t *testing.T) {
	first, _ := openSim(t, "OpenCL 2.2 Vendor")
	require.Equal(t, capability.V22, first.Version())
	assert.Equal(t, float64(22), testutil.ToFloat64(metrics.NegotiatedVersion))

	second, _ := openSim(t, "OpenCL 1.1 Vendor")
	require.Equal(t, capability.V11, second.Version())
	assert.Equal(t, float64(11), testutil.ToFloat64(metrics.NegotiatedVersion))

	require.NoError(t, second.Close())
	assert.Equal(t, float64(11), testutil.ToFloat64(metrics.NegotiatedVersion), "close leaves the last negotiation in place")
	assert.Equal(t, capability.V22, first.Version())
}

func TestNegotiationFloorExcludesLaterOperations(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor Info")
	require.Equal(t, capability.V12, f.rt.Version())
	assert.Equal(t, capability.Capabilities{V10: true, V11: true, V12: true}, f.rt.Flags())

	added, _ := capability.Standard().Diff(capability.V12, capability.V20)
	require.NotZero(t, added.Cardinality())
	for _, op := range capability.Sorted(added) {
		assert.False(t, f.rt.Supports(op), "%s should be gated at 1.2", op)
	}

	before := f.drv.CallCount()
	_, err := f.rt.CreatePipe(f.context, driver.MemReadWrite, 4, 16)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.True(t, IsLocal(err))
	assert.Contains(t, err.Error(), "requires OpenCL 2.0")

	_, err = f.rt.Invoke(capability.OpSVMAlloc, f.context, driver.MemReadWrite, 64)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, before, f.drv.CallCount(), "gated calls must not reach the driver")
}

func TestRemovedOperationIsUnsupported(t *testing.T) {
	f := newFixture(t, "OpenCL 1.1 Vendor")

	_, err := f.rt.SetCommandQueueProperty(f.queue, driver.QueueProfilingEnable, true)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "removed in OpenCL 1.1")

	f10 := newFixture(t, "OpenCL 1.0 Vendor")
	old, err := f10.rt.SetCommandQueueProperty(f10.queue, driver.QueueProfilingEnable, true)
	require.NoError(t, err)
	assert.Zero(t, old)
}

func TestDeprecatedOperationStillCallable(t *testing.T) {
	f := newFixture(t, "OpenCL 2.2 Vendor")
	q, err := f.rt.CreateCommandQueue(f.context, f.device, 0)
	require.NoError(t, err)
	assert.False(t, q.IsNil())
}

func TestMaxVersionOnlyLowers(t *testing.T) {
	rt, drv := openSim(t, "OpenCL 2.2 Vendor", WithMaxVersion(capability.V11))
	assert.Equal(t, capability.V11, rt.Version())
	assert.False(t, rt.Supports(capability.OpCreateSubDevices))

	devices, err := rt.Devices(driver.DeviceTypeAll)
	require.NoError(t, err)
	before := drv.CallCount()
	_, err = rt.PartitionEqually(devices[0], 2)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, before, drv.CallCount())

	rt, _ = openSim(t, "OpenCL 1.2 Vendor", WithMaxVersion(capability.V20))
	assert.Equal(t, capability.V12, rt.Version())
}

func TestOpenFailures(t *testing.T) {
	t.Run("unparseable version", func(t *testing.T) {
		drv := sim.New(sim.WithVersion("Mesa Clover"))
		defer drv.Close()
		_, err := Open(drv)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNegotiation)
		assert.ErrorIs(t, err, capability.ErrUnparseableVersion)
	})

	t.Run("below minimum", func(t *testing.T) {
		drv := sim.New(sim.WithVersion("OpenCL 0.9 Prototype"))
		defer drv.Close()
		_, err := Open(drv)
		assert.ErrorIs(t, err, capability.ErrVersionTooOld)
	})

	t.Run("platform index", func(t *testing.T) {
		drv := sim.New()
		defer drv.Close()
		_, err := Open(drv, WithPlatformIndex(3))
		assert.Equal(t, KindNegotiation, KindOf(err))
	})

	t.Run("native failure", func(t *testing.T) {
		m := &drivertest.Driver{}
		m.On("PlatformIDs").Return(nil, driver.Status(-1001))
		_, err := Open(m)
		st, ok := StatusOf(err)
		require.True(t, ok)
		assert.Equal(t, driver.Status(-1001), st)
		assert.False(t, IsLocal(err))
		m.AssertExpectations(t)
	})

	t.Run("nil driver", func(t *testing.T) {
		_, err := Open(nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestDeviceVersion(t *testing.T) {
	drv := sim.New(sim.WithVersion("OpenCL 2.1 Vendor"), sim.WithDeviceVersion("OpenCL 1.2 Older Device"))
	defer drv.Close()
	rt, err := Open(drv)
	require.NoError(t, err)
	defer rt.Close()

	devices, err := rt.Devices(driver.DeviceTypeAll)
	require.NoError(t, err)
	v, err := rt.DeviceVersion(devices[0])
	require.NoError(t, err)
	assert.Equal(t, capability.V12, v)
	assert.Equal(t, capability.V21, rt.Version())
}

func TestReferenceCountSymmetry(t *testing.T) {
	f := newFixture(t, "OpenCL 1.1 Vendor")

	ev, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)

	n, err := f.rt.ReferenceCount(ev)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.rt.RetainEvent(ev))
	n, _ = f.rt.ReferenceCount(ev)
	assert.EqualValues(t, 2, n)
	refs, _ := f.rt.tracker.Refs(ev.Ptr())
	assert.Equal(t, 2, refs)

	require.NoError(t, f.rt.ReleaseEvent(ev))
	n, _ = f.rt.ReferenceCount(ev)
	assert.EqualValues(t, 1, n)
	refs, _ = f.rt.tracker.Refs(ev.Ptr())
	assert.Equal(t, 1, refs)

	_, err = f.rt.ReferenceCount(f.rt.Platform())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNilHandlesRejectedLocally(t *testing.T) {
	f := newFixture(t, "OpenCL 2.2 Vendor")
	src := f.buffer(t, 4)
	before := f.drv.CallCount()

	_, err := f.rt.CreateKernel(Program{}, "vec_add")
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "program"})

	_, err = f.rt.EnqueueCopyBuffer(f.queue, src, Mem{}, 0, 0, 4)
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "dst"})

	_, err = f.rt.EnqueueMarkerWithWaitList(f.queue, Event{})
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "wait"})

	assert.Equal(t, before, f.drv.CallCount())
}

func TestCloseSweepsInDependencyOrder(t *testing.T) {
	rt, m := openMock(t, "OpenCL 1.2 Mock")
	m.On("CreateContext", mock.Anything, []driver.Ptr{0x20}).Return(driver.Ptr(0x30), driver.Success)
	m.On("CreateBuffer", driver.Ptr(0x30), driver.MemReadWrite, 64, []byte(nil)).Return(driver.Ptr(0x40), driver.Success)
	m.On("CreateProgramWithSource", driver.Ptr(0x30), []string{vecAdd}).Return(driver.Ptr(0x50), driver.Success)
	m.On("CreateUserEvent", driver.Ptr(0x30)).Return(driver.Ptr(0x60), driver.Success)
	m.On("Release", mock.Anything, mock.Anything).Return(driver.Success)

	ctx, err := rt.CreateContext(Device{ptr: 0x20})
	require.NoError(t, err)
	_, err = rt.CreateBuffer(ctx, driver.MemReadWrite, 64, nil)
	require.NoError(t, err)
	_, err = rt.CreateProgramWithSource(ctx, vecAdd)
	require.NoError(t, err)
	_, err = rt.CreateUserEvent(ctx)
	require.NoError(t, err)

	require.NoError(t, rt.Close())

	var kinds []driver.Kind
	for _, c := range m.Calls {
		if c.Method == "Release" {
			kinds = append(kinds, c.Arguments.Get(0).(driver.Kind))
		}
	}
	assert.Equal(t, []driver.Kind{driver.KindEvent, driver.KindMem, driver.KindProgram, driver.KindContext}, kinds)
	m.AssertNumberOfCalls(t, "Release", 4)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, "OpenCL 2.0 Vendor")
	f.buffer(t, 16)
	p := f.program(t, vecAdd)
	require.NoError(t, f.rt.BuildProgram(p, ""))
	_, err := f.rt.CreateKernel(p, "vec_add")
	require.NoError(t, err)
	_, err = f.rt.EnqueueMarkerWithWaitList(f.queue)
	require.NoError(t, err)

	require.NoError(t, f.rt.Close())
	for _, k := range driver.Kinds() {
		assert.Zero(t, f.drv.Live(k), "live %s after close", k)
	}
	assert.Empty(t, f.rt.Live())

	calls := f.drv.CallCount()
	require.NoError(t, f.rt.Close())
	assert.Equal(t, calls, f.drv.CallCount(), "second close must not call the driver")

	_, err = f.rt.CreateBuffer(f.context, driver.MemReadWrite, 4, nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.rt.Invoke(capability.OpFlush, f.queue)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, calls, f.drv.CallCount())
}

func TestCloseWithMockMakesNoCallsTheSecondTime(t *testing.T) {
	rt, m := openMock(t, "OpenCL 2.2 Mock")
	m.On("CreateUserEvent", driver.Ptr(0x30)).Return(driver.Ptr(0x60), driver.Success)
	m.On("Release", driver.KindEvent, driver.Ptr(0x60)).Return(driver.InvalidEvent)

	_, err := rt.CreateUserEvent(Context{ptr: 0x30})
	require.NoError(t, err)

	err = rt.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Op: capability.OpReleaseEvent, Status: driver.InvalidEvent}))

	calls := len(m.Calls)
	assert.NoError(t, rt.Close())
	assert.Len(t, m.Calls, calls)
}

func TestObjectCreatedDuringCloseIsReleased(t *testing.T) {
	rt, m := openMock(t, "OpenCL 1.2 Mock")
	m.On("Release", driver.KindMem, driver.Ptr(0x40)).Return(driver.Success)
	require.NoError(t, rt.Close())
	m.AssertNotCalled(t, "Release", driver.KindMem, driver.Ptr(0x40))

	// A create that passed the closed check before Close swept the table.
	rt.created(driver.KindMem, 0x40)

	m.AssertNumberOfCalls(t, "Release", 1)
	assert.Empty(t, rt.Live())
	assert.NoError(t, rt.Close())
	m.AssertNumberOfCalls(t, "Release", 1)
}

func TestBufferCreatedDuringCloseDoesNotLeak(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor")
	ptr, st := f.drv.CreateBuffer(f.context.ptr, driver.MemReadWrite, 64, nil)
	require.Equal(t, driver.Success, st)
	require.NoError(t, f.rt.Close())
	require.Equal(t, 1, f.drv.Live(driver.KindMem))

	f.rt.created(driver.KindMem, ptr)
	assert.Zero(t, f.drv.Live(driver.KindMem))
}

func TestLocalRejectionsAreCounted(t *testing.T) {
	f := newFixture(t, "OpenCL 1.0 Vendor")
	counter := metrics.LocalRejections.WithLabelValues(string(capability.OpCreateUserEvent), string(KindUnsupported))
	before := testutil.ToFloat64(counter)

	_, err := f.rt.CreateUserEvent(f.context)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestNativeCallsAreCounted(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor")
	counter := metrics.NativeCalls.WithLabelValues(string(capability.OpCreateKernel), driver.InvalidProgramExecutable.String())
	before := testutil.ToFloat64(counter)

	p := f.program(t, vecAdd)
	_, err := f.rt.CreateKernel(p, "vec_add")
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
