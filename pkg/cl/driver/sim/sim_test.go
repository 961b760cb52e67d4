package sim

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
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
	device  driver.Ptr
	context driver.Ptr
	queue   driver.Ptr
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	rt := New(opts...)
	t.Cleanup(func() { rt.Close() })

	platforms, st := rt.PlatformIDs()
	require.Equal(t, driver.Success, st)
	devices, st := rt.DeviceIDs(platforms[0], driver.DeviceTypeAll)
	require.Equal(t, driver.Success, st)
	ctx, st := rt.CreateContext(nil, devices[:1])
	require.Equal(t, driver.Success, st)
	q, st := rt.CreateCommandQueue(ctx, devices[0], driver.QueueProfilingEnable)
	require.Equal(t, driver.Success, st)
	return fixture{rt: rt, device: devices[0], context: ctx, queue: q}
}

func (f fixture) buffer(t *testing.T, size int) driver.Ptr {
	t.Helper()
	buf, st := f.rt.CreateBuffer(f.context, driver.MemReadWrite, size, nil)
	require.Equal(t, driver.Success, st)
	return buf
}

func (f fixture) program(t *testing.T, source string) driver.Ptr {
	t.Helper()
	p, st := f.rt.CreateProgramWithSource(f.context, []string{source})
	require.Equal(t, driver.Success, st)
	return p
}

// infoString decodes a string info result, failing the test on error.
func infoString(t *testing.T) func([]byte, driver.Status) string {
	return func(b []byte, st driver.Status) string {
		t.Helper()
		require.Equal(t, driver.Success, st)
		return driver.DecodeString(b)
	}
}

func TestPlatformAndDevices(t *testing.T) {
	rt := New(WithVersion("OpenCL 1.2 Acme"), WithDevices(3))
	defer rt.Close()

	platforms, st := rt.PlatformIDs()
	require.Equal(t, driver.Success, st)
	require.Len(t, platforms, 1)

	assert.Equal(t, "OpenCL 1.2 Acme", infoString(t)(rt.Info(driver.KindPlatform, platforms[0], driver.PlatformVersion)))

	all, st := rt.DeviceIDs(platforms[0], driver.DeviceTypeAll)
	require.Equal(t, driver.Success, st)
	assert.Len(t, all, 3)

	gpus, st := rt.DeviceIDs(platforms[0], driver.DeviceTypeGPU)
	require.Equal(t, driver.Success, st)
	assert.Len(t, gpus, 2)

	_, st = rt.DeviceIDs(platforms[0], driver.DeviceTypeAccelerator)
	assert.Equal(t, driver.DeviceNotFound, st)

	_, st = rt.DeviceIDs(all[0], driver.DeviceTypeAll)
	assert.Equal(t, driver.InvalidPlatform, st)

	name := infoString(t)(rt.Info(driver.KindDevice, all[1], driver.DeviceName))
	assert.Equal(t, "Simulated CPU 1", name)
}

func TestVersionGating(t *testing.T) {
	f := newFixture(t, WithVersion("OpenCL 1.2 Acme"))

	_, st := f.rt.CreateCommandQueueWithProperties(f.context, f.device, nil)
	assert.Equal(t, driver.InvalidOperation, st)
	assert.Zero(t, f.rt.SVMAlloc(f.context, driver.MemReadWrite, 64, 0))

	_, st = f.rt.Info(driver.KindDevice, f.device, driver.DeviceSVMCapabilities)
	assert.Equal(t, driver.InvalidValue, st)

	assert.Equal(t, 1, f.rt.Calls()["CreateCommandQueueWithProperties"])
}

func TestReferenceCounts(t *testing.T) {
	f := newFixture(t)

	ev, st := f.rt.CreateUserEvent(f.context)
	require.Equal(t, driver.Success, st)

	refs := func() int {
		n, ok := f.rt.RefCount(ev)
		require.True(t, ok)
		return n
	}
	assert.Equal(t, 1, refs())
	require.Equal(t, driver.Success, f.rt.Retain(driver.KindEvent, ev))
	assert.Equal(t, 2, refs())
	require.Equal(t, driver.Success, f.rt.Release(driver.KindEvent, ev))
	assert.Equal(t, 1, refs())

	// Handing an event to the wrong kind fails like an ICD does.
	assert.Equal(t, driver.InvalidMemObject, f.rt.Release(driver.KindMem, ev))

	require.Equal(t, driver.Success, f.rt.SetUserEventStatus(ev, driver.Complete))
	require.Equal(t, driver.Success, f.rt.Release(driver.KindEvent, ev))
	_, ok := f.rt.RefCount(ev)
	assert.False(t, ok)
	assert.Equal(t, driver.InvalidEvent, f.rt.Release(driver.KindEvent, ev))
}

func TestRootDevicesIgnoreRefCounting(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, driver.Success, f.rt.Release(driver.KindDevice, f.device))
	require.Equal(t, driver.Success, f.rt.Release(driver.KindDevice, f.device))
	n, ok := f.rt.RefCount(f.device)
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestBufferTransfers(t *testing.T) {
	f := newFixture(t)
	buf := f.buffer(t, 16)

	_, st := f.rt.EnqueueWriteBuffer(f.queue, buf, true, 4, []byte{1, 2, 3, 4}, nil)
	require.Equal(t, driver.Success, st)

	out := make([]byte, 8)
	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 0, out, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, out)

	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 12, out, nil)
	assert.Equal(t, driver.InvalidValue, st)

	_, st = f.rt.EnqueueCopyBuffer(f.queue, buf, buf, 0, 2, 4, nil)
	assert.Equal(t, driver.MemCopyOverlap, st)

	_, st = f.rt.EnqueueFillBuffer(f.queue, buf, []byte{0xAB, 0xCD}, 8, 8, nil)
	require.Equal(t, driver.Success, st)
	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 8, out, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{0xAB, 0xCD, 0xAB, 0xCD, 0xAB, 0xCD, 0xAB, 0xCD}, out)
}

func TestSubBufferSharesStorage(t *testing.T) {
	f := newFixture(t)
	buf := f.buffer(t, 64)

	_, st := f.rt.CreateSubBuffer(buf, 0, 8, 16)
	assert.Equal(t, driver.MisalignedSubBufferOffset, st)

	sub, st := f.rt.CreateSubBuffer(buf, 0, 16, 16)
	require.Equal(t, driver.Success, st)

	_, st = f.rt.EnqueueWriteBuffer(f.queue, sub, true, 0, []byte{9, 9}, nil)
	require.Equal(t, driver.Success, st)
	out := make([]byte, 2)
	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 16, out, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{9, 9}, out)

	_, st = f.rt.EnqueueCopyBuffer(f.queue, buf, sub, 20, 0, 8, nil)
	assert.Equal(t, driver.MemCopyOverlap, st)
}

func TestRectTransfer(t *testing.T) {
	f := newFixture(t)
	buf := f.buffer(t, 16)

	host := []byte{1, 2, 3, 4, 5, 6}
	rect := driver.Rect{Region: [3]int{2, 3, 1}, BufferOrigin: [3]int{1, 0, 0}, BufferRowPitch: 4}
	_, st := f.rt.EnqueueWriteBufferRect(f.queue, buf, true, rect, host, nil)
	require.Equal(t, driver.Success, st)

	out := make([]byte, 12)
	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 0, out, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{0, 1, 2, 0, 0, 3, 4, 0, 0, 5, 6, 0}, out)
}

func TestUserEventGatesDependentCommands(t *testing.T) {
	f := newFixture(t)
	buf := f.buffer(t, 4)
	gate, st := f.rt.CreateUserEvent(f.context)
	require.Equal(t, driver.Success, st)

	write, st := f.rt.EnqueueWriteBuffer(f.queue, buf, false, 0, []byte{7, 7, 7, 7}, []driver.Ptr{gate})
	require.Equal(t, driver.Success, st)
	status, st := f.rt.Info(driver.KindEvent, write, driver.EventCommandExecutionStatus)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, uint32(driver.Queued), binary.NativeEndian.Uint32(status))

	fired := make(chan driver.ExecStatus, 1)
	require.Equal(t, driver.Success, f.rt.SetEventCallback(write, driver.Complete, func(_ driver.Ptr, s driver.ExecStatus) {
		fired <- s
	}))

	require.Equal(t, driver.Success, f.rt.SetUserEventStatus(gate, driver.Complete))
	assert.Equal(t, driver.InvalidOperation, f.rt.SetUserEventStatus(gate, driver.Complete))

	select {
	case s := <-fired:
		assert.Equal(t, driver.Complete, s)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not delivered")
	}
	require.Equal(t, driver.Success, f.rt.WaitForEvents([]driver.Ptr{write}))

	out := make([]byte, 4)
	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 0, out, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{7, 7, 7, 7}, out)
}

func TestFailedUserEventPropagates(t *testing.T) {
	f := newFixture(t)
	gate, _ := f.rt.CreateUserEvent(f.context)
	marker, st := f.rt.EnqueueMarkerWithWaitList(f.queue, []driver.Ptr{gate})
	require.Equal(t, driver.Success, st)

	require.Equal(t, driver.Success, f.rt.SetUserEventStatus(gate, driver.ExecStatus(-100)))
	assert.Equal(t, driver.ExecStatusErrorForEventsInWaitList, f.rt.WaitForEvents([]driver.Ptr{marker}))
}

func TestBuildLogAndOptions(t *testing.T) {
	f := newFixture(t)

	bad := f.program(t, "#error missing feature\n__kernel void k() {}")
	assert.Equal(t, driver.BuildProgramFailure, f.rt.BuildProgram(bad, nil, ""))
	log := infoString(t)(f.rt.ProgramBuildInfo(bad, f.device, driver.ProgramBuildLog))
	assert.Contains(t, log, "<source>:1:2: error: missing feature")

	p := f.program(t, vecAdd)
	assert.Equal(t, driver.InvalidBuildOptions, f.rt.BuildProgram(p, nil, "fast"))
	require.Equal(t, driver.Success, f.rt.BuildProgram(p, nil, "-D N=4 -cl-fast-relaxed-math"))
	opts := infoString(t)(f.rt.ProgramBuildInfo(p, f.device, driver.ProgramBuildOptions))
	assert.Equal(t, "-D N=4 -cl-fast-relaxed-math", opts)

	names := infoString(t)(f.rt.Info(driver.KindProgram, p, driver.ProgramKernelNames))
	assert.Equal(t, "vec_add;scale", names)
}

func TestKernelArgs(t *testing.T) {
	f := newFixture(t)
	p := f.program(t, vecAdd)
	require.Equal(t, driver.Success, f.rt.BuildProgram(p, nil, ""))
	k, st := f.rt.CreateKernel(p, "vec_add")
	require.Equal(t, driver.Success, st)

	_, st = f.rt.CreateKernel(p, "missing")
	assert.Equal(t, driver.InvalidKernelName, st)
	assert.Equal(t, driver.InvalidOperation, f.rt.BuildProgram(p, nil, ""))

	buf := f.buffer(t, 64)
	assert.Equal(t, driver.InvalidArgIndex, f.rt.SetKernelArg(k, 4, driver.KernelArg{Data: []byte{0}}))
	assert.Equal(t, driver.InvalidArgSize, f.rt.SetKernelArg(k, 3, driver.KernelArg{Data: []byte{1, 0}}))
	assert.Equal(t, driver.InvalidMemObject, f.rt.SetKernelArg(k, 0, driver.KernelArg{Object: k}))

	_, st = f.rt.EnqueueNDRangeKernel(f.queue, k, nil, []int{16}, nil, nil)
	assert.Equal(t, driver.InvalidKernelArgs, st)

	for i := uint32(0); i < 3; i++ {
		require.Equal(t, driver.Success, f.rt.SetKernelArg(k, i, driver.KernelArg{Object: buf}))
	}
	require.Equal(t, driver.Success, f.rt.SetKernelArg(k, 3, driver.KernelArg{Data: driver.EncodeUint32(16)}))

	_, st = f.rt.EnqueueNDRangeKernel(f.queue, k, nil, []int{16}, []int{8, 8}, nil)
	assert.Equal(t, driver.InvalidWorkGroupSize, st)
	_, st = f.rt.EnqueueNDRangeKernel(f.queue, k, nil, []int{1, 1, 1, 1}, nil, nil)
	assert.Equal(t, driver.InvalidWorkDimension, st)

	ev, st := f.rt.EnqueueNDRangeKernel(f.queue, k, []int{0}, []int{16}, []int{8}, nil)
	require.Equal(t, driver.Success, st)
	require.Equal(t, driver.Success, f.rt.Finish(f.queue))

	start, st := f.rt.EventProfilingInfo(ev, driver.ProfilingCommandStart)
	require.Equal(t, driver.Success, st)
	end, st := f.rt.EventProfilingInfo(ev, driver.ProfilingCommandEnd)
	require.Equal(t, driver.Success, st)
	assert.LessOrEqual(t, binary.NativeEndian.Uint64(start), binary.NativeEndian.Uint64(end))

	typeName := infoString(t)(f.rt.KernelArgInfo(k, 0, driver.KernelArgTypeName))
	assert.Equal(t, "float*", typeName)
	qual, st := f.rt.KernelArgInfo(k, 0, driver.KernelArgTypeQualifier)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, uint64(driver.KernelArgTypeQualConst), binary.NativeEndian.Uint64(qual))
}

func TestGlobalOffsetNeeds11(t *testing.T) {
	f := newFixture(t, WithVersion("OpenCL 1.0 Legacy"))
	p := f.program(t, "__kernel void k(void) {}")
	require.Equal(t, driver.Success, f.rt.BuildProgram(p, nil, ""))
	k, st := f.rt.CreateKernel(p, "k")
	require.Equal(t, driver.Success, st)

	_, st = f.rt.EnqueueNDRangeKernel(f.queue, k, []int{0}, []int{4}, nil, nil)
	assert.Equal(t, driver.InvalidGlobalOffset, st)
	_, st = f.rt.EnqueueNDRangeKernel(f.queue, k, nil, []int{4}, nil, nil)
	assert.Equal(t, driver.Success, st)
}

func TestBinaryRoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.program(t, vecAdd)
	require.Equal(t, driver.Success, f.rt.BuildProgram(p, nil, ""))

	sizesRaw, st := f.rt.Info(driver.KindProgram, p, driver.ProgramBinarySizes)
	require.Equal(t, driver.Success, st)
	sizes, err := driver.DecodeSizes(sizesRaw)
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	bin, st := f.rt.Info(driver.KindProgram, p, driver.ProgramBinaries)
	require.Equal(t, driver.Success, st)
	require.Len(t, bin, sizes[0])

	loaded, statuses, st := f.rt.CreateProgramWithBinary(f.context, []driver.Ptr{f.device}, [][]byte{bin})
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []driver.Status{driver.Success}, statuses)
	require.Equal(t, driver.Success, f.rt.BuildProgram(loaded, nil, ""))
	_, st = f.rt.CreateKernel(loaded, "scale")
	assert.Equal(t, driver.Success, st)

	_, statuses, st = f.rt.CreateProgramWithBinary(f.context, []driver.Ptr{f.device}, [][]byte{[]byte("garbage")})
	assert.Equal(t, driver.InvalidBinary, st)
	assert.Equal(t, []driver.Status{driver.InvalidBinary}, statuses)
}

func TestCompileAndLink(t *testing.T) {
	f := newFixture(t)
	a := f.program(t, "__kernel void a(void) {}")
	b := f.program(t, "__kernel void b(void) {}")
	require.Equal(t, driver.Success, f.rt.CompileProgram(a, nil, "", nil, nil))

	_, st := f.rt.LinkProgram(f.context, nil, "", []driver.Ptr{a, b})
	assert.Equal(t, driver.InvalidOperation, st)

	require.Equal(t, driver.Success, f.rt.CompileProgram(b, nil, "", nil, nil))
	linked, st := f.rt.LinkProgram(f.context, nil, "", []driver.Ptr{a, b})
	require.Equal(t, driver.Success, st)
	kernels, st := f.rt.CreateKernelsInProgram(linked)
	require.Equal(t, driver.Success, st)
	assert.Len(t, kernels, 2)

	dup, st := f.rt.LinkProgram(f.context, nil, "", []driver.Ptr{a, a})
	assert.Equal(t, driver.LinkProgramFailure, st)
	assert.NotZero(t, dup)
}

func TestBuiltInKernelExecutes(t *testing.T) {
	f := newFixture(t)
	p, st := f.rt.CreateProgramWithBuiltInKernels(f.context, []driver.Ptr{f.device}, "sim_fill")
	require.Equal(t, driver.Success, st)
	k, st := f.rt.CreateKernel(p, "sim_fill")
	require.Equal(t, driver.Success, st)

	buf := f.buffer(t, 8)
	require.Equal(t, driver.Success, f.rt.SetKernelArg(k, 0, driver.KernelArg{Object: buf}))
	require.Equal(t, driver.Success, f.rt.SetKernelArg(k, 1, driver.KernelArg{Data: []byte{0x5A}}))
	_, st = f.rt.EnqueueNDRangeKernel(f.queue, k, nil, []int{4}, nil, nil)
	require.Equal(t, driver.Success, st)

	out := make([]byte, 8)
	_, st = f.rt.EnqueueReadBuffer(f.queue, buf, true, 0, out, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{0x5A, 0x5A, 0x5A, 0x5A, 0, 0, 0, 0}, out)
}

func TestReleaseCallbacksRun(t *testing.T) {
	f := newFixture(t)
	buf := f.buffer(t, 4)

	var order []int
	done := make(chan struct{})
	require.Equal(t, driver.Success, f.rt.SetMemObjectDestructorCallback(buf, func() { order = append(order, 1); close(done) }))
	require.Equal(t, driver.Success, f.rt.SetMemObjectDestructorCallback(buf, func() { order = append(order, 2) }))
	require.Equal(t, driver.Success, f.rt.Release(driver.KindMem, buf))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("destructor not delivered")
	}
	assert.Equal(t, []int{2, 1}, order)
}

func TestSVM(t *testing.T) {
	f := newFixture(t)

	src := f.rt.SVMAlloc(f.context, driver.MemReadWrite, 256, 64)
	dst := f.rt.SVMAlloc(f.context, driver.MemReadWrite, 256, 0)
	require.NotZero(t, src)
	require.NotZero(t, dst)
	assert.Zero(t, f.rt.SVMAlloc(f.context, driver.MemReadWrite, 256, 3))

	_, st := f.rt.EnqueueSVMMemFill(f.queue, src, []byte{1, 2, 3, 4}, 16, nil)
	require.Equal(t, driver.Success, st)
	_, st = f.rt.EnqueueSVMMemcpy(f.queue, true, dst, src, 8, nil)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, []byte{1, 2, 3, 4, 1, 2, 3, 4}, f.rt.SVMBytes(dst, 8))

	_, st = f.rt.EnqueueSVMMemcpy(f.queue, true, src+4, src, 8, nil)
	assert.Equal(t, driver.MemCopyOverlap, st)

	f.rt.SVMFree(f.context, src)
	assert.Nil(t, f.rt.SVMBytes(src, 1))
}

func TestILAndSpecializationConstants(t *testing.T) {
	f := newFixture(t)

	_, st := f.rt.CreateProgramWithIL(f.context, []byte("not spirv"))
	assert.Equal(t, driver.InvalidValue, st)

	il := binary.LittleEndian.AppendUint32(nil, spirvMagic)
	il = append(il, "__kernel void k(void) {}"...)
	p, st := f.rt.CreateProgramWithIL(f.context, il)
	require.Equal(t, driver.Success, st)
	assert.Equal(t, driver.Success, f.rt.SetProgramSpecializationConstant(p, 1, []byte{1}))

	src := f.program(t, vecAdd)
	assert.Equal(t, driver.InvalidProgram, f.rt.SetProgramSpecializationConstant(src, 1, []byte{1}))
}

func TestCallCounting(t *testing.T) {
	f := newFixture(t)
	f.rt.ResetCalls()
	assert.Zero(t, f.rt.CallCount())

	_, _ = f.rt.Info(driver.KindContext, f.context, driver.ContextNumDevices)
	_, _ = f.rt.Info(driver.KindContext, f.context, driver.ContextDevices)
	assert.Equal(t, 2, f.rt.CallCount())
	assert.Equal(t, map[string]int{"Info": 2}, f.rt.Calls())
}

func TestLiveExcludesRootObjects(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.rt.Live(driver.KindDevice))
	assert.Equal(t, 1, f.rt.Live(driver.KindContext))

	subs, st := f.rt.CreateSubDevices(f.device, []uintptr{driver.DevicePartitionEqually, 4, 0})
	require.Equal(t, driver.Success, st)
	assert.Len(t, subs, 2)
	assert.Equal(t, 2, f.rt.Live(driver.KindDevice))
}
