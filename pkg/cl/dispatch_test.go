package cl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func TestEveryOperationIsDispatchable(t *testing.T) {
	for _, op := range capability.Standard().All() {
		assert.True(t, Dispatchable(op), "no dispatch entry for %s", op)
	}
	assert.False(t, Dispatchable("NotAnOperation"))
}

func TestInvokeRejectsMismatchedHandles(t *testing.T) {
	f := newFixture(t, "OpenCL 2.2 Vendor")
	p := f.program(t, vecAdd)
	require.NoError(t, f.rt.BuildProgram(p, ""))

	tests := []struct {
		name  string
		op    capability.Op
		args  []any
		param string
	}{
		{"context for program", capability.OpCreateKernel, []any{f.context, "vec_add"}, "program"},
		{"queue for context", capability.OpCreateBuffer, []any{f.queue, driver.MemReadWrite, 16}, "context"},
		{"program in device list", capability.OpCreateContext, []any{[]Handle{f.device, p}}, "devices"},
		{"event for kernel", capability.OpEnqueueTask, []any{f.queue, Event{ptr: 1}}, "kernel"},
		{"device in wait list", capability.OpEnqueueMarkerWithWaitList, []any{f.queue, []Handle{f.device}}, "wait"},
		{"program as kernel argument", capability.OpSetKernelArg, []any{Kernel{ptr: 1}, 0, p}, "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.drv.CallCount()
			res, err := f.rt.Invoke(tt.op, tt.args...)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, &LocalError{Op: tt.op, Kind: KindHandleMismatch, Param: tt.param})
			assert.Equal(t, before, f.drv.CallCount(), "mismatched handles must not reach the driver")
		})
	}
}

func TestInvokeRejectsMismatchWithoutNativeCall(t *testing.T) {
	rt, m := openMock(t, "OpenCL 1.2 Mock")
	calls := len(m.Calls)

	_, err := rt.Invoke(capability.OpCreateKernel, Context{ptr: 0x30}, "k")
	assert.ErrorIs(t, err, ErrHandleMismatch)
	_, err = rt.Invoke(capability.OpReleaseMemObject, Event{ptr: 0x60})
	assert.ErrorIs(t, err, ErrHandleMismatch)

	assert.Len(t, m.Calls, calls)
	m.AssertNotCalled(t, "CreateKernel", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestInvokeArgumentErrors(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor")
	buf := f.buffer(t, 16)
	before := f.drv.CallCount()

	_, err := f.rt.Invoke(capability.OpFlush)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.rt.Invoke(capability.OpFlush, f.queue, f.queue)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.rt.Invoke(capability.OpCreateBuffer, f.context, driver.MemReadWrite, "sixteen")
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "size"})
	_, err = f.rt.Invoke(capability.OpCreateBuffer, f.context, driver.MemReadWrite, -1)
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "size"})
	_, err = f.rt.Invoke(capability.OpEnqueueReadBufferRect, f.queue, buf, true, "not a rect", make([]byte, 4))
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "rect"})
	_, err = f.rt.Invoke(capability.OpCreateSampler, f.context, true, uint32(0xdead), driver.FilterNearest)
	assert.ErrorIs(t, err, &LocalError{Kind: KindInvalidArgument, Param: "addressing"})

	_, err = f.rt.Invoke(capability.OpSVMAlloc, f.context, driver.MemReadWrite, 16)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = f.rt.Invoke("NotAnOperation")
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.Equal(t, before, f.drv.CallCount())
}

func TestInvokeCallsThrough(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor")

	res, err := f.rt.Invoke(capability.OpCreateBuffer, f.context, driver.MemReadWrite, 16)
	require.NoError(t, err)
	buf, ok := res.(Mem)
	require.True(t, ok, "got %T", res)
	assert.False(t, buf.IsNil())

	res, err = f.rt.Invoke(capability.OpEnqueueWriteBuffer, f.queue, buf, true, 0, []byte{1, 2, 3, 4}, []Event{})
	require.NoError(t, err)
	write, ok := res.(Event)
	require.True(t, ok)

	out := make([]byte, 4)
	_, err = f.rt.Invoke(capability.OpEnqueueReadBuffer, f.queue, buf, true, 0, out, []Event{write})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, out)

	res, err = f.rt.Invoke(capability.OpCreateProgramWithSource, f.context, []string{vecAdd})
	require.NoError(t, err)
	p := res.(Program)
	_, err = f.rt.Invoke(capability.OpBuildProgram, p, "-D N=4")
	require.NoError(t, err)
	res, err = f.rt.Invoke(capability.OpCreateKernelsInProgram, p)
	require.NoError(t, err)
	assert.Len(t, res.([]Kernel), 2)

	k, err := f.rt.CreateKernel(p, "vec_add")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.rt.Invoke(capability.OpSetKernelArg, k, i, buf)
		require.NoError(t, err)
	}
	_, err = f.rt.Invoke(capability.OpSetKernelArg, k, 3, uint32(4))
	require.NoError(t, err)
	res, err = f.rt.Invoke(capability.OpEnqueueNDRangeKernel, f.queue, k, nil, []int{4}, nil)
	require.NoError(t, err)
	assert.IsType(t, Event{}, res)

	rect := driver.Rect{Region: [3]int{2, 1, 1}, BufferRowPitch: 4}
	dst := make([]byte, 2)
	_, err = f.rt.Invoke(capability.OpEnqueueReadBufferRect, f.queue, buf, true, rect, dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, dst)

	_, err = f.rt.Invoke(capability.OpFinish, f.queue)
	assert.NoError(t, err)
}

func TestInvokeRetainRelease(t *testing.T) {
	f := newFixture(t, "OpenCL 1.1 Vendor")
	ev, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)

	_, err = f.rt.Invoke(capability.OpRetainEvent, ev)
	require.NoError(t, err)
	n, err := f.rt.ReferenceCount(ev)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = f.rt.Invoke(capability.OpReleaseEvent, ev)
	require.NoError(t, err)
	n, err = f.rt.ReferenceCount(ev)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	res, err := f.rt.Invoke(capability.OpGetEventInfo, ev, driver.EventCommandExecutionStatus)
	require.NoError(t, err)
	raw, ok := res.([]byte)
	require.True(t, ok)
	st, err := driver.DecodeUint32(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(driver.Submitted), st)
}
