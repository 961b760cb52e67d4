package cl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&Error{Op: capability.OpCreateBuffer, Status: driver.InvalidBufferSize},
			"cl: createBuffer: CL_INVALID_BUFFER_SIZE (-61)",
		},
		{
			&Error{Op: capability.OpBuildProgram, Status: driver.BuildProgramFailure, Detail: "<source>:1:2: error: x"},
			"cl: buildProgram: CL_BUILD_PROGRAM_FAILURE (-11): <source>:1:2: error: x",
		},
		{
			&LocalError{Op: capability.OpCreatePipe, Kind: KindUnsupported, Detail: "requires OpenCL 2.0, runtime negotiated 1.2"},
			"cl: createPipe: unsupported: requires OpenCL 2.0, runtime negotiated 1.2",
		},
		{
			&LocalError{Op: capability.OpCreateKernel, Kind: KindHandleMismatch, Param: "program", Detail: "expected program handle, got context"},
			"cl: createKernel: handle_mismatch (program): expected program handle, got context",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestErrorMatching(t *testing.T) {
	native := fmt.Errorf("wrapped: %w", &Error{Op: capability.OpFinish, Status: driver.OutOfResources})
	assert.ErrorIs(t, native, &Error{Status: driver.OutOfResources})
	assert.ErrorIs(t, native, &Error{Op: capability.OpFinish, Status: driver.OutOfResources})
	assert.NotErrorIs(t, native, &Error{Op: capability.OpFlush, Status: driver.OutOfResources})
	assert.NotErrorIs(t, native, &Error{Status: driver.OutOfHostMemory})
	assert.False(t, IsLocal(native))
	assert.Equal(t, ErrorKind(""), KindOf(native))
	st, ok := StatusOf(native)
	assert.True(t, ok)
	assert.Equal(t, driver.OutOfResources, st)

	local := &LocalError{Op: capability.OpCreateKernel, Kind: KindInvalidArgument, Param: "name"}
	assert.ErrorIs(t, local, ErrInvalidArgument)
	assert.ErrorIs(t, local, &LocalError{Kind: KindInvalidArgument, Op: capability.OpCreateKernel})
	assert.NotErrorIs(t, local, &LocalError{Kind: KindInvalidArgument, Param: "program"})
	assert.NotErrorIs(t, local, ErrUnsupported)
	assert.True(t, IsLocal(local))
	_, ok = StatusOf(local)
	assert.False(t, ok)

	cause := errors.New("boom")
	wrapped := &LocalError{Kind: KindNegotiation, Cause: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, ErrNegotiation)
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestFromArgError(t *testing.T) {
	mismatch := fromArgError(capability.OpFlush, &capability.ArgError{
		Op: capability.OpFlush, Param: "queue", Mismatch: true, Want: driver.KindCommandQueue, Got: driver.KindEvent,
	})
	assert.Equal(t, KindHandleMismatch, mismatch.Kind)
	assert.Equal(t, "queue", mismatch.Param)
	assert.Equal(t, "expected command_queue handle, got event", mismatch.Detail)

	other := fromArgError(capability.OpFlush, errors.New("odd"))
	assert.Equal(t, KindInvalidArgument, other.Kind)
}

func TestHandleBasics(t *testing.T) {
	var zero Mem
	assert.True(t, zero.IsNil())
	assert.Equal(t, driver.KindMem, zero.Kind())

	k := Kernel{ptr: 0x2a}
	assert.False(t, k.IsNil())
	assert.Equal(t, driver.Ptr(0x2a), k.Ptr())
	assert.Equal(t, "kernel(0x2a)", k.String())

	evs := wrapAll[Event]([]driver.Ptr{1, 2})
	assert.Equal(t, []Event{{ptr: 1}, {ptr: 2}}, evs)
	assert.Equal(t, []driver.Ptr{1, 2}, ptrs(evs))

	assert.Equal(t, []Device{{ptr: 3}}, handleSlice[Device]([]Handle{Device{ptr: 3}}))
	assert.Equal(t, []Device{{ptr: 4}}, handleSlice[Device]([]Device{{ptr: 4}}))
	assert.Nil(t, handleSlice[Device](nil))
}
