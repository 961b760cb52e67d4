package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

type fakeHandle struct {
	kind driver.Kind
	ptr  driver.Ptr
}

func (h fakeHandle) Kind() driver.Kind { return h.kind }
func (h fakeHandle) Ptr() driver.Ptr   { return h.ptr }

func TestValidate(t *testing.T) {
	queue := fakeHandle{driver.KindCommandQueue, 1}
	buf := fakeHandle{driver.KindMem, 2}
	ev := fakeHandle{driver.KindEvent, 3}
	prog := fakeHandle{driver.KindProgram, 4}

	read, ok := Lookup(V12, OpEnqueueReadBuffer)
	require.True(t, ok)

	t.Run("accepts well-typed arguments", func(t *testing.T) {
		assert.NoError(t, read.Validate(V12, []any{queue, buf, true, 0, make([]byte, 4)}))
		assert.NoError(t, read.Validate(V12, []any{queue, buf, false, uint32(8), make([]byte, 4), []fakeHandle{ev}}))
	})

	t.Run("handle mismatch", func(t *testing.T) {
		err := read.Validate(V12, []any{queue, prog, true, 0, make([]byte, 4)})
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.True(t, argErr.Mismatch)
		assert.Equal(t, 1, argErr.Index)
		assert.Equal(t, driver.KindMem, argErr.Want)
		assert.Equal(t, driver.KindProgram, argErr.Got)
	})

	t.Run("mismatch inside a wait list", func(t *testing.T) {
		err := read.Validate(V12, []any{queue, buf, true, 0, make([]byte, 4), []fakeHandle{ev, buf}})
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.True(t, argErr.Mismatch)
		assert.Equal(t, "wait", argErr.Param)
	})

	t.Run("nil handle", func(t *testing.T) {
		err := read.Validate(V12, []any{fakeHandle{driver.KindCommandQueue, 0}, buf, true, 0, nil})
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.False(t, argErr.Mismatch)
		assert.Equal(t, "queue", argErr.Param)
	})

	t.Run("arity", func(t *testing.T) {
		assert.Error(t, read.Validate(V12, []any{queue, buf}))
		assert.Error(t, read.Validate(V12, []any{queue, buf, true, 0, nil, nil, nil}))
	})

	t.Run("scalar types", func(t *testing.T) {
		assert.Error(t, read.Validate(V12, []any{queue, buf, "yes", 0, nil}))
		assert.Error(t, read.Validate(V12, []any{queue, buf, true, -1, nil}))
		assert.Error(t, read.Validate(V12, []any{queue, buf, true, 0, "data"}))
	})

	t.Run("kernel argument handles", func(t *testing.T) {
		kernel := fakeHandle{driver.KindKernel, 9}
		set, ok := Lookup(V12, OpSetKernelArg)
		require.True(t, ok)
		assert.NoError(t, set.Validate(V12, []any{kernel, 0, buf}))
		assert.NoError(t, set.Validate(V12, []any{kernel, 1, float32(2.5)}))

		err := set.Validate(V12, []any{kernel, 0, prog})
		var argErr *ArgError
		require.ErrorAs(t, err, &argErr)
		assert.True(t, argErr.Mismatch)
	})
}

func TestSignatureMinArgs(t *testing.T) {
	sig, ok := Lookup(V12, OpEnqueueNDRangeKernel)
	require.True(t, ok)
	// queue, kernel, offset (optional but not trailing), global
	assert.Equal(t, 4, sig.MinArgs())
	assert.Equal(t, "queue command_queue", sig.Params[0].String())
	assert.Equal(t, "event", sig.Result.String())
}
