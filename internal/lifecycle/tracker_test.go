package lifecycle

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/fxnlabs/clfacade/internal/metrics"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

type released struct {
	kind driver.Kind
	ptr  driver.Ptr
}

func recorder(calls *[]released, fail map[driver.Ptr]error) ReleaseFunc {
	return func(kind driver.Kind, ptr driver.Ptr) error {
		*calls = append(*calls, released{kind, ptr})
		return fail[ptr]
	}
}

func TestReferenceCounting(t *testing.T) {
	tr := New(zaptest.NewLogger(t))

	tr.Created(driver.KindEvent, 0x10)
	refs, ok := tr.Refs(0x10)
	require.True(t, ok)
	assert.Equal(t, 1, refs)

	assert.True(t, tr.Retained(driver.KindEvent, 0x10))
	refs, _ = tr.Refs(0x10)
	assert.Equal(t, 2, refs)

	assert.True(t, tr.Released(driver.KindEvent, 0x10))
	refs, _ = tr.Refs(0x10)
	assert.Equal(t, 1, refs)

	assert.True(t, tr.Released(driver.KindEvent, 0x10))
	_, ok = tr.Refs(0x10)
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Len())

	t.Run("unknown objects are not tracked", func(t *testing.T) {
		assert.False(t, tr.Retained(driver.KindMem, 0x99))
		assert.False(t, tr.Released(driver.KindMem, 0x99))
	})

	t.Run("kind must match", func(t *testing.T) {
		tr.Created(driver.KindMem, 0x20)
		assert.False(t, tr.Released(driver.KindProgram, 0x20))
		assert.Equal(t, 1, tr.Count(driver.KindMem))
	})

	t.Run("platforms and null pointers are ignored", func(t *testing.T) {
		before := tr.Len()
		tr.Created(driver.KindPlatform, 0x30)
		tr.Created(driver.KindContext, 0)
		assert.Equal(t, before, tr.Len())
	})
}

func TestSweepOrder(t *testing.T) {
	tr := New(nil)
	tr.Created(driver.KindDevice, 0x1)
	tr.Created(driver.KindContext, 0x2)
	tr.Created(driver.KindCommandQueue, 0x3)
	tr.Created(driver.KindProgram, 0x4)
	tr.Created(driver.KindMem, 0x5)
	tr.Created(driver.KindKernel, 0x6)
	tr.Created(driver.KindSampler, 0x7)
	tr.Created(driver.KindEvent, 0x8)
	tr.Created(driver.KindMem, 0x9) // sub-buffer of 0x5
	tr.Retained(driver.KindMem, 0x9)

	var calls []released
	require.NoError(t, tr.Sweep(recorder(&calls, nil)))

	assert.Equal(t, []released{
		{driver.KindEvent, 0x8},
		{driver.KindKernel, 0x6},
		{driver.KindMem, 0x9},
		{driver.KindSampler, 0x7},
		{driver.KindMem, 0x5},
		{driver.KindProgram, 0x4},
		{driver.KindCommandQueue, 0x3},
		{driver.KindContext, 0x2},
		{driver.KindDevice, 0x1},
	}, calls, "one release per live handle, dependents first")
	assert.Equal(t, 0, tr.Len())
}

func TestSweepIsIdempotent(t *testing.T) {
	tr := New(nil)
	tr.Created(driver.KindContext, 0x2)
	tr.Created(driver.KindEvent, 0x8)

	var calls []released
	require.NoError(t, tr.Sweep(recorder(&calls, nil)))
	require.Len(t, calls, 2)

	calls = nil
	require.NoError(t, tr.Sweep(recorder(&calls, nil)))
	assert.Empty(t, calls)
}

func TestSweepAggregatesErrors(t *testing.T) {
	tr := New(nil)
	tr.Created(driver.KindEvent, 0x1)
	tr.Created(driver.KindKernel, 0x2)
	tr.Created(driver.KindContext, 0x3)

	errKernel := errors.New("kernel release failed")
	errContext := errors.New("context release failed")

	var calls []released
	err := tr.Sweep(recorder(&calls, map[driver.Ptr]error{0x2: errKernel, 0x3: errContext}))
	require.Error(t, err)
	assert.Len(t, calls, 3, "a failure does not stop the sweep")
	assert.ErrorIs(t, err, errKernel)
	assert.ErrorIs(t, err, errContext)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 0, tr.Len())
}

func TestLiveHandlesGauge(t *testing.T) {
	g := metrics.LiveHandles.WithLabelValues(driver.KindSampler.String())
	before := testutil.ToFloat64(g)

	tr := New(nil)
	tr.Created(driver.KindSampler, 0x70)
	tr.Created(driver.KindSampler, 0x71)
	assert.Equal(t, before+2, testutil.ToFloat64(g))

	tr.Released(driver.KindSampler, 0x70)
	assert.Equal(t, before+1, testutil.ToFloat64(g))

	require.NoError(t, tr.Sweep(func(driver.Kind, driver.Ptr) error { return nil }))
	assert.Equal(t, before, testutil.ToFloat64(g))
}

func TestLive(t *testing.T) {
	tr := New(nil)
	tr.Created(driver.KindContext, 0x2)
	tr.Created(driver.KindEvent, 0x8)

	live := tr.Live()
	require.Len(t, live, 2)
	assert.Equal(t, driver.KindEvent, live[0].Kind)
	assert.Equal(t, driver.KindContext, live[1].Kind)
	assert.Equal(t, 2, tr.Len(), "Live does not consume the table")
}

func TestCreatedAfterSweepIsRefused(t *testing.T) {
	tr := New(zaptest.NewLogger(t))
	require.True(t, tr.Created(driver.KindContext, 0x2))
	require.NoError(t, tr.Sweep(func(driver.Kind, driver.Ptr) error { return nil }))

	assert.False(t, tr.Created(driver.KindMem, 0x5))
	assert.Equal(t, 0, tr.Len())
	assert.True(t, tr.Created(driver.KindPlatform, 0x1), "untracked kinds need no release")

	var calls []released
	require.NoError(t, tr.Sweep(recorder(&calls, nil)))
	assert.Empty(t, calls)
}
