package capability

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func TestVersionMonotonicity(t *testing.T) {
	r := Standard()
	explicitlyRemoved := map[Version][]Op{
		V11: {OpSetCommandQueueProperty},
		V12: {OpUnloadCompiler},
	}

	versions := Versions()
	for i := 1; i < len(versions); i++ {
		prev, cur := versions[i-1], versions[i]
		t.Run(prev.String()+"->"+cur.String(), func(t *testing.T) {
			_, removed := r.Diff(prev, cur)
			want := mapset.NewThreadUnsafeSet(explicitlyRemoved[cur]...)
			assert.True(t, want.Equal(removed), "unexpected removals %v", Sorted(removed))
			for _, op := range Sorted(removed) {
				d, ok := r.Definition(op)
				require.True(t, ok)
				assert.Equal(t, cur, d.Removed())
			}
		})
	}
}

func TestTierContents(t *testing.T) {
	r := Standard()

	added, removed := r.Diff(V12, V20)
	assert.Equal(t, 0, removed.Cardinality())
	assert.ElementsMatch(t, []Op{
		OpCreateCommandQueueWithProperties, OpCreatePipe, OpGetPipeInfo,
		OpSVMAlloc, OpSVMFree, OpEnqueueSVMFree, OpEnqueueSVMMemcpy, OpEnqueueSVMMemFill,
		OpEnqueueSVMMap, OpEnqueueSVMUnmap, OpCreateSamplerWithProperties,
		OpSetKernelArgSVMPointer, OpSetKernelExecInfo,
	}, added.ToSlice())

	added, _ = r.Diff(V21, V22)
	assert.ElementsMatch(t, []Op{OpSetProgramReleaseCallback, OpSetProgramSpecializationConstant}, added.ToSlice())

	assert.True(t, r.Supports(V10, OpSetCommandQueueProperty))
	assert.False(t, r.Supports(V11, OpSetCommandQueueProperty))
	assert.True(t, r.Supports(V11, OpUnloadCompiler))
	assert.False(t, r.Supports(V12, OpUnloadCompiler))
	assert.False(t, r.Supports(V22, Op("enqueueMapBuffer")))
}

func TestNegotiatedTierExcludesLaterOperations(t *testing.T) {
	v, err := Negotiate("OpenCL 1.2 Vendor Info")
	require.NoError(t, err)
	require.Equal(t, V12, v)

	later, _ := Standard().Diff(V12, V20)
	for _, op := range Sorted(later) {
		assert.False(t, Supports(v, op), string(op))
	}
}

func TestDeprecated(t *testing.T) {
	r := Standard()

	assert.False(t, r.Deprecated(V11).Contains(OpEnqueueMarker))
	assert.True(t, r.Deprecated(V12).Contains(OpEnqueueMarker))
	assert.True(t, r.Deprecated(V12).Contains(OpCreateImage2D))
	assert.True(t, r.Deprecated(V20).Contains(OpCreateCommandQueue))
	assert.True(t, r.Deprecated(V20).Contains(OpCreateSampler))
	assert.True(t, r.Deprecated(V20).Contains(OpEnqueueTask))
	assert.True(t, r.Deprecated(V11).Contains(OpUnloadCompiler))

	// Deprecated operations stay callable.
	sig, ok := r.Lookup(V22, OpCreateCommandQueue)
	require.True(t, ok)
	assert.True(t, sig.DeprecatedAt(V22))
	assert.False(t, sig.DeprecatedAt(V12))
}

func TestRevisions(t *testing.T) {
	t.Run("sampler addressing modes", func(t *testing.T) {
		v10, ok := Lookup(V10, OpCreateSampler)
		require.True(t, ok)
		v11, ok := Lookup(V11, OpCreateSampler)
		require.True(t, ok)
		assert.Equal(t, V10, v10.Since)
		assert.Equal(t, V11, v11.Since)

		ctx := fakeHandle{driver.KindContext, 1}
		args := []any{ctx, true, driver.AddressMirroredRepeat, driver.FilterLinear}
		assert.Error(t, v10.Validate(V10, args))
		assert.NoError(t, v11.Validate(V11, args))

		args[2] = driver.AddressRepeat
		assert.NoError(t, v10.Validate(V10, args))
	})

	t.Run("ndrange global offset", func(t *testing.T) {
		v10, ok := Lookup(V10, OpEnqueueNDRangeKernel)
		require.True(t, ok)
		_, _, hasOffset := v10.Param("offset")
		assert.False(t, hasOffset)

		v12, ok := Lookup(V12, OpEnqueueNDRangeKernel)
		require.True(t, ok)
		_, idx, hasOffset := v12.Param("offset")
		assert.True(t, hasOffset)
		assert.Equal(t, 2, idx)
		assert.Equal(t, V11, v12.Since)
	})

	t.Run("revised listing", func(t *testing.T) {
		assert.ElementsMatch(t, []Op{OpCreateSampler, OpEnqueueNDRangeKernel}, Standard().Revised(V11))
		assert.Empty(t, Standard().Revised(V10))
	})
}

func TestNewRegistryRejectsBadHistories(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		_, err := NewRegistry([]Definition{def(OpFlush, V10, resNone), def(OpFlush, V10, resNone)})
		assert.Error(t, err)
	})

	t.Run("gap between revisions", func(t *testing.T) {
		d := def(OpFlush, V10, resNone)
		d.Revisions[0].Removed = V11
		d.Revisions = append(d.Revisions, Signature{Since: V12})
		_, err := NewRegistry([]Definition{d})
		assert.Error(t, err)
	})

	t.Run("removed before introduced", func(t *testing.T) {
		_, err := NewRegistry([]Definition{def(OpFlush, V12, resNone).removed(V11)})
		assert.Error(t, err)
	})
}

func TestEveryOperationHasReferenceCounting(t *testing.T) {
	for _, k := range driver.Kinds() {
		if k == driver.KindPlatform {
			_, ok := ReleaseOp(k)
			assert.False(t, ok)
			continue
		}
		retain, ok := RetainOp(k)
		require.True(t, ok, k.String())
		release, ok := ReleaseOp(k)
		require.True(t, ok, k.String())
		assert.True(t, Supports(MaxVersion, retain))
		assert.True(t, Supports(MaxVersion, release))
	}
}

func TestConstants(t *testing.T) {
	_, ok := LookupConstant(V10, "CL_ADDRESS_MIRRORED_REPEAT")
	assert.False(t, ok)
	c, ok := LookupConstant(V11, "CL_ADDRESS_MIRRORED_REPEAT")
	require.True(t, ok)
	assert.Equal(t, int64(driver.AddressMirroredRepeat), c.Value)

	assert.Len(t, Constants(V10, GroupAddressingMode), 4)
	assert.Len(t, Constants(V22, GroupAddressingMode), 5)

	c, ok = LookupConstant(V22, "CL_INVALID_SPEC_ID")
	require.True(t, ok)
	assert.Equal(t, V22, c.Since)
	_, ok = LookupConstant(V21, "CL_INVALID_SPEC_ID")
	assert.False(t, ok)

	name, ok := ConstantName(V12, GroupErrorCode, int64(driver.BuildProgramFailure))
	require.True(t, ok)
	assert.Equal(t, "CL_BUILD_PROGRAM_FAILURE", name)

	assert.Contains(t, Groups(), GroupMemFlags)
}
