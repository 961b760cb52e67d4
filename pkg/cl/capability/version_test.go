package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Run("vendor suffix", func(t *testing.T) {
		major, minor, err := ParseVersion("OpenCL 1.2 Vendor Info")
		require.NoError(t, err)
		assert.Equal(t, 1, major)
		assert.Equal(t, 2, minor)
	})

	t.Run("no suffix", func(t *testing.T) {
		major, minor, err := ParseVersion("OpenCL 3.0")
		require.NoError(t, err)
		assert.Equal(t, 3, major)
		assert.Equal(t, 0, minor)
	})

	t.Run("unparseable", func(t *testing.T) {
		for _, s := range []string{"", "OpenCL", "OpenCL x.y", "CUDA 12.1", "OpenCL 1.2beta"} {
			_, _, err := ParseVersion(s)
			assert.ErrorIs(t, err, ErrUnparseableVersion, s)
		}
	})
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"OpenCL 1.0 Sim", V10},
		{"OpenCL 1.1 Sim", V11},
		{"OpenCL 1.2 Vendor Info", V12},
		{"OpenCL 1.3 Vendor Info", V12},
		{"OpenCL 2.0 AMD-APP (1800.8)", V20},
		{"OpenCL 2.1 Intel", V21},
		{"OpenCL 2.2 pocl", V22},
		{"OpenCL 2.9 future", V22},
		{"OpenCL 3.0 CUDA 12.2.148", V22},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Negotiate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("below minimum", func(t *testing.T) {
		_, err := Negotiate("OpenCL 0.9 prototype")
		assert.ErrorIs(t, err, ErrVersionTooOld)
	})
}

func TestFloorNeverRoundsUp(t *testing.T) {
	for major := 1; major <= 4; major++ {
		for minor := 0; minor <= 9; minor++ {
			v, err := Floor(major, minor)
			require.NoError(t, err)
			assert.True(t, v.Major() < major || (v.Major() == major && v.Minor() <= minor), "%d.%d floored to %s", major, minor, v)
		}
	}
}

func TestParseTag(t *testing.T) {
	v, err := ParseTag("1.2")
	require.NoError(t, err)
	assert.Equal(t, V12, v)

	v, err = ParseTag("OpenCL 2.1 Vendor")
	require.NoError(t, err)
	assert.Equal(t, V21, v)

	_, err = ParseTag("latest")
	assert.Error(t, err)
}

func TestVersionText(t *testing.T) {
	var v Version
	require.NoError(t, v.UnmarshalText([]byte("2.0")))
	assert.Equal(t, V20, v)

	b, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2.0", string(b))

	_, err = VersionNone.MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "none", VersionNone.String())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, V12, Clamp(V22, V12))
	assert.Equal(t, V11, Clamp(V11, V20))
	assert.Equal(t, V21, Clamp(V21, VersionNone))
}

func TestFlags(t *testing.T) {
	f := Flags(V12)
	assert.True(t, f.V10)
	assert.True(t, f.V11)
	assert.True(t, f.V12)
	assert.False(t, f.V20)
	assert.False(t, f.V21)
	assert.False(t, f.V22)

	for _, v := range Versions() {
		assert.Equal(t, v <= V12, f.Has(v), v.String())
	}
	assert.False(t, f.Has(VersionNone))
}
