package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultState(t *testing.T) {
	s := Default()

	assert.Equal(t, 100.0, s.Filters.Brightness)
	assert.Equal(t, 100.0, s.Filters.Contrast)
	assert.Equal(t, 100.0, s.Filters.Saturate)
	assert.Equal(t, 0.0, s.Filters.Sepia)
	assert.Equal(t, 0.0, s.Filters.HueRotate)
	assert.Equal(t, 0.0, s.Filters.Invert)
	assert.Equal(t, 0.0, s.Filters.Blur)
	assert.Equal(t, 0.0, s.Filters.Grayscale)
	assert.Equal(t, 100.0, s.Filters.Opacity)
	assert.Equal(t, TransformState{Rotate: 0, FlipX: 1, FlipY: 1}, s.Transform)
}

func TestCloneIsIndependent(t *testing.T) {
	a := Default()
	b := a.Clone()

	b.Filters.Set(Sepia, 40)
	b.Transform.RotateRight()

	assert.Equal(t, 0.0, a.Filters.Sepia)
	assert.Equal(t, 0, a.Transform.Rotate)
	assert.NotEqual(t, a, b)
}

func TestRotateFourTimesIsCongruent(t *testing.T) {
	tr := DefaultTransform()
	for i := 0; i < 4; i++ {
		tr.RotateRight()
	}
	assert.Equal(t, 360, tr.Rotate)
	assert.Equal(t, 0, tr.NormalizedRotation())

	for i := 0; i < 4; i++ {
		tr.RotateLeft()
	}
	assert.Equal(t, 0, tr.Rotate)
}

func TestNormalizedRotationNegative(t *testing.T) {
	tr := TransformState{Rotate: -90, FlipX: 1, FlipY: 1}
	assert.Equal(t, 270, tr.NormalizedRotation())
	assert.True(t, tr.SwapsDimensions())

	tr.Rotate = -180
	assert.Equal(t, 180, tr.NormalizedRotation())
	assert.False(t, tr.SwapsDimensions())
}

func TestDoubleFlipRestores(t *testing.T) {
	tr := DefaultTransform()

	tr.FlipHorizontal()
	assert.Equal(t, -1, tr.FlipX)
	tr.FlipHorizontal()
	assert.Equal(t, 1, tr.FlipX)

	tr.FlipVertical()
	tr.FlipVertical()
	assert.Equal(t, 1, tr.FlipY)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"brightness", Brightness},
		{"Brightness", Brightness},
		{"hueRotate", HueRotate},
		{"hue-rotate", HueRotate},
		{"constrast", Contrast},
		{" opacity ", Opacity},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFilter("vignette")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFilter))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 200.0, Brightness.Clamp(350))
	assert.Equal(t, 0.0, Brightness.Clamp(-5))
	assert.Equal(t, 20.0, Blur.Clamp(25))
	assert.Equal(t, 360.0, HueRotate.Clamp(400))
	assert.Equal(t, 55.0, Sepia.Clamp(55))
}

func TestFilterStateGetSet(t *testing.T) {
	fs := DefaultFilters()
	for _, f := range Filters {
		require.True(t, fs.Set(f, 7))
		v, ok := fs.Get(f)
		require.True(t, ok)
		assert.Equal(t, 7.0, v, "filter %s", f)
	}

	assert.False(t, fs.Set(Filter("vignette"), 1))
	_, ok := fs.Get(Filter("vignette"))
	assert.False(t, ok)
}

func TestMetaCoversEveryFilter(t *testing.T) {
	for _, f := range Filters {
		m, ok := Meta[f]
		require.True(t, ok, "missing meta for %s", f)
		assert.LessOrEqual(t, m.Min, m.Default)
		assert.GreaterOrEqual(t, m.Max, m.Default)
	}
}
