package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/photofilter/internal/editor"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// redBlue returns a 2x1 image: red on the left, blue on the right.
func redBlue() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)
	return img
}

func assertNear(t *testing.T, want, got color.NRGBA) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1, "R want %v got %v", want, got)
	assert.InDelta(t, want.G, got.G, 1, "G want %v got %v", want, got)
	assert.InDelta(t, want.B, got.B, 1, "B want %v got %v", want, got)
	assert.InDelta(t, want.A, got.A, 1, "A want %v got %v", want, got)
}

func TestRenderRejectsMissingSource(t *testing.T) {
	_, err := Render(nil, editor.Default())
	require.ErrorIs(t, err, ErrNilSource)

	_, err = Render(image.NewNRGBA(image.Rect(0, 0, 0, 5)), editor.Default())
	require.ErrorIs(t, err, ErrEmptySource)
}

func TestRenderDefaultIsIdentity(t *testing.T) {
	src := solidImage(4, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	out, err := Render(src, editor.Default())
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestCanvasDimensionsSwapOnlyForQuarterTurns(t *testing.T) {
	src := solidImage(6, 4, red)

	for _, rot := range []int{0, 90, 180, 270, 360, -90, -180, 450, 45} {
		s := editor.Default()
		s.Transform.Rotate = rot

		out, err := Render(src, s)
		require.NoError(t, err)

		if rot%180 != 0 {
			assert.Equal(t, 4, out.Bounds().Dx(), "rotate %d", rot)
			assert.Equal(t, 6, out.Bounds().Dy(), "rotate %d", rot)
		} else {
			assert.Equal(t, 6, out.Bounds().Dx(), "rotate %d", rot)
			assert.Equal(t, 4, out.Bounds().Dy(), "rotate %d", rot)
		}
	}
}

func TestRotateRightIsClockwise(t *testing.T) {
	s := editor.Default()
	s.Transform.RotateRight()

	out, err := Render(redBlue(), s)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 1, 2), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(0, 0))
	assert.Equal(t, blue, out.NRGBAAt(0, 1))
}

func TestRotateLeftIsCounterClockwise(t *testing.T) {
	s := editor.Default()
	s.Transform.RotateLeft()

	out, err := Render(redBlue(), s)
	require.NoError(t, err)
	assert.Equal(t, blue, out.NRGBAAt(0, 0))
	assert.Equal(t, red, out.NRGBAAt(0, 1))
}

func TestFlipHorizontal(t *testing.T) {
	s := editor.Default()
	s.Transform.FlipHorizontal()

	out, err := Render(redBlue(), s)
	require.NoError(t, err)
	assert.Equal(t, blue, out.NRGBAAt(0, 0))
	assert.Equal(t, red, out.NRGBAAt(1, 0))
}

func TestFlipAppliesBeforeRotation(t *testing.T) {
	s := editor.Default()
	s.Transform.FlipHorizontal()
	s.Transform.RotateRight()

	out, err := Render(redBlue(), s)
	require.NoError(t, err)
	assert.Equal(t, blue, out.NRGBAAt(0, 0))
	assert.Equal(t, red, out.NRGBAAt(0, 1))
}

func TestColorFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter editor.Filter
		value  float64
		in     color.NRGBA
		want   color.NRGBA
	}{
		{"brightness half", editor.Brightness, 50, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, color.NRGBA{R: 100, G: 50, B: 25, A: 255}},
		{"brightness clipped", editor.Brightness, 200, color.NRGBA{R: 200, G: 100, B: 0, A: 255}, color.NRGBA{R: 255, G: 200, B: 0, A: 255}},
		{"contrast zero is mid grey", editor.Contrast, 0, color.NRGBA{R: 255, G: 0, B: 30, A: 255}, color.NRGBA{R: 128, G: 128, B: 128, A: 255}},
		{"invert full", editor.Invert, 100, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, color.NRGBA{R: 245, G: 235, B: 225, A: 255}},
		{"invert half is grey", editor.Invert, 50, color.NRGBA{R: 0, G: 255, B: 90, A: 255}, color.NRGBA{R: 128, G: 128, B: 128, A: 255}},
		{"grayscale full", editor.Grayscale, 100, color.NRGBA{R: 255, A: 255}, color.NRGBA{R: 54, G: 54, B: 54, A: 255}},
		{"saturate zero", editor.Saturate, 0, color.NRGBA{R: 255, A: 255}, color.NRGBA{R: 54, G: 54, B: 54, A: 255}},
		{"sepia full on white", editor.Sepia, 100, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, color.NRGBA{R: 255, G: 255, B: 239, A: 255}},
		{"opacity half", editor.Opacity, 50, color.NRGBA{R: 40, G: 50, B: 60, A: 255}, color.NRGBA{R: 40, G: 50, B: 60, A: 128}},
		{"hue rotate keeps grey", editor.HueRotate, 180, color.NRGBA{R: 90, G: 90, B: 90, A: 255}, color.NRGBA{R: 90, G: 90, B: 90, A: 255}},
		{"blur keeps flat colour", editor.Blur, 3, color.NRGBA{R: 12, G: 34, B: 56, A: 255}, color.NRGBA{R: 12, G: 34, B: 56, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := editor.Default()
			require.True(t, s.Filters.Set(tt.filter, tt.value))

			out, err := Render(solidImage(8, 8, tt.in), s)
			require.NoError(t, err)
			assertNear(t, tt.want, out.NRGBAAt(4, 4))
		})
	}
}

func TestFilterOrderMatters(t *testing.T) {
	// brightness runs before contrast
	s := editor.Default()
	s.Filters.Brightness = 50
	s.Filters.Contrast = 200

	out, err := Render(solidImage(2, 2, color.NRGBA{R: 200, G: 200, B: 200, A: 255}), s)
	require.NoError(t, err)

	// brightness: 200 -> 100; contrast x2 around 127.5: 100 -> 72.5
	assert.InDelta(t, 72, out.NRGBAAt(0, 0).R, 1.5)
}

func TestFilterChainSkipsIdentityValues(t *testing.T) {
	assert.Empty(t, FilterChain(editor.DefaultFilters()))

	fs := editor.DefaultFilters()
	fs.HueRotate = 360
	assert.Empty(t, FilterChain(fs))

	fs.Sepia = 10
	fs.Blur = 2
	assert.Len(t, FilterChain(fs), 2)
}

func TestRenderDoesNotTouchSource(t *testing.T) {
	src := solidImage(3, 3, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	before := append([]uint8(nil), src.Pix...)

	s := editor.Default()
	s.Filters.Invert = 100
	s.Filters.Blur = 1
	s.Transform.RotateRight()

	first, err := Render(src, s)
	require.NoError(t, err)
	second, err := Render(src, s)
	require.NoError(t, err)

	assert.Equal(t, before, src.Pix)
	assert.Equal(t, first.Pix, second.Pix, "renders must not accumulate")
}

func TestArbitraryAngleCentresOnCanvas(t *testing.T) {
	src := solidImage(20, 20, red)
	s := editor.Default()
	s.Transform.Rotate = 45

	out, err := Render(src, s)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 20), out.Bounds())

	// the rotated square is a diamond: centre covered, corners uncovered
	assert.Equal(t, uint8(255), out.NRGBAAt(10, 10).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(19, 19).A)
}

func TestPreviewDownscales(t *testing.T) {
	src := solidImage(400, 200, red)

	small, err := Preview(src, editor.Default(), 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), small.Bounds())

	full, err := Preview(src, editor.Default(), 1000)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), full.Bounds())
}
