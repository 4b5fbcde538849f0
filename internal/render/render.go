// Package render composes an editor state into pixels. Every call is a full
// redraw from the untouched source image.
package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/photofilter/internal/editor"
)

var (
	// ErrNilSource is returned when Render is called without an image.
	ErrNilSource = errors.New("source image is nil")
	// ErrEmptySource is returned for images with zero width or height.
	ErrEmptySource = errors.New("source image is empty")
)

// CanvasSize returns the output dimensions for a w x h source: the source
// size, with width and height swapped when rotate mod 180 is not zero.
func CanvasSize(w, h int, t editor.TransformState) (int, int) {
	if t.SwapsDimensions() {
		return h, w
	}
	return w, h
}

// Geometry returns the gift filters placing a w x h source onto the output
// canvas: flip by (FlipX, FlipY), then rotate clockwise by Rotate degrees,
// centred on the canvas.
func Geometry(w, h int, t editor.TransformState) []gift.Filter {
	var fs []gift.Filter
	if t.FlipX < 0 {
		fs = append(fs, gift.FlipHorizontal())
	}
	if t.FlipY < 0 {
		fs = append(fs, gift.FlipVertical())
	}

	// gift rotates counter-clockwise
	switch r := t.NormalizedRotation(); r {
	case 0:
	case 90:
		fs = append(fs, gift.Rotate270())
	case 180:
		fs = append(fs, gift.Rotate180())
	case 270:
		fs = append(fs, gift.Rotate90())
	default:
		cw, ch := CanvasSize(w, h, t)
		fs = append(fs,
			gift.Rotate(float32(-r), color.Transparent, gift.LinearInterpolation),
			centerOn(cw, ch),
		)
	}
	return fs
}

// Pipeline returns the complete filter list for rendering a w x h source
// with state s: geometry first, then the filter chain.
func Pipeline(w, h int, s editor.State) *gift.GIFT {
	g := gift.New(Geometry(w, h, s.Transform)...)
	g.Add(FilterChain(s.Filters)...)
	return g
}

// Render draws src with state s applied into a new image.
func Render(src image.Image, s editor.State) (*image.NRGBA, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, ErrEmptySource
	}

	g := Pipeline(b.Dx(), b.Dy(), s)
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, src)
	return dst, nil
}

// Preview renders src and scales the result down to fit within maxSize x
// maxSize. Images already small enough are returned at full size.
func Preview(src image.Image, s editor.State, maxSize int) (*image.NRGBA, error) {
	out, err := Render(src, s)
	if err != nil {
		return nil, err
	}
	b := out.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return out, nil
	}

	g := gift.New(gift.ResizeToFit(maxSize, maxSize, gift.LinearResampling))
	small := image.NewNRGBA(g.Bounds(b))
	g.Draw(small, out)
	return small, nil
}

// canvasFilter centres its input on a fixed-size transparent canvas,
// cropping whatever falls outside.
type canvasFilter struct {
	w, h int
}

func centerOn(w, h int) gift.Filter {
	return &canvasFilter{w: w, h: h}
}

func (c *canvasFilter) Bounds(image.Rectangle) image.Rectangle {
	return image.Rect(0, 0, c.w, c.h)
}

func (c *canvasFilter) Draw(dst draw.Image, src image.Image, _ *gift.Options) {
	db := dst.Bounds()
	sb := src.Bounds()
	draw.Draw(dst, db, image.Transparent, image.Point{}, draw.Src)

	off := image.Pt(db.Min.X+(db.Dx()-sb.Dx())/2, db.Min.Y+(db.Dy()-sb.Dy())/2)
	r := image.Rectangle{Min: off, Max: off.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Src)
}
