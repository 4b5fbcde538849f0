package render

import (
	"math"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/photofilter/internal/editor"
)

// colorMatrix is a row-major 3x3 matrix applied to straight (non
// premultiplied) RGB channels in [0, 1].
type colorMatrix [9]float32

func (m colorMatrix) filter() gift.Filter {
	return gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		r = clamp01(m[0]*r0 + m[1]*g0 + m[2]*b0)
		g = clamp01(m[3]*r0 + m[4]*g0 + m[5]*b0)
		b = clamp01(m[6]*r0 + m[7]*g0 + m[8]*b0)
		return r, g, b, a0
	})
}

// linear returns a filter computing x*slope + intercept on each colour channel.
func linear(slope, intercept float32) gift.Filter {
	return gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		return clamp01(r0*slope + intercept),
			clamp01(g0*slope + intercept),
			clamp01(b0*slope + intercept),
			a0
	})
}

func saturateMatrix(s float32) colorMatrix {
	return colorMatrix{
		0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s,
		0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s,
		0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s,
	}
}

func hueRotateMatrix(deg float64) colorMatrix {
	rad := deg * math.Pi / 180
	c := float32(math.Cos(rad))
	s := float32(math.Sin(rad))
	return colorMatrix{
		0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928,
		0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283,
		0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072,
	}
}

// grayscaleMatrix takes the grayscale amount in [0, 1].
func grayscaleMatrix(amount float32) colorMatrix {
	g := 1 - amount
	return colorMatrix{
		0.2126 + 0.7874*g, 0.7152 - 0.7152*g, 0.0722 - 0.0722*g,
		0.2126 - 0.2126*g, 0.7152 + 0.2848*g, 0.0722 - 0.0722*g,
		0.2126 - 0.2126*g, 0.7152 - 0.7152*g, 0.0722 + 0.9278*g,
	}
}

func opacity(o float32) gift.Filter {
	return gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		return r0, g0, b0, clamp01(a0 * o)
	})
}

// filterFor builds the gift filter for a single filter value. It returns nil
// when the value is the identity for that filter.
func filterFor(f editor.Filter, v float64) gift.Filter {
	v = f.Clamp(v)
	amount := float32(v / 100)

	switch f {
	case editor.Brightness:
		if v == 100 {
			return nil
		}
		return linear(amount, 0)
	case editor.Contrast:
		if v == 100 {
			return nil
		}
		return linear(amount, 0.5-0.5*amount)
	case editor.Saturate:
		if v == 100 {
			return nil
		}
		return saturateMatrix(amount).filter()
	case editor.Sepia:
		if v == 0 {
			return nil
		}
		return gift.Sepia(float32(v))
	case editor.HueRotate:
		if math.Mod(v, 360) == 0 {
			return nil
		}
		return hueRotateMatrix(v).filter()
	case editor.Invert:
		if v == 0 {
			return nil
		}
		return linear(1-2*amount, amount)
	case editor.Blur:
		if v == 0 {
			return nil
		}
		return gift.GaussianBlur(float32(v))
	case editor.Grayscale:
		if v == 0 {
			return nil
		}
		return grayscaleMatrix(amount).filter()
	case editor.Opacity:
		if v == 100 {
			return nil
		}
		return opacity(amount)
	}
	return nil
}

// FilterChain returns the gift filters for fs in the fixed render order:
// brightness, contrast, saturate, sepia, hue-rotate, invert, blur,
// grayscale, opacity. Filters at their identity value are omitted.
func FilterChain(fs editor.FilterState) []gift.Filter {
	chain := make([]gift.Filter, 0, len(editor.Filters))
	for _, f := range editor.Filters {
		v, _ := fs.Get(f)
		if flt := filterFor(f, v); flt != nil {
			chain = append(chain, flt)
		}
	}
	return chain
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
