// Package editor defines the photo editor state: filter values, geometric
// transforms and the metadata that constrains them.
package editor

// TransformState holds the geometric parameters applied before filtering.
type TransformState struct {
	// Rotate is the clockwise rotation in degrees. It accumulates without
	// normalisation, so four right turns yield 360.
	Rotate int `json:"rotate"`
	// FlipX and FlipY are scale factors, always -1 or 1.
	FlipX int `json:"flipX"`
	FlipY int `json:"flipY"`
}

// DefaultTransform returns the identity transform.
func DefaultTransform() TransformState {
	return TransformState{Rotate: 0, FlipX: 1, FlipY: 1}
}

// RotateLeft turns the image 90 degrees counter-clockwise.
func (t *TransformState) RotateLeft() { t.Rotate -= 90 }

// RotateRight turns the image 90 degrees clockwise.
func (t *TransformState) RotateRight() { t.Rotate += 90 }

// FlipHorizontal mirrors the image around the vertical axis.
func (t *TransformState) FlipHorizontal() { t.FlipX = -flipSign(t.FlipX) }

// FlipVertical mirrors the image around the horizontal axis.
func (t *TransformState) FlipVertical() { t.FlipY = -flipSign(t.FlipY) }

// NormalizedRotation returns Rotate reduced to [0, 360).
func (t TransformState) NormalizedRotation() int {
	r := t.Rotate % 360
	if r < 0 {
		r += 360
	}
	return r
}

// SwapsDimensions reports whether the output surface has width and height
// swapped relative to the source.
func (t TransformState) SwapsDimensions() bool {
	return t.Rotate%180 != 0
}

// flipSign maps any value onto {-1, 1}; zero is treated as "not flipped".
func flipSign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

// State is the complete editor configuration. It is a value type: every
// field is a plain value, so assignment produces an independent copy.
type State struct {
	Filters   FilterState    `json:"filters"`
	Transform TransformState `json:"transform"`
}

// Default returns the state of a freshly loaded image.
func Default() State {
	return State{
		Filters:   DefaultFilters(),
		Transform: DefaultTransform(),
	}
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	return State{
		Filters:   s.Filters,
		Transform: s.Transform,
	}
}
