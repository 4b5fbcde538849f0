// Package pipeline applies an edit recipe to image files. It is the
// unit of work of the batch command and of `photofilter apply`.
package pipeline

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/photofilter/internal/editor"
	"github.com/MeKo-Tech/photofilter/internal/session"
)

// Recipe is a replayable list of edits: an optional preset, filter
// overrides applied after it, quarter turns and flips.
type Recipe struct {
	Preset  string             `yaml:"preset" json:"preset,omitempty"`
	Filters map[string]float64 `yaml:"filters" json:"filters,omitempty"`
	// Rotate counts clockwise quarter turns; negative values turn left.
	Rotate int  `yaml:"rotate" json:"rotate,omitempty"`
	FlipH  bool `yaml:"flip_h" json:"flipH,omitempty"`
	FlipV  bool `yaml:"flip_v" json:"flipV,omitempty"`
}

// Validate checks the preset against the session's table and the filter
// names. Two names resolving to the same filter are rejected.
func (r Recipe) Validate(s *session.Session) error {
	if r.Preset != "" {
		if _, err := s.Presets().MustGet(r.Preset); err != nil {
			return err
		}
	}
	_, err := r.overrides()
	return err
}

// overrides resolves the filter names of r.
func (r Recipe) overrides() (map[editor.Filter]float64, error) {
	out := make(map[editor.Filter]float64, len(r.Filters))
	for name, v := range r.Filters {
		f, err := editor.ParseFilter(name)
		if err != nil {
			return nil, err
		}
		if _, dup := out[f]; dup {
			return nil, fmt.Errorf("filter %s is set more than once", f)
		}
		out[f] = v
	}
	return out, nil
}

// Apply drives s through the recipe using the same operations as the
// interactive editor, so presets merge and filter values are clamped.
// The preset is applied first, then the filter overrides in render order,
// then rotation and flips.
func (r Recipe) Apply(s *session.Session) error {
	if err := r.Validate(s); err != nil {
		return err
	}

	if r.Preset != "" {
		s.ApplyPreset(r.Preset)
	}

	overrides, err := r.overrides()
	if err != nil {
		return err
	}
	for _, f := range editor.Filters {
		v, ok := overrides[f]
		if !ok {
			continue
		}
		if err := s.AdjustFilter(f, v); err != nil {
			return err
		}
	}

	for i := 0; i < r.Rotate; i++ {
		s.RotateRight()
	}
	for i := 0; i > r.Rotate; i-- {
		s.RotateLeft()
	}
	if r.FlipH {
		s.FlipHorizontal()
	}
	if r.FlipV {
		s.FlipVertical()
	}
	return nil
}

// IsZero reports whether the recipe leaves an image untouched.
func (r Recipe) IsZero() bool {
	return r.Preset == "" && len(r.Filters) == 0 && r.Rotate%4 == 0 && !r.FlipH && !r.FlipV
}

// String renders the recipe for logs.
func (r Recipe) String() string {
	names := make([]string, 0, len(r.Filters))
	for name := range r.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	out := fmt.Sprintf("preset=%q rotate=%d flipH=%t flipV=%t", r.Preset, r.Rotate, r.FlipH, r.FlipV)
	for _, name := range names {
		out += fmt.Sprintf(" %s=%g", name, r.Filters[name])
	}
	return out
}

// LoadRecipe reads a YAML recipe file:
//
//	preset: vintage
//	filters:
//	  blur: 2
//	rotate: 1
//	flip_h: true
func LoadRecipe(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to read recipe %s: %w", path, err)
	}
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Recipe{}, fmt.Errorf("failed to parse recipe %s: %w", path, err)
	}
	return r, nil
}
