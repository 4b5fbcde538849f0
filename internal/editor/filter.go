package editor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFilter is returned when a filter name is not part of the filter table.
var ErrUnknownFilter = errors.New("unknown filter")

// Filter names one adjustable, non-geometric visual parameter.
type Filter string

const (
	Brightness Filter = "brightness"
	Contrast   Filter = "contrast"
	Saturate   Filter = "saturate"
	Sepia      Filter = "sepia"
	HueRotate  Filter = "hueRotate"
	Invert     Filter = "invert"
	Blur       Filter = "blur"
	Grayscale  Filter = "grayscale"
	Opacity    Filter = "opacity"
)

// Unit is the unit a filter value is expressed in.
type Unit string

const (
	UnitPercent Unit = "%"
	UnitDegrees Unit = "deg"
	UnitPixels  Unit = "px"
)

// FilterMeta describes the slider range, unit and default of a filter.
type FilterMeta struct {
	Unit    Unit    `json:"unit"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Filters lists every filter in render order. The order matters: the
// filters do not commute.
var Filters = []Filter{
	Brightness,
	Contrast,
	Saturate,
	Sepia,
	HueRotate,
	Invert,
	Blur,
	Grayscale,
	Opacity,
}

// Meta is the per-filter metadata table.
var Meta = map[Filter]FilterMeta{
	Brightness: {Unit: UnitPercent, Min: 0, Max: 200, Default: 100},
	Contrast:   {Unit: UnitPercent, Min: 0, Max: 200, Default: 100},
	Saturate:   {Unit: UnitPercent, Min: 0, Max: 200, Default: 100},
	Sepia:      {Unit: UnitPercent, Min: 0, Max: 100, Default: 0},
	HueRotate:  {Unit: UnitDegrees, Min: 0, Max: 360, Default: 0},
	Invert:     {Unit: UnitPercent, Min: 0, Max: 100, Default: 0},
	Blur:       {Unit: UnitPixels, Min: 0, Max: 20, Default: 0},
	Grayscale:  {Unit: UnitPercent, Min: 0, Max: 100, Default: 0},
	Opacity:    {Unit: UnitPercent, Min: 0, Max: 100, Default: 100},
}

// legacy spellings accepted by ParseFilter
var filterAliases = map[string]Filter{
	"constrast":  Contrast,
	"saturation": Saturate,
	"hue-rotate": HueRotate,
	"huerotate":  HueRotate,
}

// ParseFilter resolves a filter name. Matching is case-insensitive and a few
// legacy spellings (e.g. "constrast") are accepted.
func ParseFilter(name string) (Filter, error) {
	n := strings.TrimSpace(name)
	for _, f := range Filters {
		if strings.EqualFold(string(f), n) {
			return f, nil
		}
	}
	if f, ok := filterAliases[strings.ToLower(n)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

// Clamp limits v to the filter's [Min, Max] range.
func (f Filter) Clamp(v float64) float64 {
	m, ok := Meta[f]
	if !ok {
		return v
	}
	if v < m.Min {
		return m.Min
	}
	if v > m.Max {
		return m.Max
	}
	return v
}

// FilterState holds the current value of every filter.
type FilterState struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturate   float64 `json:"saturate"`
	Sepia      float64 `json:"sepia"`
	HueRotate  float64 `json:"hueRotate"`
	Invert     float64 `json:"invert"`
	Blur       float64 `json:"blur"`
	Grayscale  float64 `json:"grayscale"`
	Opacity    float64 `json:"opacity"`
}

// DefaultFilters returns the neutral filter state.
func DefaultFilters() FilterState {
	var fs FilterState
	for _, f := range Filters {
		fs.Set(f, Meta[f].Default)
	}
	return fs
}

// Get returns the value of filter f.
func (fs FilterState) Get(f Filter) (float64, bool) {
	if p := fs.field(f); p != nil {
		return *p, true
	}
	return 0, false
}

// Set stores v for filter f as-is. It reports false for unknown filters.
func (fs *FilterState) Set(f Filter, v float64) bool {
	p := fs.field(f)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (fs *FilterState) field(f Filter) *float64 {
	switch f {
	case Brightness:
		return &fs.Brightness
	case Contrast:
		return &fs.Contrast
	case Saturate:
		return &fs.Saturate
	case Sepia:
		return &fs.Sepia
	case HueRotate:
		return &fs.HueRotate
	case Invert:
		return &fs.Invert
	case Blur:
		return &fs.Blur
	case Grayscale:
		return &fs.Grayscale
	case Opacity:
		return &fs.Opacity
	}
	return nil
}
