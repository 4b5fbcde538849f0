// Package preset holds named partial filter states and applies them to an
// editor state as a merge.
package preset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/photofilter/internal/editor"
)

// ErrUnknownPreset is returned by Table.MustGet for names not in the table.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named partial FilterState. Filters absent from Values are
// left at their current value when the preset is applied.
type Preset struct {
	Name   string                    `json:"name"`
	Values map[editor.Filter]float64 `json:"values"`
}

// Apply overwrites every filter that Values names and leaves the others
// untouched. Values are clamped into the filter's range.
func (p Preset) Apply(fs *editor.FilterState) {
	for f, v := range p.Values {
		fs.Set(f, f.Clamp(v))
	}
}

// Table is a set of presets keyed by name.
type Table map[string]Preset

// Get looks up a preset by name.
func (t Table) Get(name string) (Preset, bool) {
	p, ok := t[name]
	return p, ok
}

// MustGet is like Get but returns ErrUnknownPreset for missing names.
func (t Table) MustGet(name string) (Preset, error) {
	p, ok := t[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Apply merges the named preset into fs. It reports false, changing
// nothing, when the name is unknown.
func (t Table) Apply(name string, fs *editor.FilterState) bool {
	p, ok := t[name]
	if !ok {
		return false
	}
	p.Apply(fs)
	return true
}

// Names returns the preset names sorted alphabetically.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new table with the presets of other added to (and
// replacing same-named presets of) t.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v.clone()
	}
	for k, v := range other {
		out[k] = v.clone()
	}
	return out
}

func (p Preset) clone() Preset {
	values := make(map[editor.Filter]float64, len(p.Values))
	for f, v := range p.Values {
		values[f] = v
	}
	return Preset{Name: p.Name, Values: values}
}

type fileFormat struct {
	Presets map[string]map[string]float64 `yaml:"presets"`
}

// Parse reads a YAML preset document:
//
//	presets:
//	  vintage:
//	    brightness: 120
//	    sepia: 40
//
// Filter names are resolved with editor.ParseFilter; unknown names are an
// error, and so is naming one filter twice (e.g. "contrast" and "constrast").
func Parse(r io.Reader) (Table, error) {
	var doc fileFormat
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, nil
		}
		return nil, fmt.Errorf("failed to decode presets: %w", err)
	}

	table := make(Table, len(doc.Presets))
	for name, raw := range doc.Presets {
		values := make(map[editor.Filter]float64, len(raw))
		for key, v := range raw {
			f, err := editor.ParseFilter(key)
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", name, err)
			}
			if _, dup := values[f]; dup {
				return nil, fmt.Errorf("preset %q: filter %s is set more than once", name, f)
			}
			values[f] = v
		}
		table[name] = Preset{Name: name, Values: values}
	}
	return table, nil
}

// LoadFile parses the preset file at path.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset file %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preset file %s: %w", path, err)
	}
	return t, nil
}
