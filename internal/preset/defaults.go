package preset

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/photofilter/assets"
)

var (
	defaultOnce  sync.Once
	defaultTable Table
)

// Default returns the embedded default preset table. The returned table is
// a copy and may be modified by the caller.
func Default() Table {
	defaultOnce.Do(func() {
		t, err := Parse(bytes.NewReader(assets.PresetsYAML))
		if err != nil {
			panic(fmt.Sprintf("embedded presets are invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable.Merge(nil)
}
