package assets

import _ "embed"

// PresetsYAML is the default preset table, embedded so the CLI, the server
// and the js/wasm build share one copy.
//
//go:embed presets.yaml
var PresetsYAML []byte
