//go:build js && wasm
// +build js,wasm

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/photofilter/internal/editor"
	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/keymap"
	"github.com/MeKo-Tech/photofilter/internal/session"
)

// editorSession is the page's single editing session.
var editorSession = session.New(session.Config{})

var actions = map[string]func() bool{
	"undo":            editorSession.Undo,
	"redo":            editorSession.Redo,
	"reset":           func() bool { editorSession.Reset(); return true },
	"rotate-left":     func() bool { editorSession.RotateLeft(); return true },
	"rotate-right":    func() bool { editorSession.RotateRight(); return true },
	"flip-horizontal": func() bool { editorSession.FlipHorizontal(); return true },
	"flip-vertical":   func() bool { editorSession.FlipVertical(); return true },
	"commit":          editorSession.Commit,
}

func errorResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

// stateResult describes the current state; state is passed as JSON text.
func stateResult(changed bool) map[string]any {
	data, err := json.Marshal(editorSession.State())
	if err != nil {
		return errorResult(err)
	}
	return map[string]any{
		"state":    string(data),
		"canUndo":  editorSession.CanUndo(),
		"canRedo":  editorSession.CanRedo(),
		"hasImage": editorSession.HasImage(),
		"changed":  changed,
	}
}

// load(bytes Uint8Array, name string) decodes an image and starts a new edit.
func load(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult(errors.New("missing image bytes"))
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])

	name := ""
	if len(args) > 1 {
		name = args[1].String()
	}

	img, _, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		return errorResult(err)
	}
	if err := editorSession.Load(img, name); err != nil {
		return errorResult(err)
	}
	return stateResult(true)
}

// setFilter(name string, value number, commit bool) handles slider input.
func setFilter(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult(errors.New("missing arguments"))
	}
	f, err := editor.ParseFilter(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	commit := len(args) > 2 && args[2].Truthy()
	if commit {
		err = editorSession.AdjustFilter(f, args[1].Float())
	} else {
		err = editorSession.SetFilter(f, args[1].Float())
	}
	if err != nil {
		return errorResult(err)
	}
	return stateResult(true)
}

// action(name string) runs a button action such as "undo" or "rotate-left".
func action(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult(errors.New("missing action"))
	}
	op, ok := actions[args[0].String()]
	if !ok {
		return errorResult(fmt.Errorf("unknown action %q", args[0].String()))
	}
	return stateResult(op())
}

// applyPreset(name string) merges a preset; unknown names change nothing.
func applyPreset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult(errors.New("missing preset"))
	}
	return stateResult(editorSession.ApplyPreset(args[0].String()))
}

// render(maxSize number) returns {width, height, pixels} with straight RGBA
// pixels ready for an ImageData.
func render(this js.Value, args []js.Value) any {
	maxSize := 0
	if len(args) > 0 {
		maxSize = args[0].Int()
	}
	img, err := editorSession.Preview(maxSize)
	if err != nil {
		return errorResult(err)
	}
	pixels := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(pixels, img.Pix)
	return map[string]any{
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
		"pixels": pixels,
	}
}

// export() returns {filename, bytes} with the JPEG encoded download, or
// {error} when no image is loaded.
func export(this js.Value, args []js.Value) any {
	var buf bytes.Buffer
	if err := editorSession.Export(&buf); err != nil {
		if errors.Is(err, session.ErrNoImage) {
			return map[string]any{"error": "Please select an image first", "noImage": true}
		}
		return errorResult(err)
	}
	out := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(out, buf.Bytes())
	return map[string]any{
		"filename": imageio.DefaultExportName,
		"mimeType": "image/jpeg",
		"bytes":    out,
	}
}

// keydown(event) resolves a KeyboardEvent. Undo, redo and reset are applied
// here; "export" is returned for the page to start the download.
func keydown(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult(errors.New("missing event"))
	}
	ev := args[0]
	inputFocused := false
	if active := js.Global().Get("document").Get("activeElement"); active.Truthy() {
		inputFocused = active.Get("tagName").String() == "INPUT"
	}

	act, prevent := keymap.Resolve(keymap.KeyEvent{
		Key:          ev.Get("key").String(),
		Ctrl:         ev.Get("ctrlKey").Truthy(),
		Meta:         ev.Get("metaKey").Truthy(),
		Shift:        ev.Get("shiftKey").Truthy(),
		InputFocused: inputFocused,
	})
	if prevent {
		ev.Call("preventDefault")
	}

	changed := false
	switch act {
	case keymap.Undo:
		changed = editorSession.Undo()
	case keymap.Redo:
		changed = editorSession.Redo()
	case keymap.Reset:
		editorSession.Reset()
		changed = true
	}

	result := stateResult(changed)
	result["action"] = string(act)
	return result
}

// presets() returns the preset table as JSON text.
func presets(this js.Value, args []js.Value) any {
	return marshal(editorSession.Presets())
}

// filters() returns the filter metadata in render order as JSON text.
func filters(this js.Value, args []js.Value) any {
	type info struct {
		Name string `json:"name"`
		editor.FilterMeta
	}
	out := make([]info, 0, len(editor.Filters))
	for _, f := range editor.Filters {
		out = append(out, info{Name: string(f), FilterMeta: editor.Meta[f]})
	}
	return marshal(out)
}

func marshal(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return string(data)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("photofilterLoad", js.FuncOf(load))
	js.Global().Set("photofilterSetFilter", js.FuncOf(setFilter))
	js.Global().Set("photofilterAction", js.FuncOf(action))
	js.Global().Set("photofilterApplyPreset", js.FuncOf(applyPreset))
	js.Global().Set("photofilterRender", js.FuncOf(render))
	js.Global().Set("photofilterExport", js.FuncOf(export))
	js.Global().Set("photofilterKeydown", js.FuncOf(keydown))
	js.Global().Set("photofilterPresets", js.FuncOf(presets))
	js.Global().Set("photofilterFilters", js.FuncOf(filters))
	js.Global().Set("photofilterState", js.FuncOf(func(this js.Value, args []js.Value) any {
		return stateResult(false)
	}))

	fmt.Println("photofilter WASM module loaded")
	<-c
}
