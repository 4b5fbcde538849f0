// Package keymap resolves keyboard events to editor actions.
package keymap

import "strings"

// Action is an editor command triggered from the keyboard.
type Action string

const (
	None   Action = ""
	Undo   Action = "undo"
	Redo   Action = "redo"
	Export Action = "export"
	Reset  Action = "reset"
)

// KeyEvent is a toolkit-neutral key press. Key follows the DOM
// KeyboardEvent.key convention ("z", "Z", "s", "Enter", ...).
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
	// InputFocused is set while a text input has focus.
	InputFocused bool `json:"inputFocused"`
}

// Resolve maps ev to an action. PreventDefault reports whether the host
// should suppress the browser's own handling of the key.
func Resolve(ev KeyEvent) (action Action, preventDefault bool) {
	mod := ev.Ctrl || ev.Meta
	key := strings.ToLower(ev.Key)

	switch {
	case mod && key == "z" && ev.Shift:
		return Redo, true
	case mod && key == "z":
		return Undo, true
	case mod && key == "s":
		return Export, true
	case !mod && ev.Key == "r" && !ev.InputFocused:
		return Reset, false
	}
	return None, false
}
