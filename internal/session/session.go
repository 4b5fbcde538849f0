// Package session ties the editor state, the undo history and the source
// image together. A Session is the single mutable editor instance behind
// every user-facing surface; it is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/photofilter/internal/editor"
	"github.com/MeKo-Tech/photofilter/internal/history"
	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/preset"
	"github.com/MeKo-Tech/photofilter/internal/render"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = errors.New("no image loaded")

// Config configures a Session.
type Config struct {
	Presets      preset.Table
	Export       imageio.Options
	HistoryLimit int
	Logger       *slog.Logger
}

// Session is one editing session.
type Session struct {
	source  image.Image
	name    string
	state   editor.State
	history *history.History
	presets preset.Table
	export  imageio.Options
	logger  *slog.Logger
}

// New creates an empty session. A nil preset table selects the embedded
// defaults, a zero export format selects imageio.DefaultOptions.
func New(cfg Config) *Session {
	presets := cfg.Presets
	if presets == nil {
		presets = preset.Default()
	}
	export := cfg.Export
	if export.Format == "" {
		export = imageio.DefaultOptions()
	}

	return &Session{
		state:   editor.Default(),
		history: history.New(cfg.HistoryLimit),
		presets: presets,
		export:  export,
		logger:  cfg.Logger,
	}
}

func (s *Session) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Load replaces the source image, resets the state to the defaults and
// starts a fresh history containing only the initial state. The initial
// state takes one of the history slots, so it stays reachable through up
// to history.MaxEntries-1 edits.
func (s *Session) Load(img image.Image, name string) error {
	if img == nil {
		return fmt.Errorf("failed to load image: %w", render.ErrNilSource)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("failed to load image: %w", render.ErrEmptySource)
	}

	s.source = img
	s.name = name
	s.state = editor.Default()
	s.history.Reset()
	s.history.Record(s.state)

	s.log().Debug("Image loaded", "name", name, "width", b.Dx(), "height", b.Dy())
	return nil
}

// HasImage reports whether an image has been loaded.
func (s *Session) HasImage() bool { return s.source != nil }

// Name returns the name the current image was loaded with.
func (s *Session) Name() string { return s.name }

// Source returns the untouched source image, or nil.
func (s *Session) Source() image.Image { return s.source }

// State returns a copy of the current editor state.
func (s *Session) State() editor.State { return s.state.Clone() }

// Presets returns the session's preset table.
func (s *Session) Presets() preset.Table { return s.presets }

// SetFilter is live slider input: the value is clamped into range and
// applied without touching the history.
func (s *Session) SetFilter(f editor.Filter, v float64) error {
	if _, ok := editor.Meta[f]; !ok {
		return fmt.Errorf("%w: %q", editor.ErrUnknownFilter, f)
	}
	s.state.Filters.Set(f, f.Clamp(v))
	return nil
}

// Commit records the current state, as on slider release. A release that
// left the state unchanged records nothing and reports false.
func (s *Session) Commit() bool {
	if cur, ok := s.history.Current(); ok && cur == s.state {
		return false
	}
	s.record()
	return true
}

// AdjustFilter is SetFilter followed by Commit.
func (s *Session) AdjustFilter(f editor.Filter, v float64) error {
	if err := s.SetFilter(f, v); err != nil {
		return err
	}
	s.Commit()
	return nil
}

// RotateLeft turns the image 90 degrees counter-clockwise.
func (s *Session) RotateLeft() {
	s.state.Transform.RotateLeft()
	s.record()
}

// RotateRight turns the image 90 degrees clockwise.
func (s *Session) RotateRight() {
	s.state.Transform.RotateRight()
	s.record()
}

// FlipHorizontal mirrors the image horizontally.
func (s *Session) FlipHorizontal() {
	s.state.Transform.FlipHorizontal()
	s.record()
}

// FlipVertical mirrors the image vertically.
func (s *Session) FlipVertical() {
	s.state.Transform.FlipVertical()
	s.record()
}

// Reset restores the default filters and transform.
func (s *Session) Reset() {
	s.state = editor.Default()
	s.record()
}

// ApplyPreset merges the named preset into the filters. Unknown names are a
// no-op and report false.
func (s *Session) ApplyPreset(name string) bool {
	if !s.presets.Apply(name, &s.state.Filters) {
		s.log().Debug("Unknown preset ignored", "preset", name)
		return false
	}
	s.record()
	return true
}

// Undo steps back one snapshot. It reports false at the oldest snapshot.
func (s *Session) Undo() bool {
	st, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.apply(st)
	return true
}

// Redo steps forward one snapshot. It reports false at the newest snapshot.
func (s *Session) Redo() bool {
	st, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.apply(st)
	return true
}

// CanUndo reports whether Undo would change the state.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change the state.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// HistoryLen returns the number of recorded snapshots.
func (s *Session) HistoryLen() int { return s.history.Len() }

// Render draws the current state from the source image.
func (s *Session) Render() (*image.NRGBA, error) {
	if s.source == nil {
		return nil, ErrNoImage
	}
	return render.Render(s.source, s.state)
}

// Preview renders the current state scaled to fit maxSize.
func (s *Session) Preview(maxSize int) (*image.NRGBA, error) {
	if s.source == nil {
		return nil, ErrNoImage
	}
	return render.Preview(s.source, s.state, maxSize)
}

// Export renders the current state and encodes it with the session's export
// options. Without an image it returns ErrNoImage and changes nothing.
func (s *Session) Export(w io.Writer) error {
	return s.ExportWith(w, s.export)
}

// ExportWith is Export with explicit encoder options.
func (s *Session) ExportWith(w io.Writer, opts imageio.Options) error {
	if s.source == nil {
		s.log().Warn("Export requested without an image")
		return ErrNoImage
	}
	img, err := render.Render(s.source, s.state)
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}
	if err := imageio.Encode(w, img, opts); err != nil {
		return fmt.Errorf("failed to export image: %w", err)
	}
	return nil
}

// record pushes the current state onto the history.
func (s *Session) record() {
	s.history.Record(s.state)
}

// apply installs a history snapshot without recording it.
func (s *Session) apply(st editor.State) {
	s.state = st.Clone()
}
