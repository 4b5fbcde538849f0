package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/preset"
	"github.com/MeKo-Tech/photofilter/internal/session"
)

// Options configures a Processor.
type Options struct {
	Recipe  Recipe
	Presets preset.Table
	Export  imageio.Options
	// Force overwrites existing outputs instead of skipping them.
	Force  bool
	Logger *slog.Logger
}

// Processor decodes, edits and re-encodes single files. It is safe for
// concurrent use: every call works on its own session.
type Processor struct {
	logger  *slog.Logger
	presets preset.Table
	recipe  Recipe
	export  imageio.Options
	force   bool
}

// NewProcessor validates the recipe against the preset table and returns a
// processor.
func NewProcessor(opts Options) (*Processor, error) {
	presets := opts.Presets
	if presets == nil {
		presets = preset.Default()
	}
	export := opts.Export
	if export.Format == "" {
		export = imageio.DefaultOptions()
	}

	p := &Processor{
		logger:  opts.Logger,
		presets: presets,
		recipe:  opts.Recipe,
		export:  export,
		force:   opts.Force,
	}
	if err := opts.Recipe.Validate(p.newSession()); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}
	return p, nil
}

func (p *Processor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

func (p *Processor) newSession() *session.Session {
	return session.New(session.Config{
		Presets: p.presets,
		Export:  p.export,
		Logger:  p.logger,
	})
}

// Process applies the recipe to input and writes output. The output format
// follows the output extension. It returns the size of the written file.
func (p *Processor) Process(ctx context.Context, input, output string) (int64, error) {
	if !p.force {
		if info, err := os.Stat(output); err == nil {
			p.log().Info("Output already exists; skipping", "input", input, "output", output)
			return info.Size(), nil
		}
	}

	start := time.Now()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	img, format, err := imageio.DecodeFile(input)
	if err != nil {
		return 0, err
	}

	s := p.newSession()
	if err := s.Load(img, filepath.Base(input)); err != nil {
		return 0, err
	}
	if err := p.recipe.Apply(s); err != nil {
		return 0, fmt.Errorf("failed to apply recipe: %w", err)
	}

	rendered, err := s.Render()
	if err != nil {
		return 0, fmt.Errorf("failed to render %s: %w", input, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	opts := p.export
	opts.Format, err = imageio.FormatFromPath(output)
	if err != nil {
		return 0, err
	}
	if err := imageio.EncodeFile(output, rendered, opts); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", output, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return 0, fmt.Errorf("failed to stat output: %w", err)
	}

	p.log().Debug("Image processed",
		"input", input,
		"input_format", format,
		"output", output,
		"size", humanize.Bytes(uint64(info.Size())),
		"elapsed", time.Since(start))

	return info.Size(), nil
}
