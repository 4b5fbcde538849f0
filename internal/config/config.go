// Package config loads and validates the photofilter configuration from
// viper (config file, PHOTOFILTER_ environment variables and bound flags).
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/preset"
)

// Config is the full application configuration.
type Config struct {
	Export  Export  `mapstructure:"export"`
	Presets Presets `mapstructure:"presets"`
	Serve   Serve   `mapstructure:"serve"`
	Batch   Batch   `mapstructure:"batch"`
}

// Export controls how edited images are encoded.
type Export struct {
	Format     string `mapstructure:"format" validate:"oneof=jpeg jpg png"`
	Quality    int    `mapstructure:"quality" validate:"min=1,max=100"`
	Background string `mapstructure:"background" validate:"hexcolor"`
}

// Presets points at an optional preset file merged over the defaults.
type Presets struct {
	File string `mapstructure:"file" validate:"omitempty,file"`
}

// Serve configures the HTTP API.
type Serve struct {
	Addr          string        `mapstructure:"addr" validate:"required"`
	MaxSessions   int           `mapstructure:"max_sessions" validate:"min=1"`
	MaxUpload     string        `mapstructure:"max_upload" validate:"required"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"min=0"`
	PreviewSize   int           `mapstructure:"preview_size" validate:"min=16,max=8192"`
	MaxConcurrent int           `mapstructure:"max_concurrent" validate:"min=1"`
}

// Batch configures the batch command.
type Batch struct {
	Workers int `mapstructure:"workers" validate:"min=0"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("export.format", "jpeg")
	v.SetDefault("export.quality", imageio.DefaultQuality)
	v.SetDefault("export.background", "#000000")
	v.SetDefault("presets.file", "")
	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("serve.max_sessions", 64)
	v.SetDefault("serve.max_upload", "32 MiB")
	v.SetDefault("serve.session_ttl", 30*time.Minute)
	v.SetDefault("serve.preview_size", 1024)
	v.SetDefault("serve.max_concurrent", runtime.NumCPU())
	v.SetDefault("batch.workers", 0)
}

// Load reads the configuration from v, applying defaults for unset keys,
// and validates it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	if _, err := cfg.Serve.MaxUploadBytes(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &cfg, nil
}

// Options converts the export section to encoder options.
func (e Export) Options() (imageio.Options, error) {
	format, err := imageio.ParseFormat(e.Format)
	if err != nil {
		return imageio.Options{}, err
	}
	bg, err := imageio.ParseHexColor(e.Background)
	if err != nil {
		return imageio.Options{}, err
	}
	return imageio.Options{Format: format, Quality: e.Quality, Background: bg}, nil
}

// MaxUploadBytes parses MaxUpload ("32 MiB", "10MB", ...).
func (s Serve) MaxUploadBytes() (int64, error) {
	n, err := humanize.ParseBytes(s.MaxUpload)
	if err != nil {
		return 0, fmt.Errorf("invalid max upload size %q: %w", s.MaxUpload, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid max upload size %q: must be positive", s.MaxUpload)
	}
	return int64(n), nil
}

// PresetTable returns the embedded presets merged with the configured
// preset file, if any.
func (p Presets) PresetTable() (preset.Table, error) {
	table := preset.Default()
	if p.File == "" {
		return table, nil
	}
	custom, err := preset.LoadFile(p.File)
	if err != nil {
		return nil, err
	}
	return table.Merge(custom), nil
}
