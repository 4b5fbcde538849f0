// Package imageio decodes user images and encodes edited results for export.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Decoders registered with image.Decode.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/MeKo-Tech/photofilter/internal/composite"
)

// DefaultQuality is the JPEG quality used for export (a 0.8 quality factor).
const DefaultQuality = 80

// DefaultExportName is the file name offered for downloads.
const DefaultExportName = "edited-image.jpg"

// ErrUnsupportedFormat is returned for export formats other than JPEG and PNG.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat resolves a format name or file extension ("jpg", ".png", ...).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks the export format from a file extension. Paths
// without an extension export as JPEG.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return FormatJPEG, nil
	}
	return ParseFormat(ext)
}

// Extension returns the canonical file extension including the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Options controls export encoding.
type Options struct {
	Format  Format
	Quality int
	// Background fills transparent pixels when the format has no alpha.
	Background color.NRGBA
}

// DefaultOptions returns JPEG at quality 80 over a black background.
func DefaultOptions() Options {
	return Options{
		Format:     FormatJPEG,
		Quality:    DefaultQuality,
		Background: color.NRGBA{A: 255},
	}
}

// Decode reads an image in any registered format and returns it together
// with the format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("failed to decode image: empty bounds %v", b)
	}
	return img, format, nil
}

// DecodeFile decodes the image stored at path.
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}

// Encode writes img to w. JPEG output is flattened onto opts.Background.
func Encode(w io.Writer, img image.Image, opts Options) error {
	format := opts.Format
	if format == "" {
		format = FormatJPEG
	}

	switch format {
	case FormatJPEG:
		quality := opts.Quality
		if quality <= 0 {
			quality = DefaultQuality
		}
		if quality > 100 {
			quality = 100
		}
		flat := composite.Flatten(img, opaque(opts.Background))
		if err := jpeg.Encode(w, flat, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}

// EncodeFile encodes img into a new file at path.
func EncodeFile(path string, img image.Image, opts Options) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Encode(bw, img, opts); err != nil {
		return err
	}
	return bw.Flush()
}

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading # is
// optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 255
	return c
}
