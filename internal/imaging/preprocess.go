package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// PreprocessOptions controls the cleanup applied to a page before OCR.
type PreprocessOptions struct {
	// Grayscale converts the page to luminance before any other step.
	Grayscale bool `mapstructure:"grayscale" json:"grayscale"`

	// Contrast is a bild contrast change in [-1, 1]. Zero leaves the page untouched.
	Contrast float64 `mapstructure:"contrast" json:"contrast"`

	// Threshold binarizes the page at this level (1..255). Zero disables it.
	Threshold uint8 `mapstructure:"threshold" json:"threshold"`

	// MinHeight upscales pages shorter than this many pixels. Zero disables it.
	MinHeight int `mapstructure:"min_height" json:"min_height"`
}

// DefaultPreprocessOptions returns the cleanup used when nothing is configured:
// grayscale only, which helps Tesseract on colored forms without moving any pixel.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{Grayscale: true}
}

// Prepared is a page ready for OCR along with the factor it was scaled by.
type Prepared struct {
	Image image.Image
	Scale float64
}

// ToSource maps a box found on the prepared page back to source pixel space.
func (p Prepared) ToSource(b entity.BBox) entity.BBox {
	if p.Scale == 0 || p.Scale == 1 {
		return b
	}
	inv := 1 / p.Scale
	return entity.BBox{
		Left:   int(math.Floor(float64(b.Left) * inv)),
		Top:    int(math.Floor(float64(b.Top) * inv)),
		Right:  int(math.Ceil(float64(b.Right) * inv)),
		Bottom: int(math.Ceil(float64(b.Bottom) * inv)),
	}
}

// Preprocess applies opts to img. The result always has a zero origin.
func Preprocess(img image.Image, opts PreprocessOptions) Prepared {
	var out image.Image = ToRGB(img)

	if opts.Grayscale {
		out = effect.Grayscale(out)
	}
	if opts.Contrast != 0 {
		out = adjust.Contrast(out, clampUnit(opts.Contrast))
	}
	if opts.Threshold > 0 {
		out = segment.Threshold(out, opts.Threshold)
	}

	scale := 1.0
	h := out.Bounds().Dy()
	if opts.MinHeight > 0 && h > 0 && h < opts.MinHeight {
		scale = float64(opts.MinHeight) / float64(h)
		w := int(math.Round(float64(out.Bounds().Dx()) * scale))
		out = imaging.Resize(out, w, opts.MinHeight, imaging.Lanczos)
	}

	return Prepared{Image: out, Scale: scale}
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
