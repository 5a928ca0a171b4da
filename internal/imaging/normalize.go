package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// ModelScale is the coordinate range layout models expect for word boxes.
const ModelScale = 1000

// ToRGB returns an opaque, zero-origin NRGBA copy of img. Transparent areas
// are composited over white, which is what a scanner would have produced.
func ToRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

// NormalizeBox maps a pixel box on a width x height page into 0..1000 space,
// truncating and clamping each coordinate.
func NormalizeBox(b entity.BBox, width, height int) [4]int {
	if width <= 0 || height <= 0 {
		return [4]int{}
	}
	scale := func(v, size int) int {
		n := int(float64(v) / float64(size) * ModelScale)
		if n < 0 {
			return 0
		}
		if n > ModelScale {
			return ModelScale
		}
		return n
	}
	return [4]int{
		scale(b.Left, width),
		scale(b.Top, height),
		scale(b.Right, width),
		scale(b.Bottom, height),
	}
}
