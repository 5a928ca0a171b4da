package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

func TestPreprocess_Defaults(t *testing.T) {
	img := formPage(40, 20)
	p := Preprocess(img, DefaultPreprocessOptions())

	if p.Scale != 1 {
		t.Errorf("Scale: got %v, want 1", p.Scale)
	}
	if p.Image.Bounds().Dx() != 40 || p.Image.Bounds().Dy() != 20 {
		t.Errorf("dimensions: got %v, want 40x20", p.Image.Bounds())
	}
	r, g, b, _ := p.Image.At(5, 5).RGBA()
	if r != g || g != b {
		t.Errorf("grayscale output has color: (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestPreprocess_Threshold(t *testing.T) {
	img := formPage(20, 20)
	p := Preprocess(img, PreprocessOptions{Grayscale: true, Threshold: 128})

	bounds := p.Image.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := color.GrayModel.Convert(p.Image.At(x, y)).(color.Gray).Y
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) not binarized: %d", x, y, v)
			}
		}
	}
}

func TestPreprocess_Contrast(t *testing.T) {
	img := solidPage(10, 10, color.RGBA{100, 100, 100, 255})
	p := Preprocess(img, PreprocessOptions{Contrast: 0.5})

	v := color.GrayModel.Convert(p.Image.At(0, 0)).(color.Gray).Y
	if v >= 100 {
		t.Errorf("contrast boost should darken a dark gray, got %d", v)
	}
}

func TestPreprocess_Upscale(t *testing.T) {
	img := solidPage(100, 50, color.White)
	p := Preprocess(img, PreprocessOptions{MinHeight: 100})

	if p.Scale != 2 {
		t.Errorf("Scale: got %v, want 2", p.Scale)
	}
	if p.Image.Bounds().Dx() != 200 || p.Image.Bounds().Dy() != 100 {
		t.Errorf("dimensions: got %v, want 200x100", p.Image.Bounds())
	}
}

func TestPreprocess_TallPageNotResized(t *testing.T) {
	img := solidPage(10, 300, color.White)
	p := Preprocess(img, PreprocessOptions{MinHeight: 100})
	if p.Scale != 1 || p.Image.Bounds().Dy() != 300 {
		t.Errorf("page should be untouched, got scale %v bounds %v", p.Scale, p.Image.Bounds())
	}
}

func TestPreprocess_ZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 25, 15))
	p := Preprocess(img, PreprocessOptions{})
	if p.Image.Bounds().Min != (image.Point{}) {
		t.Errorf("origin: got %v, want (0,0)", p.Image.Bounds().Min)
	}
}

func TestPrepared_ToSource(t *testing.T) {
	p := Prepared{Scale: 2}
	got := p.ToSource(entity.BBox{Left: 10, Top: 21, Right: 31, Bottom: 40})
	want := entity.BBox{Left: 5, Top: 10, Right: 16, Bottom: 20}
	if got != want {
		t.Errorf("ToSource: got %v, want %v", got, want)
	}

	identity := Prepared{Scale: 1}
	box := entity.BBox{Left: 1, Top: 2, Right: 3, Bottom: 4}
	if identity.ToSource(box) != box {
		t.Error("ToSource with scale 1 should not move the box")
	}
}
