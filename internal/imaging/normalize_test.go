package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

func TestDecodeBytes_Formats(t *testing.T) {
	src := solidPage(40, 30, color.RGBA{10, 20, 30, 255})

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
		format string
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }, "png"},
		{"jpeg", func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) }, "jpeg"},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }, "bmp"},
		{"tiff", func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) }, "tiff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			img, format, err := DecodeBytes(buf.Bytes())
			if err != nil {
				t.Fatalf("DecodeBytes failed: %v", err)
			}
			if format != tt.format {
				t.Errorf("format: got %s, want %s", format, tt.format)
			}
			if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
				t.Errorf("dimensions: got %dx%d, want 40x30", img.Bounds().Dx(), img.Bounds().Dy())
			}
		})
	}
}

func TestDecode_NotAnImage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("%PDF-1.7 not a raster")))
	if err == nil {
		t.Fatal("Decode should fail for non-image data")
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestToRGB_CompositesOverWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 1, color.NRGBA{0, 0, 0, 255})

	out := ToRGB(src)

	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("transparent pixel: got %v, want white", got)
	}
	if got := out.NRGBAAt(1, 1); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("opaque pixel: got %v, want black", got)
	}
}

func TestToRGB_ZeroOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(10, 20, 30, 25))
	out := ToRGB(src)
	if out.Bounds() != image.Rect(0, 0, 20, 5) {
		t.Errorf("bounds: got %v, want (0,0)-(20,5)", out.Bounds())
	}
}

func TestNormalizeBox(t *testing.T) {
	tests := []struct {
		name          string
		box           entity.BBox
		width, height int
		want          [4]int
	}{
		{"quarter", entity.BBox{Left: 50, Top: 25, Right: 100, Bottom: 50}, 200, 100, [4]int{250, 250, 500, 500}},
		{"truncates", entity.BBox{Left: 1, Top: 1, Right: 3, Bottom: 3}, 7, 7, [4]int{142, 142, 428, 428}},
		{"clamps high", entity.BBox{Left: 0, Top: 0, Right: 300, Bottom: 150}, 200, 100, [4]int{0, 0, 1000, 1000}},
		{"clamps low", entity.BBox{Left: -10, Top: -5, Right: 10, Bottom: 5}, 100, 100, [4]int{0, 0, 100, 50}},
		{"empty page", entity.BBox{Left: 1, Top: 1, Right: 2, Bottom: 2}, 0, 100, [4]int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBox(tt.box, tt.width, tt.height); got != tt.want {
				t.Errorf("NormalizeBox: got %v, want %v", got, tt.want)
			}
		})
	}
}
