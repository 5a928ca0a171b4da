package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// writePage encodes a page into a temp file named name and returns its path.
func writePage(t *testing.T, name string, encode func(io.Writer) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create page file: %v", err)
	}
	defer f.Close()
	if err := encode(f); err != nil {
		t.Fatalf("failed to encode page: %v", err)
	}
	return path
}

func pngPage(t *testing.T, img image.Image) string {
	t.Helper()
	return writePage(t, "page.png", func(w io.Writer) error { return png.Encode(w, img) })
}

// halfTransparent is inked on the left half and transparent on the right.
func halfTransparent(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width/2; x++ {
			img.Set(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}
	return img
}

// vp8lHeader is a lossless WebP container whose bitstream stops after the
// 3x2 size header. It is enough for format sniffing and DecodeConfig.
var vp8lHeader = []byte{
	'R', 'I', 'F', 'F', 18, 0, 0, 0, 'W', 'E', 'B', 'P',
	'V', 'P', '8', 'L', 5, 0, 0, 0,
	0x2f, 0x02, 0x40, 0x00, 0x00, 0x00,
}

func TestImageCache_LoadNormalizesPages(t *testing.T) {
	scan := formPage(40, 30)
	paletted := image.NewPaletted(image.Rect(0, 0, 40, 30), color.Palette{color.White, color.Black})
	paletted.SetColorIndex(3, 3, 1)

	tests := []struct {
		name   string
		encode func(io.Writer) error
		format string
	}{
		{"png with alpha", func(w io.Writer) error { return png.Encode(w, halfTransparent(40, 30)) }, "png"},
		{"jpeg scan", func(w io.Writer) error { return jpeg.Encode(w, scan, &jpeg.Options{Quality: 95}) }, "jpeg"},
		{"gif palette", func(w io.Writer) error { return gif.Encode(w, paletted, nil) }, "gif"},
		{"bmp scan", func(w io.Writer) error { return bmp.Encode(w, scan) }, "bmp"},
		{"tiff scan", func(w io.Writer) error { return tiff.Encode(w, scan, nil) }, "tiff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The extension is deliberately meaningless.
			path := writePage(t, "upload.bin", tt.encode)
			cache := NewImageCache()

			img, err := cache.Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			rgb, ok := img.(*image.NRGBA)
			if !ok {
				t.Fatalf("cached page is %T, want *image.NRGBA", img)
			}
			if rgb.Bounds() != image.Rect(0, 0, 40, 30) {
				t.Errorf("bounds: got %v, want (0,0)-(40,30)", rgb.Bounds())
			}
			for _, p := range []image.Point{{0, 0}, {39, 29}, {20, 15}} {
				if a := rgb.NRGBAAt(p.X, p.Y).A; a != 255 {
					t.Errorf("pixel %v alpha: got %d, want 255", p, a)
				}
			}

			info, err := LoadImageInfo(cache, path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
		})
	}
}

func TestImageCache_TransparentAreasBecomePaper(t *testing.T) {
	cache := NewImageCache()
	img, err := cache.Load(pngPage(t, halfTransparent(20, 10)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rgb := img.(*image.NRGBA)

	if got := rgb.NRGBAAt(15, 5); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("transparent side: got %v, want white", got)
	}
	if got := rgb.NRGBAAt(2, 5); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("inked side: got %v, want black", got)
	}
}

func TestDecodeConfig_WebPRegistered(t *testing.T) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(vp8lHeader))
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if format != "webp" {
		t.Errorf("format: got %s, want webp", format)
	}
	if cfg.Width != 3 || cfg.Height != 2 {
		t.Errorf("size: got %dx%d, want 3x2", cfg.Width, cfg.Height)
	}
}

func TestImageCache_Lifecycle(t *testing.T) {
	cache := NewImageCache()
	path := pngPage(t, formPage(30, 20))

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	again, _ := cache.Load(path)
	if first != again {
		t.Error("second Load did not return the cached page")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}

	cache.Evict(path)
	cache.Evict("/never/loaded.png")
	if cache.Len() != 0 {
		t.Errorf("Len after Evict: got %d, want 0", cache.Len())
	}
	reloaded, err := cache.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded == first {
		t.Error("Evict should force a fresh decode")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", cache.Len())
	}
	cache.mu.RLock()
	formats := len(cache.formats)
	cache.mu.RUnlock()
	if formats != 0 {
		t.Errorf("Clear left %d format entries", formats)
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load should fail for a missing page")
	}

	pdf := writePage(t, "scan.png", func(w io.Writer) error {
		_, err := io.WriteString(w, "%PDF-1.7\n1 0 obj\n")
		return err
	})
	_, err := cache.Load(pdf)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads must not be cached, Len=%d", cache.Len())
	}
}

func TestImageCache_ConcurrentPages(t *testing.T) {
	cache := NewImageCache()
	paths := []string{
		pngPage(t, formPage(30, 20)),
		pngPage(t, solidPage(10, 40, color.White)),
		pngPage(t, halfTransparent(16, 16)),
	}

	var wg sync.WaitGroup
	errs := make(chan error, 60)
	for i := 0; i < 60; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			if _, err := cache.Load(paths[i%len(paths)]); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
	if cache.Len() != len(paths) {
		t.Errorf("Len: got %d, want %d", cache.Len(), len(paths))
	}
}

func TestLoadImageInfo_FileSize(t *testing.T) {
	cache := NewImageCache()
	path := pngPage(t, formPage(64, 48))

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	stat, _ := os.Stat(path)
	if info.FileSizeBytes != stat.Size() {
		t.Errorf("FileSizeBytes: got %d, want %d", info.FileSizeBytes, stat.Size())
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("size: got %dx%d, want 64x48", info.Width, info.Height)
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()

	dims, err := GetDimensions(cache, pngPage(t, solidPage(300, 200, color.White)))
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("size: got %dx%d, want 300x200", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, "/nonexistent/page.png"); err == nil {
		t.Error("GetDimensions should fail for a missing page")
	}
}
