package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// OverlayOptions controls how grouped entities are drawn onto a page.
type OverlayOptions struct {
	// Colors overrides the generated color for an entity type. Values are hex
	// strings like "#FF0000"; unparseable values fall back to the generated color.
	Colors map[string]string

	// Stroke is the box outline width in pixels. Values below 1 mean 2.
	Stroke int

	// ShowLabels draws the entity type above each box.
	ShowLabels bool
}

// LegendEntry describes the color used for one entity type.
type LegendEntry struct {
	Type  string `json:"type"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// OverlayResult contains the annotated page image.
type OverlayResult struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	ImageBase64 string        `json:"image_base64"`
	MimeType    string        `json:"mime_type"`
	Legend      []LegendEntry `json:"legend"`
}

// TypeColor returns the stable display color for an entity type. The hue is
// derived from the type name so the same type gets the same color on every page.
func TypeColor(typ string) colorful.Color {
	h := fnv.New32a()
	h.Write([]byte(typ))
	hue := float64(h.Sum32()%360)
	return colorful.Hsv(hue, 0.85, 0.9)
}

// RenderEntities draws a box for every entity in c onto a copy of img.
func RenderEntities(img image.Image, c entity.Collection, opts OverlayOptions) (*OverlayResult, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)

	stroke := opts.Stroke
	if stroke < 1 {
		stroke = 2
	}

	types := c.Types()
	legend := make([]LegendEntry, 0, len(types))
	for _, typ := range types {
		col := TypeColor(typ)
		if hex, ok := opts.Colors[typ]; ok {
			if parsed, err := colorful.Hex(hex); err == nil {
				col = parsed
			}
		}
		rgba := toRGBA(col)
		for _, e := range c[typ] {
			drawBox(canvas, e.BBox, stroke, rgba)
			if opts.ShowLabels {
				drawLabel(canvas, e.BBox.Left, e.BBox.Top-2, typ, rgba)
			}
		}
		legend = append(legend, LegendEntry{Type: typ, Color: col.Hex(), Count: len(c[typ])})
	}
	sort.SliceStable(legend, func(i, j int) bool { return legend[i].Type < legend[j].Type })

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Legend:      legend,
	}, nil
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawBox outlines b with the given stroke, clipped to the canvas.
func drawBox(img *image.RGBA, b entity.BBox, stroke int, c color.RGBA) {
	rect := image.Rect(b.Left, b.Top, b.Right, b.Bottom).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+stroke),
		image.Rect(rect.Min.X, rect.Max.Y-stroke, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+stroke, rect.Max.Y),
		image.Rect(rect.Max.X-stroke, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(rect), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text with its baseline at (x, y) on a solid background.
// Labels that would start above the page are moved inside the box.
func drawLabel(img *image.RGBA, x, y int, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	if y-face.Ascent < img.Bounds().Min.Y {
		y = img.Bounds().Min.Y + face.Ascent
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	width := d.MeasureString(text).Ceil()
	back := image.Rect(x, y-face.Ascent, x+width, y+face.Descent).Intersect(img.Bounds())
	draw.Draw(img, back, image.NewUniform(bg), image.Point{}, draw.Src)
	d.DrawString(text)
}
