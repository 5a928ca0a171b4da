package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// Config controls how Tesseract is driven.
type Config struct {
	// Language is one or more Tesseract language codes joined by "+", e.g. "eng" or "eng+deu".
	Language string `mapstructure:"language"`

	// PageSegMode is the Tesseract page segmentation mode. 6 assumes a single uniform block.
	PageSegMode int `mapstructure:"page_seg_mode"`

	// MinConfidence drops words whose Tesseract confidence (0-100) is not strictly above it.
	MinConfidence float64 `mapstructure:"min_confidence"`

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string `mapstructure:"tessdata_prefix"`

	// Variables are passed to Tesseract via SetVariable.
	Variables map[string]string `mapstructure:"variables"`
}

// DefaultConfig returns the settings used for form and invoice pages.
func DefaultConfig() Config {
	return Config{
		Language:      "eng",
		PageSegMode:   int(gosseract.PSM_SINGLE_BLOCK),
		MinConfidence: 60,
	}
}

// Word is a recognized word with its page-global line index.
type Word struct {
	Text       string      `json:"text"`
	BBox       entity.BBox `json:"bbox"`
	LineIndex  int         `json:"line_index"`
	Confidence float64     `json:"confidence"`
}

// TextRegion is a recognized word with its location and OCR confidence (0-1).
type TextRegion struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Bounds     entity.BBox `json:"bounds"`
}

// OCRResult contains the full text of an image plus its word regions.
type OCRResult struct {
	FullText string       `json:"full_text"`
	Regions  []TextRegion `json:"regions"`
}

// tesseractClient is the subset of *gosseract.Client used here.
type tesseractClient interface {
	Close() error
	SetTessdataPrefix(prefix string) error
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetVariable(key gosseract.SettableVariable, value string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	GetBoundingBoxesVerbose() ([]gosseract.BoundingBox, error)
	Version() string
}

// Engine extracts words from page images. It creates a fresh Tesseract client
// per call, so one Engine may be shared across goroutines.
type Engine struct {
	cfg       Config
	newClient func() tesseractClient
}

// NewEngine returns an Engine backed by the native Tesseract library.
func NewEngine(cfg Config) *Engine {
	return newEngine(cfg, func() tesseractClient { return gosseract.NewClient() })
}

func newEngine(cfg Config, factory func() tesseractClient) *Engine {
	def := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	return &Engine{cfg: cfg, newClient: factory}
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// prepare configures a client and loads img into it. The caller closes the client.
func (e *Engine) prepare(img image.Image) (tesseractClient, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := e.newClient()
	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(e.cfg.Language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if e.cfg.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	for k, v := range e.cfg.Variables {
		if err := client.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set variable %s: %w", k, err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return client, nil
}

// ExtractWords runs OCR on img and returns the words that pass the confidence
// filter, with boxes in img's pixel coordinates.
func (e *Engine) ExtractWords(ctx context.Context, img image.Image) ([]Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := e.prepare(img)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return collectWords(boxes, e.cfg.MinConfidence, img.Bounds().Min), nil
}

// lineKey identifies a Tesseract line; line numbers restart in every paragraph.
type lineKey struct {
	block, par, line int
}

// collectWords filters boxes and assigns page-global line indexes in order of
// first appearance of each (block, paragraph, line) triple. Boxes are shifted
// by origin because Tesseract reports them relative to the encoded image.
func collectWords(boxes []gosseract.BoundingBox, minConfidence float64, origin image.Point) []Word {
	lines := make(map[lineKey]int)
	words := make([]Word, 0, len(boxes))

	for _, box := range boxes {
		if box.Confidence <= minConfidence || strings.TrimSpace(box.Word) == "" {
			continue
		}
		key := lineKey{box.BlockNum, box.ParNum, box.LineNum}
		idx, ok := lines[key]
		if !ok {
			idx = len(lines)
			lines[key] = idx
		}
		words = append(words, Word{
			Text: box.Word,
			BBox: entity.BBox{
				Left:   box.Box.Min.X + origin.X,
				Top:    box.Box.Min.Y + origin.Y,
				Right:  box.Box.Max.X + origin.X,
				Bottom: box.Box.Max.Y + origin.Y,
			},
			LineIndex:  idx,
			Confidence: box.Confidence / 100.0,
		})
	}
	return words
}

// ExtractText performs OCR on an entire image and returns the recognized text
// along with every word region, unfiltered by confidence.
func (e *Engine) ExtractText(ctx context.Context, img image.Image) (*OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := e.prepare(img)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	// Word boxes are best effort; the text alone is still useful.
	boxes, err := client.GetBoundingBoxesVerbose()
	regions := make([]TextRegion, 0, len(boxes))
	if err == nil {
		for _, w := range collectWords(boxes, -1, img.Bounds().Min) {
			regions = append(regions, TextRegion{Text: w.Text, Confidence: w.Confidence, Bounds: w.BBox})
		}
	}

	return &OCRResult{FullText: text, Regions: regions}, nil
}

// ExtractTextFromRegion crops region out of img, runs OCR on it and maps the
// word boxes back to img's coordinates.
func (e *Engine) ExtractTextFromRegion(ctx context.Context, img image.Image, region entity.BBox) (*OCRResult, error) {
	bounds := img.Bounds()
	rect := image.Rect(region.Left, region.Top, region.Right, region.Bottom).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("region %s does not intersect image bounds %v", region, bounds)
	}

	cropped := imaging.Crop(img, rect)
	result, err := e.ExtractText(ctx, cropped)
	if err != nil {
		return nil, err
	}

	dx, dy := rect.Min.X, rect.Min.Y
	for i := range result.Regions {
		b := &result.Regions[i].Bounds
		b.Left += dx
		b.Right += dx
		b.Top += dy
		b.Bottom += dy
	}
	return result, nil
}

// OCRInfo contains information about the OCR subsystem.
type OCRInfo struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	Language     string `json:"language"`
	TessdataPath string `json:"tessdata_path,omitempty"`
}

// Info reports whether Tesseract can be initialized with the configured language.
func (e *Engine) Info() OCRInfo {
	info := OCRInfo{
		Backend:      "gosseract",
		Language:     e.cfg.Language,
		TessdataPath: e.cfg.TessdataPrefix,
	}

	client := e.newClient()
	defer client.Close()

	info.Version = client.Version()
	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			info.Error = err.Error()
			return info
		}
	}
	if err := client.SetLanguage(strings.Split(e.cfg.Language, "+")...); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = info.Version != ""
	return info
}
