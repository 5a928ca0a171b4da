// Package labeling assigns token-classification labels to OCR words.
//
// The layout model itself runs outside this process. HTTPLabeler talks to it
// over JSON; StaticLabeler serves fixed labels for tests and offline runs.
package labeling

import (
	"context"
	"image"

	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/ocr"
)

// Page is one document page handed to a Labeler.
type Page struct {
	Image image.Image
	Words []ocr.Word
}

// Labels is the labeled word sequence for a page.
//
// Words keeps OCR order. Words the model gave no prediction for (for example
// because the page was truncated to the model's sequence limit) are absent.
type Labels struct {
	Words      []entity.WordRecord
	Vocabulary []string
	Convention entity.Convention
}

// ModelInfo reports the state of the labeling model.
type ModelInfo struct {
	Loaded bool   `json:"model_loaded"`
	Device string `json:"device"`
	Model  string `json:"model,omitempty"`
}

// Labeler labels the words of a page.
type Labeler interface {
	Label(ctx context.Context, page Page) (*Labels, error)
	Info(ctx context.Context) (ModelInfo, error)
}

// records builds word records for words, taking labels from labelOf. Words
// for which labelOf reports false are skipped.
func records(words []ocr.Word, labelOf func(i int) (string, bool)) []entity.WordRecord {
	out := make([]entity.WordRecord, 0, len(words))
	for i, w := range words {
		label, ok := labelOf(i)
		if !ok {
			continue
		}
		out = append(out, entity.WordRecord{
			Text:      w.Text,
			BBox:      w.BBox,
			LineIndex: w.LineIndex,
			Label:     label,
		})
	}
	return out
}
