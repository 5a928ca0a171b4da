package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlankText is returned by NewWordRecord for empty or whitespace-only text.
	ErrBlankText = errors.New("word text is blank")

	// ErrNegativeLine is returned by NewWordRecord for a line index below zero.
	ErrNegativeLine = errors.New("line index is negative")
)

// WordRecord is one labeled OCR word.
type WordRecord struct {
	Text      string `json:"text"`
	BBox      BBox   `json:"bbox"`
	LineIndex int    `json:"line_index"`
	Label     string `json:"label"`
}

// NewWordRecord validates and builds a word record.
func NewWordRecord(text string, box BBox, lineIndex int, label string) (WordRecord, error) {
	if strings.TrimSpace(text) == "" {
		return WordRecord{}, ErrBlankText
	}
	if lineIndex < 0 {
		return WordRecord{}, fmt.Errorf("%w: %d", ErrNegativeLine, lineIndex)
	}
	if !box.Valid() {
		return WordRecord{}, fmt.Errorf("%w: %s", ErrMalformedBBox, box)
	}
	return WordRecord{Text: text, BBox: box, LineIndex: lineIndex, Label: label}, nil
}

// Blank reports whether the word has no visible text.
func (w WordRecord) Blank() bool {
	return strings.TrimSpace(w.Text) == ""
}
