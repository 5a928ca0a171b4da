// Package funsd reads FUNSD form annotations and turns them into labeled
// word records or the flat per-document layout used for model training.
package funsd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// OtherLabel is the FUNSD label for words outside any field.
const OtherLabel = "other"

// Splits are the dataset partitions, each under "<split>_data".
var Splits = []string{"training", "testing"}

// Annotation is one FUNSD annotation file.
type Annotation struct {
	Form []Segment `json:"form"`
}

// Segment is a labeled run of words in the form.
type Segment struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// Word is a single annotated word.
type Word struct {
	Text string `json:"text"`
	Box  [4]int `json:"box"`
}

// Document is one page flattened to parallel word, box and label lists.
type Document struct {
	ID        string   `json:"id"`
	Words     []string `json:"words"`
	Boxes     [][4]int `json:"bboxes"`
	Labels    []string `json:"labels"`
	ImagePath string   `json:"image_path"`
}

// ReadAnnotation decodes the annotation file at path.
func ReadAnnotation(path string) (*Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Annotation
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &a, nil
}

// Document flattens the annotation. Every word carries its segment's label.
func (a *Annotation) Document(id, imagePath string) Document {
	doc := Document{
		ID:        id,
		Words:     []string{},
		Boxes:     [][4]int{},
		Labels:    []string{},
		ImagePath: imagePath,
	}
	for _, seg := range a.Form {
		for _, w := range seg.Words {
			doc.Words = append(doc.Words, w.Text)
			doc.Boxes = append(doc.Boxes, w.Box)
			doc.Labels = append(doc.Labels, seg.Label)
		}
	}
	return doc
}

// WordRecords converts the annotation into grouping input. Under the flat
// convention each word carries the upper-cased segment label; otherwise the
// first word of a segment is tagged B- and the rest I-. Words of "other"
// segments are labeled O. Line indexes come from vertical overlap.
func (a *Annotation) WordRecords(conv entity.Convention) []entity.WordRecord {
	var records []entity.WordRecord
	for _, seg := range a.Form {
		typ := strings.ToUpper(strings.TrimSpace(seg.Label))
		for i, w := range seg.Words {
			label := "O"
			switch {
			case typ == "" || strings.EqualFold(typ, OtherLabel):
			case conv == entity.Flat:
				label = typ
			case i == 0:
				label = "B-" + typ
			default:
				label = "I-" + typ
			}
			records = append(records, entity.WordRecord{
				Text:  w.Text,
				BBox:  entity.BBox{Left: w.Box[0], Top: w.Box[1], Right: w.Box[2], Bottom: w.Box[3]},
				Label: label,
			})
		}
	}
	assignLines(records)
	return records
}

type band struct {
	top, bottom int
}

// assignLines gives words that overlap vertically by at least half of the
// shorter height the same line index. Lines are numbered top to bottom.
func assignLines(records []entity.WordRecord) {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return records[order[i]].BBox.Normalize().Top < records[order[j]].BBox.Normalize().Top
	})

	var lines []band
	for _, idx := range order {
		b := records[idx].BBox.Normalize()
		line := -1
		for l := len(lines) - 1; l >= 0; l-- {
			if sameLine(lines[l], b) {
				line = l
				break
			}
		}
		if line < 0 {
			lines = append(lines, band{top: b.Top, bottom: b.Bottom})
			line = len(lines) - 1
		} else {
			lines[line].top = min(lines[line].top, b.Top)
			lines[line].bottom = max(lines[line].bottom, b.Bottom)
		}
		records[idx].LineIndex = line
	}
}

func sameLine(l band, b entity.BBox) bool {
	overlap := min(l.bottom, b.Bottom) - max(l.top, b.Top)
	shorter := min(l.bottom-l.top, b.Height())
	if shorter <= 0 {
		return overlap >= 0
	}
	return overlap*2 >= shorter
}
