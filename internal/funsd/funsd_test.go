package funsd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

const sampleAnnotation = `{
  "form": [
    {"id": 0, "label": "question", "text": "Date:", "words": [
      {"text": "Date:", "box": [10, 10, 50, 22]}
    ]},
    {"id": 1, "label": "answer", "text": "March 3", "words": [
      {"text": "March", "box": [60, 12, 100, 24]},
      {"text": "3", "box": [104, 12, 112, 24]}
    ]},
    {"id": 2, "label": "other", "text": "Page 1", "words": [
      {"text": "Page", "box": [10, 50, 40, 62]},
      {"text": "1", "box": [44, 50, 50, 62]}
    ]}
  ]
}`

func sample(t *testing.T) *Annotation {
	t.Helper()
	var a Annotation
	require.NoError(t, json.Unmarshal([]byte(sampleAnnotation), &a))
	return &a
}

func TestAnnotation_Document(t *testing.T) {
	doc := sample(t).Document("0001", "/data/images/0001.png")

	assert.Equal(t, "0001", doc.ID)
	assert.Equal(t, []string{"Date:", "March", "3", "Page", "1"}, doc.Words)
	assert.Equal(t, []string{"question", "answer", "answer", "other", "other"}, doc.Labels)
	assert.Equal(t, [4]int{60, 12, 100, 24}, doc.Boxes[1])
	assert.Equal(t, "/data/images/0001.png", doc.ImagePath)
}

func TestAnnotation_DocumentEmpty(t *testing.T) {
	doc := (&Annotation{}).Document("empty", "")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"empty","words":[],"bboxes":[],"labels":[],"image_path":""}`, string(data))
}

func TestAnnotation_WordRecordsIOB(t *testing.T) {
	records := sample(t).WordRecords(entity.IOB)
	require.Len(t, records, 5)

	labels := make([]string, len(records))
	lines := make([]int, len(records))
	for i, r := range records {
		labels[i] = r.Label
		lines[i] = r.LineIndex
	}
	assert.Equal(t, []string{"B-QUESTION", "B-ANSWER", "I-ANSWER", "O", "O"}, labels)
	assert.Equal(t, []int{0, 0, 0, 1, 1}, lines)
}

func TestAnnotation_WordRecordsFlat(t *testing.T) {
	records := sample(t).WordRecords(entity.Flat)
	assert.Equal(t, "QUESTION", records[0].Label)
	assert.Equal(t, "ANSWER", records[2].Label)
	assert.Equal(t, "O", records[4].Label)
}

func TestAnnotation_WordRecordsGroup(t *testing.T) {
	c, _ := entity.New().Group(sample(t).WordRecords(entity.IOB))

	require.Len(t, c["QUESTION"], 1)
	require.Len(t, c["ANSWER"], 1)
	assert.Equal(t, "March 3", c["ANSWER"][0].Text)
	assert.Equal(t, entity.BBox{Left: 60, Top: 12, Right: 112, Bottom: 24}, c["ANSWER"][0].BBox)
	assert.NotContains(t, c, "OTHER")
}

func TestAssignLines(t *testing.T) {
	records := []entity.WordRecord{
		{Text: "low", BBox: entity.BBox{Left: 0, Top: 100, Right: 10, Bottom: 110}},
		{Text: "top", BBox: entity.BBox{Left: 0, Top: 0, Right: 10, Bottom: 10}},
		{Text: "slightly-lower", BBox: entity.BBox{Left: 20, Top: 4, Right: 30, Bottom: 14}},
		{Text: "barely-touching", BBox: entity.BBox{Left: 40, Top: 10, Right: 50, Bottom: 20}},
	}
	assignLines(records)

	assert.Equal(t, 2, records[0].LineIndex)
	assert.Equal(t, 0, records[1].LineIndex)
	assert.Equal(t, 0, records[2].LineIndex)
	assert.Equal(t, 1, records[3].LineIndex)
}

func writeSplit(t *testing.T, root, split string, files map[string]string) {
	t.Helper()
	annDir := filepath.Join(root, split+"_data", "annotations")
	require.NoError(t, os.MkdirAll(annDir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(annDir, name), []byte(body), 0o644))
	}
}

func TestConvertDir(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "processed")
	writeSplit(t, in, "training", map[string]string{
		"b.json":    sampleAnnotation,
		"a.json":    `{"form": []}`,
		"notes.txt": "ignored",
	})
	writeSplit(t, in, "testing", map[string]string{"c.json": sampleAnnotation})

	counts, err := ConvertDir(in, out)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"training": 2, "testing": 1}, counts)

	data, err := os.ReadFile(filepath.Join(out, "training.json"))
	require.NoError(t, err)
	var docs []Document
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, filepath.Join(in, "training_data", "images", "b.png"), docs[1].ImagePath)
	assert.Len(t, docs[1].Words, 5)
}

func TestConvertDir_MissingSplit(t *testing.T) {
	in := t.TempDir()
	writeSplit(t, in, "training", map[string]string{"a.json": sampleAnnotation})

	counts, err := ConvertDir(in, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, 1, counts["training"])
}

func TestReadAnnotation_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := ReadAnnotation(path)
	assert.ErrorContains(t, err, "bad.json")
}
