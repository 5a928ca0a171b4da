package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docparse-mcp dev")
	assert.Contains(t, out, "Git commit: unknown")
}

const wordsJSON = `[
  {"text": "Invoice", "bbox": [0, 0, 50, 10], "line_index": 0, "label": "B-HEADER"},
  {"text": "Number", "bbox": [55, 0, 100, 10], "line_index": 0, "label": "I-HEADER"},
  {"text": "12345", "bbox": [0, 20, 40, 30], "line_index": 1, "label": "B-ANSWER"}
]`

func TestGroupCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(wordsJSON), 0o644))

	out, err := run(t, "", "group", path)
	require.NoError(t, err)

	var got map[string][]struct {
		Text string `json:"text"`
		BBox []int  `json:"bbox"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got["HEADER"], 1)
	assert.Equal(t, "Invoice Number", got["HEADER"][0].Text)
	assert.Equal(t, []int{0, 0, 100, 10}, got["HEADER"][0].BBox)
	assert.Equal(t, "12345", got["ANSWER"][0].Text)
}

func TestGroupCmd_StdinFlat(t *testing.T) {
	in := `[
	  {"text": "a", "bbox": [0, 0, 10, 10], "line_index": 0, "label": "NAME"},
	  {"text": "b", "bbox": [12, 0, 20, 10], "line_index": 0, "label": "NAME"}
	]`
	out, err := run(t, in, "group", "-", "--convention", "flat")
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "a b"`)
}

func TestGroupCmd_Errors(t *testing.T) {
	_, err := run(t, "not json", "group", "-")
	assert.ErrorContains(t, err, "decoding words")

	_, err = run(t, "[]", "group", "-", "--convention", "bio")
	assert.Error(t, err)

	_, err = run(t, "", "group")
	assert.Error(t, err)
}

func TestParseCmd_BadFormat(t *testing.T) {
	_, err := run(t, "", "parse", "page.png", "--format", "pdf")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestFunsdConvertCmd(t *testing.T) {
	in := t.TempDir()
	for _, split := range []string{"training", "testing"} {
		dir := filepath.Join(in, split+"_data", "annotations")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "0001.json"), []byte(`{"form": []}`), 0o644))
	}
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "", "funsd", "convert", in, outDir)
	require.NoError(t, err)
	assert.Equal(t, "Converted 1 training documents\nConverted 1 testing documents\n", out)
	assert.FileExists(t, filepath.Join(outDir, "training.json"))
}

func TestApp_GroupingOptionsDoNotShareBacking(t *testing.T) {
	backing := make([]entity.Option, 1, 4)
	backing[0] = entity.WithOutsideLabels("O")
	a := &app{grouping: backing[:1], conv: entity.Flat}

	flat := a.groupingOptions()
	a.conv = entity.IOB
	iob := a.groupingOptions()

	require.Len(t, flat, 2)
	require.Len(t, iob, 2)
	assert.Nil(t, backing[:2][1], "configured options must not be appended in place")

	words := []entity.WordRecord{
		{Text: "Invoice", BBox: entity.BBox{Left: 0, Top: 0, Right: 10, Bottom: 10}, Label: "B-X"},
		{Text: "No.", BBox: entity.BBox{Left: 12, Top: 0, Right: 20, Bottom: 10}, Label: "B-X"},
	}
	_, flatReport := entity.New(flat...).Group(words)
	_, iobReport := entity.New(iob...).Group(words)
	assert.Equal(t, entity.Flat, flatReport.Convention)
	assert.Equal(t, entity.IOB, iobReport.Convention)
}
