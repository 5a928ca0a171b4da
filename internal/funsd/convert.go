package funsd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadSplit reads every annotation of one split under the FUNSD dataset root.
// Documents are ordered by file name.
func LoadSplit(datasetDir, split string) ([]Document, error) {
	imageDir := filepath.Join(datasetDir, split+"_data", "images")
	annDir := filepath.Join(datasetDir, split+"_data", "annotations")

	entries, err := os.ReadDir(annDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s annotations: %w", split, err)
	}

	docs := []Document{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		ann, err := ReadAnnotation(filepath.Join(annDir, e.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, ann.Document(id, filepath.Join(imageDir, id+".png")))
	}
	return docs, nil
}

// ConvertDir converts the training and testing splits under inputDir into
// outputDir/<split>.json and returns the document count per split.
func ConvertDir(inputDir, outputDir string) (map[string]int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	counts := make(map[string]int, len(Splits))
	for _, split := range Splits {
		docs, err := LoadSplit(inputDir, split)
		if err != nil {
			return counts, err
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return counts, err
		}
		out := filepath.Join(outputDir, split+".json")
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return counts, fmt.Errorf("writing %s: %w", out, err)
		}
		counts[split] = len(docs)
		log.Info().Str("split", split).Int("documents", len(docs)).Str("output", out).Msg("converted FUNSD split")
	}
	return counts, nil
}
