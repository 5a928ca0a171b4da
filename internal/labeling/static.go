package labeling

import (
	"context"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// StaticLabeler returns fixed labels by word index. Words without an entry
// get Default, or "O" when Default is empty.
type StaticLabeler struct {
	Labels  map[int]string
	Default string
}

// NewStaticLabeler labels words in order with the given labels.
func NewStaticLabeler(labels ...string) *StaticLabeler {
	m := make(map[int]string, len(labels))
	for i, l := range labels {
		m[i] = l
	}
	return &StaticLabeler{Labels: m}
}

func (s *StaticLabeler) Label(ctx context.Context, page Page) (*Labels, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def := s.Default
	if def == "" {
		def = "O"
	}
	words := records(page.Words, func(i int) (string, bool) {
		if l, ok := s.Labels[i]; ok {
			return l, true
		}
		return def, true
	})

	vocab := make([]string, 0, len(words))
	seen := make(map[string]bool)
	for _, w := range words {
		if !seen[w.Label] {
			seen[w.Label] = true
			vocab = append(vocab, w.Label)
		}
	}
	// Fixed label sets are small; let the grouper decide from the words.
	return &Labels{Words: words, Vocabulary: vocab, Convention: entity.Auto}, nil
}

func (s *StaticLabeler) Info(ctx context.Context) (ModelInfo, error) {
	return ModelInfo{Loaded: true, Device: "static", Model: "static"}, nil
}

var _ Labeler = (*StaticLabeler)(nil)
