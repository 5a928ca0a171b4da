package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one document of a batch.
type BatchItem struct {
	Source string  `json:"source"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// ParseBatch parses the files at paths with at most concurrency parses in
// flight. Documents are independent: one failure does not stop the others.
// Items are returned in the order of paths.
func (p *Parser) ParseBatch(ctx context.Context, paths []string, concurrency int) []BatchItem {
	items := make([]BatchItem, len(paths))
	if concurrency < 1 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, path := range paths {
		items[i].Source = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			items[i].Result, items[i].Err = p.ParseFile(ctx, path)
			return items[i].Err
		})
	}

	// Wait reports the first failure; every item still carries its own.
	if err := g.Wait(); err != nil {
		failed := 0
		for _, it := range items {
			if it.Err != nil {
				failed++
			}
		}
		p.logger.Warn().Err(err).Int("documents", len(paths)).Int("failed", failed).Msg("batch parsed with failures")
		return items
	}
	p.logger.Info().Int("documents", len(paths)).Msg("batch parsed")
	return items
}
