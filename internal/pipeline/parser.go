// Package pipeline turns page images into grouped entities.
//
// A Parser is built once at startup and shared. Each Parse call runs
// RGB normalization, OCR preprocessing, word extraction, labeling and
// grouping, in that order, and keeps no state between calls.
package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ironsheep/docparse-mcp/internal/cache"
	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/imaging"
	"github.com/ironsheep/docparse-mcp/internal/labeling"
	"github.com/ironsheep/docparse-mcp/internal/ocr"
)

// WordSource extracts positioned words from a page image.
type WordSource interface {
	ExtractWords(ctx context.Context, img image.Image) ([]ocr.Word, error)
}

// Result is the outcome of parsing one document.
type Result struct {
	DocumentID string            `json:"document_id"`
	Entities   entity.Collection `json:"entities"`
	WordCount  int               `json:"word_count"`
	Convention entity.Convention `json:"convention"`
	Report     entity.Report     `json:"report"`
	Duration   time.Duration     `json:"duration"`
	Cached     bool              `json:"cached"`
}

// Option configures a Parser.
type Option func(*Parser)

// WithPreprocess sets the OCR cleanup steps.
func WithPreprocess(opts imaging.PreprocessOptions) Option {
	return func(p *Parser) { p.preprocess = opts }
}

// WithGrouping sets the grouping options. A convention set here wins over the
// one the labeler reports.
func WithGrouping(opts ...entity.Option) Option {
	return func(p *Parser) { p.grouping = append(p.grouping, opts...) }
}

// WithConvention fixes the label convention. Auto defers to the labeler.
func WithConvention(c entity.Convention) Option {
	return func(p *Parser) { p.convention = c }
}

// WithCache stores results in s for ttl, keyed by the upload digest.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(p *Parser) {
		p.store = s
		p.ttl = ttl
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// Parser runs the document pipeline.
type Parser struct {
	words      WordSource
	labeler    labeling.Labeler
	preprocess imaging.PreprocessOptions
	grouping   []entity.Option
	convention entity.Convention
	store      cache.Store
	ttl        time.Duration
	logger     zerolog.Logger
}

// New returns a Parser reading words from words and labels from labeler.
func New(words WordSource, labeler labeling.Labeler, opts ...Option) *Parser {
	p := &Parser{
		words:      words,
		labeler:    labeler,
		preprocess: imaging.DefaultPreprocessOptions(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Labeler returns the labeler the parser was built with.
func (p *Parser) Labeler() labeling.Labeler {
	return p.labeler
}

// Parse runs the pipeline over an already decoded page.
func (p *Parser) Parse(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()
	id := uuid.NewString()
	log := p.logger.With().Str("document_id", id).Logger()

	rgb := imaging.ToRGB(img)
	prepared := imaging.Preprocess(rgb, p.preprocess)

	words, err := p.words.ExtractWords(ctx, prepared.Image)
	if err != nil {
		return nil, newError(ErrCollaborator, "ocr", err)
	}
	if len(words) == 0 {
		return nil, newError(ErrNoTextDetected, "ocr", nil)
	}
	mapped := make([]ocr.Word, len(words))
	for i, w := range words {
		w.BBox = prepared.ToSource(w.BBox)
		mapped[i] = w
	}
	words = mapped
	log.Debug().Int("words", len(words)).Float64("scale", prepared.Scale).Msg("OCR complete")

	labels, err := p.labeler.Label(ctx, labeling.Page{Image: rgb, Words: words})
	if err != nil {
		return nil, newError(ErrCollaborator, "label", err)
	}

	conv := p.convention
	if conv == entity.Auto {
		conv = labels.Convention
	}
	opts := append(append([]entity.Option(nil), p.grouping...), entity.WithConvention(conv))
	entities, report := entity.New(opts...).Group(labels.Words)

	if report.Words > 0 && report.Rejected == report.Words {
		return nil, newError(ErrMalformedGeometry, "group", nil)
	}

	res := &Result{
		DocumentID: id,
		Entities:   entities,
		WordCount:  len(words),
		Convention: report.Convention,
		Report:     report,
		Duration:   time.Since(start),
	}
	log.Info().
		Int("words", res.WordCount).
		Int("entities", entities.Count()).
		Dur("duration", res.Duration).
		Msg("document parsed")
	return res, nil
}

// ParseBytes decodes an uploaded page and parses it, consulting the cache first.
func (p *Parser) ParseBytes(ctx context.Context, data []byte) (*Result, error) {
	key := cache.Key(data)
	if res, ok := p.cached(ctx, key); ok {
		return res, nil
	}

	img, _, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, newError(ErrInvalidInput, "decode", err)
	}

	res, err := p.Parse(ctx, img)
	if err != nil {
		return nil, err
	}
	p.remember(ctx, key, res)
	return res, nil
}

// ParseFile reads and parses the page image at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrInvalidInput, "read", err)
	}
	return p.ParseBytes(ctx, data)
}

func (p *Parser) cached(ctx context.Context, key string) (*Result, bool) {
	if p.store == nil {
		return nil, false
	}
	data, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		p.logger.Warn().Err(err).Msg("discarding unreadable cache entry")
		return nil, false
	}
	for typ, es := range res.Entities {
		for i := range es {
			es[i].Type = typ
		}
	}
	res.Cached = true
	p.logger.Debug().Str("document_id", res.DocumentID).Msg("cache hit")
	return &res, true
}

func (p *Parser) remember(ctx context.Context, key string, res *Result) {
	if p.store == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		p.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := p.store.Set(ctx, key, data, p.ttl); err != nil {
		p.logger.Warn().Err(err).Msg("cache write failed")
	}
}
