package entity

import (
	"sort"
	"strings"
)

// MalformedPolicy decides what happens to a word whose box is inverted.
type MalformedPolicy int

const (
	// NormalizeMalformed swaps inverted coordinates and keeps the word.
	NormalizeMalformed MalformedPolicy = iota
	// RejectMalformed drops the word as if it were absent from the input.
	RejectMalformed
)

// DefaultOutsideLabels are the labels treated as "not part of any entity":
// the IOB outside tag and the FUNSD "other" class.
var DefaultOutsideLabels = []string{"O", "other"}

// Option configures a Grouper.
type Option func(*Grouper)

// WithConvention fixes the label convention instead of inferring it from the input.
func WithConvention(c Convention) Option {
	return func(g *Grouper) { g.convention = c }
}

// WithOutsideLabels replaces the set of labels that close the open entity.
func WithOutsideLabels(labels ...string) Option {
	return func(g *Grouper) {
		g.outside = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			g.outside[l] = struct{}{}
		}
	}
}

// WithFlatSplitOnBegin makes every flat-convention word start a new entity.
func WithFlatSplitOnBegin(split bool) Option {
	return func(g *Grouper) { g.flatSplitOnBegin = split }
}

// WithMalformedPolicy sets how inverted boxes are handled.
func WithMalformedPolicy(p MalformedPolicy) Option {
	return func(g *Grouper) { g.malformed = p }
}

// Grouper merges labeled words into entities. The zero value is not usable; call New.
type Grouper struct {
	convention       Convention
	outside          map[string]struct{}
	flatSplitOnBegin bool
	malformed        MalformedPolicy
}

// New returns a Grouper with the given options applied over the defaults.
func New(opts ...Option) *Grouper {
	g := &Grouper{}
	WithOutsideLabels(DefaultOutsideLabels...)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Report summarizes one Group call.
type Report struct {
	Words      int        `json:"words"`
	Grouped    int        `json:"grouped"`
	Skipped    int        `json:"skipped"`
	Normalized int        `json:"normalized"`
	Rejected   int        `json:"rejected"`
	Entities   int        `json:"entities"`
	Convention Convention `json:"convention"`
}

// Group runs the default Grouper over words.
func Group(words []WordRecord) Collection {
	c, _ := New().Group(words)
	return c
}

// Group orders the words, merges them into entities and returns the collection.
// The input slice is not modified.
func (g *Grouper) Group(words []WordRecord) (Collection, Report) {
	conv := g.convention.resolve(words)
	report := Report{Words: len(words), Convention: conv}
	out := Collection{}

	accepted := make([]WordRecord, 0, len(words))
	for _, w := range words {
		if !w.BBox.Valid() {
			if g.malformed == RejectMalformed {
				report.Rejected++
				continue
			}
			w.BBox = w.BBox.Normalize()
			report.Normalized++
		}
		accepted = append(accepted, w)
	}

	m := merger{grouper: g, conv: conv, out: out}
	for _, w := range sequence(accepted) {
		if m.feed(w) {
			report.Grouped++
		} else {
			report.Skipped++
		}
	}
	m.close()

	report.Entities = out.Count()
	return out, report
}

// sequence sorts words in place into reading order: line index, then left edge.
// Ties keep their input order.
func sequence(words []WordRecord) []WordRecord {
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].LineIndex != words[j].LineIndex {
			return words[i].LineIndex < words[j].LineIndex
		}
		return words[i].BBox.Left < words[j].BBox.Left
	})
	return words
}

func (g *Grouper) isOutside(label string) bool {
	if strings.TrimSpace(label) == "" {
		return true
	}
	_, ok := g.outside[label]
	return ok
}

// openEntity is the entity being accumulated. line tracks the most recently merged word.
type openEntity struct {
	typ  string
	text strings.Builder
	bbox BBox
	line int
}

type merger struct {
	grouper *Grouper
	conv    Convention
	out     Collection
	cur     *openEntity
}

// feed processes one word and reports whether it joined an entity.
func (m *merger) feed(w WordRecord) bool {
	if w.Blank() || m.grouper.isOutside(w.Label) {
		m.close()
		return false
	}

	typ, begin := m.conv.splitLabel(w.Label)
	if m.conv == Flat && !m.grouper.flatSplitOnBegin {
		begin = false
	}

	if m.cur == nil || begin || m.cur.typ != typ || !adjacent(m.cur, w) {
		m.close()
		m.open(typ, w)
		return true
	}

	m.cur.text.WriteByte(' ')
	m.cur.text.WriteString(w.Text)
	m.cur.bbox = m.cur.bbox.Union(w.BBox)
	m.cur.line = w.LineIndex
	return true
}

func (m *merger) open(typ string, w WordRecord) {
	m.cur = &openEntity{typ: typ, bbox: w.BBox, line: w.LineIndex}
	m.cur.text.WriteString(w.Text)
}

// close finalizes the open entity, if any.
func (m *merger) close() {
	if m.cur == nil {
		return
	}
	m.out.add(Entity{
		Type:       m.cur.typ,
		Text:       m.cur.text.String(),
		BBox:       m.cur.bbox,
		Confidence: NominalConfidence,
	})
	m.cur = nil
}

// adjacent is the spatial merge test: same line, or a vertical gap strictly
// below 1.5x the open entity's height. Integer form of gap < 1.5*height.
func adjacent(cur *openEntity, next WordRecord) bool {
	if cur.line == next.LineIndex {
		return true
	}
	gap := next.BBox.Top - cur.bbox.Bottom
	height := cur.bbox.Bottom - cur.bbox.Top
	return 2*gap < 3*height
}
