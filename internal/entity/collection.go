package entity

import "sort"

// NominalConfidence is attached to every entity. Per-word confidences are not aggregated.
const NominalConfidence = 1.0

// Entity is a typed span of one or more merged words.
type Entity struct {
	Type       string  `json:"-"`
	Text       string  `json:"text"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// Collection maps an entity type to its entities in reading order.
type Collection map[string][]Entity

// add appends e to its type bucket, creating the bucket if needed.
func (c Collection) add(e Entity) {
	c[e.Type] = append(c[e.Type], e)
}

// Count returns the total number of entities across all types.
func (c Collection) Count() int {
	n := 0
	for _, es := range c {
		n += len(es)
	}
	return n
}

// Types returns the entity types present, sorted.
func (c Collection) Types() []string {
	types := make([]string, 0, len(c))
	for t := range c {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Flatten lists every entity ordered by type name, then by emission order.
// Type is populated on each returned entity.
func (c Collection) Flatten() []Entity {
	out := make([]Entity, 0, c.Count())
	for _, t := range c.Types() {
		for _, e := range c[t] {
			e.Type = t
			out = append(out, e)
		}
	}
	return out
}
