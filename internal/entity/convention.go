package entity

import (
	"fmt"
	"strings"
)

// Convention selects how labels are split into a type and a beginning flag.
type Convention int

const (
	// Auto picks IOB when any input label carries a B- or I- prefix, flat otherwise.
	Auto Convention = iota
	// IOB labels look like "B-TYPE", "I-TYPE" or "O".
	IOB
	// Flat labels are the bare type; every word is an implicit beginning.
	Flat
)

const (
	beginPrefix  = "B-"
	insidePrefix = "I-"
)

func (c Convention) String() string {
	switch c {
	case IOB:
		return "iob"
	case Flat:
		return "flat"
	default:
		return "auto"
	}
}

// ParseConvention accepts "auto", "iob" or "flat" in any case.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "iob", "bio":
		return IOB, nil
	case "flat", "plain":
		return Flat, nil
	}
	return Auto, fmt.Errorf("unknown label convention %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Convention) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Convention) UnmarshalText(text []byte) error {
	v, err := ParseConvention(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// DetectConvention inspects a model vocabulary: IOB if any label starts with "B-".
func DetectConvention(vocabulary []string) Convention {
	for _, l := range vocabulary {
		if strings.HasPrefix(l, beginPrefix) {
			return IOB
		}
	}
	return Flat
}

// resolve turns Auto into a concrete convention for the given words.
func (c Convention) resolve(words []WordRecord) Convention {
	if c != Auto {
		return c
	}
	for _, w := range words {
		if hasPrefixedType(w.Label, beginPrefix) || hasPrefixedType(w.Label, insidePrefix) {
			return IOB
		}
	}
	return Flat
}

// splitLabel returns the entity type and whether the label marks a beginning.
// A bare prefix such as "B-" has no type and is passed through verbatim.
func (c Convention) splitLabel(label string) (typ string, begin bool) {
	if c == Flat {
		return label, true
	}
	switch {
	case hasPrefixedType(label, beginPrefix):
		return label[len(beginPrefix):], true
	case hasPrefixedType(label, insidePrefix):
		return label[len(insidePrefix):], false
	}
	return label, false
}

func hasPrefixedType(label, prefix string) bool {
	return len(label) > len(prefix) && strings.HasPrefix(label, prefix)
}
