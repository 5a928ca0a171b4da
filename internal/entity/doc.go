// Package entity groups labeled OCR words into typed document entities.
//
// The input is a flat, unordered set of WordRecord values. Each record carries
// the recognized text, its bounding box in source-image pixels, the OCR line it
// was found on and the label assigned by a token-classification model. The
// output is a Collection: entity type mapped to the entities of that type in
// reading order.
//
// # Pipeline
//
// Group runs four stages in a single pass:
//
//  1. Sequencing: words are stable-sorted by line index, then by left edge.
//  2. Merging: each word either extends the open entity or closes it and opens
//     a new one. "O" labels and blank words close the open entity and are dropped.
//  3. Aggregation: extending appends " "+text and widens the box to the union.
//  4. Finalizing: closed entities are appended to Collection[type] with a
//     nominal confidence of 1.0.
//
// # Boundaries
//
// A new entity starts when no entity is open, when the label marks a
// beginning (B- under the IOB convention), when the type changes, or when the
// spatial test fails. The spatial test accepts a word on the same line, or a
// word whose vertical gap below the open entity is strictly less than 1.5
// times the open entity's height. A zero-height entity therefore only accepts
// words on its own line or overlapping it.
//
// # Label Conventions
//
// IOB labels ("B-DATE", "I-DATE", "O") are stripped of their prefix to obtain
// the type. Flat labels ("DATE") are used verbatim; every flat word counts as a
// beginning, but that alone never splits an entity unless
// WithFlatSplitOnBegin(true) is set. Labels matching neither convention are
// passed through as their own type.
//
// # Concurrency
//
// A Grouper holds only immutable options, so one value can be shared across
// goroutines. Group performs no I/O.
package entity
