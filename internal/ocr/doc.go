// Package ocr turns page images into positioned words using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Its main job
// is to act as the word source for entity grouping: ExtractWords returns every
// confidently recognized word with its bounding box in image pixels and a
// page-global line index.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Config.TessdataPrefix points at a custom traineddata directory.
//
// # Line Indexes
//
// Tesseract numbers lines within a paragraph, and paragraphs within a block,
// so a raw line number repeats across the page. ExtractWords assigns a
// page-global index in order of first appearance of each (block, paragraph,
// line) triple. Words sharing an index were read as one visual line.
//
// # Filtering
//
// Words whose confidence is not strictly above Config.MinConfidence (0-100,
// default 60) and words with blank text are dropped. Confidences are reported
// on a 0-1 scale.
//
// # Concurrency
//
// Every call creates and closes its own Tesseract client, so an Engine can be
// shared by concurrent requests. Tesseract itself cannot be interrupted; the
// context is checked before and after recognition.
package ocr
