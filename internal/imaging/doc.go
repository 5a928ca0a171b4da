// Package imaging prepares page images for OCR and renders grouping results.
//
// Pages arrive as PNG, JPEG, GIF, BMP, TIFF or WebP. Decode detects the format
// from the bytes, never from a file extension, and ToRGB flattens any alpha or
// palette page into an opaque zero-origin RGB image before anything else runs.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. Boxes
// use entity.BBox, whose Left/Top are inclusive and Right/Bottom exclusive.
// NormalizeBox converts pixel boxes into the 0..1000 space layout models use.
//
// # Preprocessing
//
// Preprocess runs the optional grayscale, contrast and threshold steps from
// bild, then upscales short pages with a Lanczos filter. The returned
// Prepared value remembers the scale so OCR boxes can be mapped back with
// ToSource.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
package imaging
