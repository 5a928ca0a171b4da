package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedBBox is returned when a box has left > right or top > bottom.
var ErrMalformedBBox = errors.New("malformed bounding box")

// BBox is an axis-aligned rectangle in source-image pixel coordinates.
// It serializes as a four element array [left, top, right, bottom].
type BBox struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// NewBBox builds a box and rejects inverted coordinates.
func NewBBox(left, top, right, bottom int) (BBox, error) {
	b := BBox{Left: left, Top: top, Right: right, Bottom: bottom}
	if !b.Valid() {
		return BBox{}, fmt.Errorf("%w: [%d,%d,%d,%d]", ErrMalformedBBox, left, top, right, bottom)
	}
	return b, nil
}

// Valid reports whether left <= right and top <= bottom.
func (b BBox) Valid() bool {
	return b.Left <= b.Right && b.Top <= b.Bottom
}

// Normalize returns the box with inverted coordinate pairs swapped.
func (b BBox) Normalize() BBox {
	if b.Left > b.Right {
		b.Left, b.Right = b.Right, b.Left
	}
	if b.Top > b.Bottom {
		b.Top, b.Bottom = b.Bottom, b.Top
	}
	return b
}

// Union returns the smallest box enclosing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		Left:   minInt(b.Left, o.Left),
		Top:    minInt(b.Top, o.Top),
		Right:  maxInt(b.Right, o.Right),
		Bottom: maxInt(b.Bottom, o.Bottom),
	}
}

// Width returns right - left.
func (b BBox) Width() int { return b.Right - b.Left }

// Height returns bottom - top.
func (b BBox) Height() int { return b.Bottom - b.Top }

// Contains reports whether o lies entirely inside b.
func (b BBox) Contains(o BBox) bool {
	return o.Left >= b.Left && o.Top >= b.Top && o.Right <= b.Right && o.Bottom <= b.Bottom
}

// Array returns the box as [left, top, right, bottom].
func (b BBox) Array() [4]int {
	return [4]int{b.Left, b.Top, b.Right, b.Bottom}
}

// MarshalJSON encodes the box as [left, top, right, bottom].
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Array())
}

// UnmarshalJSON decodes a four element array. Inverted boxes are accepted
// here so that the grouping policy, not the decoder, decides their fate.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var arr []int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("bbox: %w", err)
	}
	if len(arr) != 4 {
		return fmt.Errorf("bbox: want 4 coordinates, got %d", len(arr))
	}
	*b = BBox{Left: arr[0], Top: arr[1], Right: arr[2], Bottom: arr[3]}
	return nil
}

func (b BBox) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", b.Left, b.Top, b.Right, b.Bottom)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
