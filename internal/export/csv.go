package export

import (
	"encoding/csv"
	"io"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// BOM is the UTF-8 byte order mark Excel on Windows needs to detect UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer wraps csv.Writer for exporting entities.
type Writer struct {
	out     io.Writer
	csv     *csv.Writer
	bom     bool
	started bool
}

// NewWriter creates a Writer that writes CSV to w, prefixed with a BOM when bom is set.
func NewWriter(w io.Writer, bom bool) *Writer {
	return &Writer{out: w, csv: csv.NewWriter(w), bom: bom}
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	if w.bom {
		_, err := w.out.Write(BOM)
		return err
	}
	return nil
}

// WriteHeader writes the column header row.
func (w *Writer) WriteHeader() error {
	if err := w.start(); err != nil {
		return err
	}
	return w.csv.Write(columns)
}

// WriteCollection writes one row per entity, ordered by type then reading order.
func (w *Writer) WriteCollection(c entity.Collection) error {
	if err := w.start(); err != nil {
		return err
	}
	for _, e := range c.Flatten() {
		if err := w.csv.Write(entityRow(e)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}
