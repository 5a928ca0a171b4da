// Package export writes grouped entities as JSON, CSV or XLSX downloads.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

// Format is a download format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "json", "csv" or "xlsx" in any case. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type for downloads in f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// columns is the row layout shared by CSV and XLSX.
var columns = []string{"type", "text", "left", "top", "right", "bottom", "confidence"}

func entityRow(e entity.Entity) []string {
	return []string{
		e.Type,
		e.Text,
		strconv.Itoa(e.BBox.Left),
		strconv.Itoa(e.BBox.Top),
		strconv.Itoa(e.BBox.Right),
		strconv.Itoa(e.BBox.Bottom),
		strconv.FormatFloat(e.Confidence, 'f', -1, 64),
	}
}

// WriteJSON writes the collection as indented JSON.
func WriteJSON(w io.Writer, c entity.Collection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// Write writes c to w in format f.
func Write(w io.Writer, f Format, c entity.Collection) error {
	switch f {
	case FormatCSV:
		cw := NewWriter(w, true)
		if err := cw.WriteHeader(); err != nil {
			return err
		}
		if err := cw.WriteCollection(c); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case FormatXLSX:
		return WriteXLSX(w, c)
	default:
		return WriteJSON(w, c)
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// BuildFilename returns a download name for entities extracted from base,
// e.g. "scan 01.png" and "csv" give "scan_01_entities.csv".
func BuildFilename(base string, ext string) string {
	name := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	name = nonAlphanumeric.ReplaceAllString(name, "_")
	name = multiUnderscore.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s_entities.%s", name, strings.TrimPrefix(ext, "."))
}
