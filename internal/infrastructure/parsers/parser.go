// Package parsers reads spreadsheet files into raw tables.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Table is one sheet of raw cell text, before any typing.
type Table struct {
	Name    string     // Entity name, "<file stem>" or "<file stem>.<sheet>"
	Source  string     // File the table was read from
	Headers []string   // First row
	Rows    [][]string // Remaining rows; may be ragged
}

// Options tunes text-based parsers.
type Options struct {
	Delimiter rune   // CSV field separator, ',' when zero
	Encoding  string // Source character set, "utf-8" when empty
}

// Parser reads every table contained in a file. name is the file name the
// tables are named after.
type Parser interface {
	Parse(r io.Reader, name string) ([]Table, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "csv", "json", "xlsx".
func ForFormat(format string, opts Options) Parser {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "csv":
		return &CSVParser{Delimiter: opts.Delimiter, Encoding: opts.Encoding}
	case "json":
		return &JSONParser{}
	case "xlsx", "xlsm":
		return &XLSXParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string, opts Options) Parser {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil
	}
	return ForFormat(ext, opts)
}

// TableName is the file name without directory and extension.
func TableName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// isBlankRow reports whether every cell of row is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// splitTable turns raw rows into a Table, dropping blank rows.
func splitTable(name, source string, rows [][]string) (Table, error) {
	t := Table{Name: name, Source: source}
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if t.Headers == nil {
			t.Headers = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Headers == nil {
		return Table{}, fmt.Errorf("table %s: no header row", name)
	}
	return t, nil
}
