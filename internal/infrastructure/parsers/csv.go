package parsers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// CSVParser parses a single table from delimited text.
type CSVParser struct {
	Delimiter rune
	Encoding  string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads CSV from the reader and returns one table named after the file.
func (p *CSVParser) Parse(r io.Reader, name string) ([]Table, error) {
	decoded, err := decodeReader(r, p.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if p.Delimiter != 0 {
		reader.Comma = p.Delimiter
	}

	var rows [][]string
	lineNum := 0
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rows = append(rows, record)
	}

	table, err := splitTable(TableName(name), name, rows)
	if err != nil {
		return nil, err
	}
	return []Table{table}, nil
}

// decodeReader converts r from the named character set to UTF-8 and drops a
// leading byte order mark.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		return enc.NewDecoder().Reader(r), nil
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br, nil
}

// lookupEncoding returns nil for UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	case "cp850", "ibm850":
		return charmap.CodePage850, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
}
