package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses an array of flat objects. Keys become columns in the
// order they are first seen.
type JSONParser struct{}

// Parse reads JSON from the reader and returns one table named after the file.
func (p *JSONParser) Parse(r io.Reader, name string) ([]Table, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	if err := expectDelim(decoder, '['); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	var (
		headers []string
		column  = make(map[string]int)
		objects []map[string]string
	)

	for i := 1; decoder.More(); i++ {
		obj, keys, err := readObject(decoder)
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: object %d: %w", i, err)
		}
		for _, k := range keys {
			if _, ok := column[k]; !ok {
				column[k] = len(headers)
				headers = append(headers, k)
			}
		}
		objects = append(objects, obj)
	}
	if err := expectDelim(decoder, ']'); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	table := Table{Name: TableName(name), Source: name, Headers: headers}
	for _, obj := range objects {
		row := make([]string, len(headers))
		for k, v := range obj {
			row[column[k]] = v
		}
		table.Rows = append(table.Rows, row)
	}
	if table.Headers == nil {
		table.Headers = []string{}
	}
	return []Table{table}, nil
}

func expectDelim(decoder *json.Decoder, want json.Delim) error {
	tok, err := decoder.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// readObject reads one object, returning its cells as text and its keys in
// document order.
func readObject(decoder *json.Decoder) (map[string]string, []string, error) {
	if err := expectDelim(decoder, '{'); err != nil {
		return nil, nil, err
	}
	obj := make(map[string]string)
	var keys []string
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}
		text, err := cellText(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = text
	}
	if err := expectDelim(decoder, '}'); err != nil {
		return nil, nil, err
	}
	return obj, keys, nil
}

// cellText renders a JSON value as cell text. Numbers keep their literal
// spelling; null is an empty cell; nested values stay compact JSON.
func cellText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return "", nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case raw[0] == '{' || raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(raw), nil
	}
}
