package parsers

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXParser parses every sheet of a workbook as its own table.
type XLSXParser struct{}

// Parse reads a workbook and returns one table per non-empty sheet, named
// "<file stem>.<sheet>". Date-formatted cells are emitted as ISO-8601 text
// instead of their locale-dependent display form.
func (p *XLSXParser) Parse(r io.Reader, name string) ([]Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	sheets := &sheetReader{f: f, date1904: date1904, dateStyles: make(map[int]bool)}

	stem := TableName(name)
	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := sheets.rows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 || allBlank(rows) {
			continue
		}
		table, err := splitTable(stem+"."+sheet, name, rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

type sheetReader struct {
	f          *excelize.File
	date1904   bool
	dateStyles map[int]bool
}

// rows returns the displayed cell text of a sheet, with date cells replaced
// by their ISO-8601 form.
func (s *sheetReader) rows(sheet string) ([][]string, error) {
	rows, err := s.f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := s.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		for j := range row {
			if i >= len(raw) || j >= len(raw[i]) || raw[i][j] == "" {
				continue
			}
			serial, err := strconv.ParseFloat(raw[i][j], 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			isDate, err := s.isDateCell(sheet, cell)
			if err != nil {
				return nil, err
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, s.date1904)
			if err != nil {
				continue
			}
			row[j] = isoDate(t)
		}
	}
	return rows, nil
}

func (s *sheetReader) isDateCell(sheet, cell string) (bool, error) {
	id, err := s.f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	if id == 0 {
		return false, nil
	}
	if known, ok := s.dateStyles[id]; ok {
		return known, nil
	}
	style, err := s.f.GetStyle(id)
	if err != nil {
		return false, err
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	s.dateStyles[id] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format shows a calendar
// date. Time-only formats are left as displayed.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code has a year or day
// token outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			if strings.IndexByte("yYdD", c) >= 0 {
				return true
			}
		}
	}
	return false
}

func isoDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}

func allBlank(rows [][]string) bool {
	for _, row := range rows {
		if !isBlankRow(row) {
			return false
		}
	}
	return true
}
