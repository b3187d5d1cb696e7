// Package spreadsheet reads tabular uploads (.xlsx, .csv) into header keyed
// rows and writes .xlsx workbooks.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shashiranjanraj/medstore/pkg/validate"
)

var (
	ErrUnsupported = errors.New("spreadsheet: unsupported file type (use .xlsx or .csv)")
	ErrNoHeader    = errors.New("spreadsheet: no header row")
)

// Row is one data row. Line is the 1-based line in the source sheet.
type Row struct {
	Line   int
	Values map[string]string // header as written → trimmed cell value
}

// Sheet is a parsed upload. Header keeps the source order and spelling.
type Sheet struct {
	Header []string
	Rows   []Row
}

// Read parses r according to the extension of filename. The first sheet of
// a workbook is used; the first non-empty row is the header; blank rows are
// dropped.
func Read(r io.Reader, filename string) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	return build(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	// raw values keep dates as serial numbers and prices unformatted
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: parse csv: %w", err)
	}
	return records, nil
}

func build(records [][]string) (*Sheet, error) {
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	s := &Sheet{}
	for _, h := range records[start] {
		s.Header = append(s.Header, strings.TrimSpace(h))
	}

	for i := start + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(s.Header))
		for col, h := range s.Header {
			if h == "" || col >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[col]); v != "" {
				values[h] = v
			}
		}
		s.Rows = append(s.Rows, Row{Line: i + 1, Values: values})
	}
	return s, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// NormalizeHeader folds a header for alias matching: lower case with spaces,
// underscores, dashes and dots removed.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '\t', '_', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Date parses a cell as a date. Workbook cells hold serial day numbers;
// text cells fall back to the layouts validate.ParseDate accepts.
func Date(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("spreadsheet: invalid date serial %q", cell)
		}
		return excelize.ExcelDateToTime(serial, false)
	}
	return validate.ParseDate(cell)
}

// WriteXLSX writes a single-sheet workbook with a bold header row to w.
func WriteXLSX(w io.Writer, sheet string, header []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("spreadsheet: name sheet: %w", err)
	}

	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("spreadsheet: header: %w", err)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, bold)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("spreadsheet: row %d: %w", i+2, err)
		}
	}

	if len(header) > 0 {
		last, _ := excelize.ColumnNumberToName(len(header))
		_ = f.SetColWidth(sheet, "A", last, 18)
	}

	return f.Write(w)
}
