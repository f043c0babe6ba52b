package statement

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyStatement means the file had no header row.
	ErrEmptyStatement = errors.New("statement has no header row")
	// ErrTooManyRows means the file exceeded the configured row limit.
	ErrTooManyRows = errors.New("statement exceeds row limit")
)

// RawRow maps a normalized header to the cell under it. Use Get for lookups by display name.
type RawRow map[string]string

// Get returns the trimmed cell under column, matched the same way headers are detected.
func (r RawRow) Get(column string) string {
	return strings.TrimSpace(r[headerKey(column)])
}

// Sheet is a statement file split into header and data rows.
type Sheet struct {
	Header []string
	Rows   []RawRow
	Lines  []int // source line (CSV) or row number (XLSX) of each entry in Rows
	// Bad holds rows the reader itself could not parse.
	Bad []*RowError
}

// Read parses r as XLSX when the name or content says so, and as CSV otherwise. maxRows <= 0
// disables the row limit.
func Read(filename string, r io.Reader, maxRows int) (Sheet, error) {
	br := bufio.NewReader(r)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xlsx" || ext == ".xlsm" {
		return ReadXLSX(br, maxRows)
	}
	if magic, _ := br.Peek(4); bytes.Equal(magic, []byte("PK\x03\x04")) {
		return ReadXLSX(br, maxRows)
	}
	return ReadCSV(br, maxRows)
}

// ReadCSV parses comma separated data. Rows may be ragged and blank rows are skipped.
func ReadCSV(r io.Reader, maxRows int) (Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var s Sheet
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && s.Header != nil {
				s.Bad = append(s.Bad, &RowError{Line: perr.StartLine, Reason: perr.Err.Error(), Err: ErrRowRejected})
				continue
			}
			return Sheet{}, fmt.Errorf("read csv: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		if s.Header == nil {
			s.Header = cleanHeaders(rec)
			continue
		}
		line, _ := cr.FieldPos(0)
		if err := s.add(rec, line, maxRows); err != nil {
			return Sheet{}, err
		}
	}
	if s.Header == nil {
		return Sheet{}, ErrEmptyStatement
	}
	return s, nil
}

// ReadXLSX parses the first worksheet of a workbook.
func ReadXLSX(r io.Reader, maxRows int) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return Sheet{}, ErrEmptyStatement
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %s: %w", name, err)
	}

	var s Sheet
	for i, rec := range rows {
		if isBlankRecord(rec) {
			continue
		}
		if s.Header == nil {
			s.Header = cleanHeaders(rec)
			continue
		}
		if err := s.add(rec, i+1, maxRows); err != nil {
			return Sheet{}, err
		}
	}
	if s.Header == nil {
		return Sheet{}, ErrEmptyStatement
	}
	return s, nil
}

func (s *Sheet) add(rec []string, line, maxRows int) error {
	if maxRows > 0 && len(s.Rows) >= maxRows {
		return fmt.Errorf("%w of %d", ErrTooManyRows, maxRows)
	}
	row := make(RawRow, len(s.Header))
	for i, h := range s.Header {
		if i >= len(rec) {
			break
		}
		k := headerKey(h)
		if _, dup := row[k]; dup {
			continue // first column with a given name wins
		}
		row[k] = strings.TrimSpace(rec[i])
	}
	s.Rows = append(s.Rows, row)
	s.Lines = append(s.Lines, line)
	return nil
}

func cleanHeaders(rec []string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		out[i] = cleanHeader(h)
	}
	return out
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
