package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Table is an in-memory CSV dataset: named columns and rows of raw cell text.
// Cells are kept exactly as read; Kinds only describes them.
type Table struct {
	Columns []string
	Rows    [][]string
	Kinds   []Kind
}

// ParseError is returned for any malformed upload.
type ParseError struct {
	Line int // 1-based input line, 0 when unknown
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse csv")
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrNoColumns is wrapped by the ParseError for empty input.
var ErrNoColumns = errors.New("no columns to parse from file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// AllowedExtension reports whether an uploaded file name passes the CSV-only allow-list.
func AllowedExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// Parse reads comma-separated text into a Table. The first record is the header.
// Rows shorter than the header are padded with missing cells; longer rows are an error.
func Parse(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: ErrNoColumns}
		}
		return nil, wrapReadErr(err)
	}
	t := &Table{Columns: headerNames(header)}
	ncol := len(t.Columns)

	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, wrapReadErr(err)
		}
		if len(rec) > ncol {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, saw %d", ncol, len(rec)),
			}
		}
		row := make([]string, ncol)
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	t.Kinds = inferKinds(t)
	return t, nil
}

func wrapReadErr(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

// headerNames fills blank names and disambiguates duplicates (a, a.1, a.2).
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, name := range raw {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] > 0 {
			base := name
			for k := seen[base]; ; k++ {
				cand := base + "." + strconv.Itoa(k)
				if seen[cand] == 0 {
					seen[base] = k + 1
					name = cand
					break
				}
			}
		}
		seen[name]++
		out[i] = name
	}
	return out
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// Cell returns the raw text at row, col.
func (t *Table) Cell(row, col int) string { return t.Rows[row][col] }

// CSV serializes the header and every row back to comma-separated text with
// "\n" line endings. Parse(CSV()) yields the same cells.
func (t *Table) CSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	write := func(rec []string) error {
		// A lone empty field would otherwise become a blank line, which readers skip.
		if len(rec) == 1 && rec[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			return nil
		}
		return w.Write(rec)
	}
	if err := write(t.Columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := write(row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// Records returns rows keyed by column name.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for j, name := range t.Columns {
			m[name] = row[j]
		}
		out[i] = m
	}
	return out
}
