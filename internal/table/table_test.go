package table

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseKeepsShapeAndValues(t *testing.T) {
	in := "date,plot,alpha_acids,moisture\n" +
		"2024-08-10,A1,12.5,74\n" +
		"2024-08-12,A1,11.8,71\n" +
		"2024-08-15,B3,10.2,68\n"
	tb, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tb.NumRows() != 3 || tb.NumCols() != 4 {
		t.Fatalf("shape = %dx%d, want 3x4", tb.NumRows(), tb.NumCols())
	}
	if got := tb.Cell(1, 2); got != "11.8" {
		t.Fatalf("cell(1,2) = %q", got)
	}
	want := []Kind{KindDatetime, KindText, KindFloat, KindInteger}
	if !reflect.DeepEqual(tb.Kinds, want) {
		t.Fatalf("kinds = %v, want %v", tb.Kinds, want)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	tb, err := Parse(strings.NewReader("a,b\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tb.NumRows() != 0 || tb.NumCols() != 2 {
		t.Fatalf("shape = %dx%d, want 0x2", tb.NumRows(), tb.NumCols())
	}
	out, err := tb.CSV()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if out != "a,b\n" {
		t.Fatalf("csv = %q", out)
	}
	if tb.Kinds[0] != KindEmpty {
		t.Fatalf("kind = %v, want empty", tb.Kinds[0])
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		line int
	}{
		{"empty", "", 0},
		{"too many fields", "a,b\n1,2\n3,4,5\n", 3},
		{"bare quote", "a,b\n1,\"x\n", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(c.in))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if c.line > 0 && pe.Line != c.line {
				t.Fatalf("line = %d, want %d (%v)", pe.Line, c.line, err)
			}
		})
	}
	_, err := Parse(strings.NewReader(""))
	if !errors.Is(err, ErrNoColumns) {
		t.Fatalf("empty input should wrap ErrNoColumns, got %v", err)
	}
}

func TestParsePadsShortRows(t *testing.T) {
	tb, err := Parse(strings.NewReader("a,b,c\n1,2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(tb.Rows[0], []string{"1", "2", ""}) {
		t.Fatalf("row = %q", tb.Rows[0])
	}
	if tb.MissingCount(2) != 1 {
		t.Fatalf("missing = %d", tb.MissingCount(2))
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"a", "a", "", "a", "a.1"})
	want := []string{"a", "a.1", "Unnamed: 2", "a.2", "a.1.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("headerNames = %q, want %q", got, want)
	}
}

func TestParseStripsBOM(t *testing.T) {
	tb, err := Parse(strings.NewReader("\xEF\xBB\xBFid,name\n1,x\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tb.Columns[0] != "id" {
		t.Fatalf("column = %q", tb.Columns[0])
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := "name,note,score\n" +
		"\"Smith, J\",\"said \"\"hi\"\"\",1.50\n" +
		"Lee,\"two\nlines\",\n" +
		"Ng, leading,007\n"
	first, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := first.CSV()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	second, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(first.Columns, second.Columns) || !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Fatalf("round trip changed cells:\n%q\n%q", first.Rows, second.Rows)
	}
	if second.Cell(2, 1) != " leading" || second.Cell(2, 2) != "007" {
		t.Fatalf("values altered: %q", second.Rows[2])
	}
}

func TestCSVRoundTripSingleEmptyColumn(t *testing.T) {
	tb := &Table{Columns: []string{"x"}, Rows: [][]string{{""}, {"1"}}}
	out, err := tb.CSV()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	back, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if back.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2 (%q)", back.NumRows(), out)
	}
}

func TestInferColumnKinds(t *testing.T) {
	rows := [][]string{{"1", "1.5", "true", "x", "NA"}, {"2", "3", "False", "4", ""}}
	want := []Kind{KindInteger, KindFloat, KindBoolean, KindText, KindEmpty}
	for j, k := range want {
		if got := inferColumn(rows, j); got != k {
			t.Errorf("col %d: got %v, want %v", j, got, k)
		}
	}
}

func TestAllowedExtension(t *testing.T) {
	for name, ok := range map[string]bool{"a.csv": true, "B.CSV": true, "c.tsv": false, "d": false, "e.csv.exe": false} {
		if AllowedExtension(name) != ok {
			t.Errorf("AllowedExtension(%q) != %v", name, ok)
		}
	}
}

func TestRecords(t *testing.T) {
	tb, err := Parse(strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	recs := tb.Records()
	if len(recs) != 1 || recs[0]["a"] != "1" || recs[0]["b"] != "2" {
		t.Fatalf("records = %v", recs)
	}
}
