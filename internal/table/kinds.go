package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindEmpty    Kind = "empty"
	KindInteger  Kind = "integer"
	KindFloat    Kind = "float"
	KindBoolean  Kind = "boolean"
	KindDatetime Kind = "datetime"
	KindText     Kind = "text"
)

// missing markers treated as NA when inferring kinds.
var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "#NA": {}, "<NA>": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(v string) bool {
	_, ok := naValues[strings.TrimSpace(v)]
	return ok
}

// MissingCount returns the number of missing cells in column col.
func (t *Table) MissingCount(col int) int {
	n := 0
	for _, row := range t.Rows {
		if IsMissing(row[col]) {
			n++
		}
	}
	return n
}

func inferKinds(t *Table) []Kind {
	kinds := make([]Kind, len(t.Columns))
	for j := range t.Columns {
		kinds[j] = inferColumn(t.Rows, j)
	}
	return kinds
}

// inferColumn picks the narrowest kind every non-missing cell satisfies,
// widening integer to float the way dataframe readers do.
func inferColumn(rows [][]string, col int) Kind {
	var seen, ints, floats, bools, dates int
	for _, row := range rows {
		v := strings.TrimSpace(row[col])
		if IsMissing(v) {
			continue
		}
		seen++
		switch {
		case isInteger(v):
			ints++
		case isFloat(v):
			floats++
		case isBool(v):
			bools++
		case isDatetime(v):
			dates++
		default:
			return KindText
		}
	}
	switch {
	case seen == 0:
		return KindEmpty
	case ints == seen:
		return KindInteger
	case ints+floats == seen:
		return KindFloat
	case bools == seen:
		return KindBoolean
	case dates == seen:
		return KindDatetime
	default:
		return KindText
	}
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isBool(s string) bool {
	switch s {
	case "True", "False", "true", "false", "TRUE", "FALSE":
		return true
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func isDatetime(s string) bool {
	for _, l := range dateLayouts {
		if _, err := time.Parse(l, s); err == nil {
			return true
		}
	}
	return false
}
