// Package rowset holds the normalized tabular form shared by the table
// extractor, the CSV ingestor, the SVG importer and the chart/summary
// consumers.
package rowset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// IDKey is the positional row identity field added for UI row keying.
const IDKey = "id"

var errNotArray = errors.New("rowset: expected a JSON array of objects")

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Record maps a header to a cell value. Values are float64 or string
// (int for positional ids).
type Record map[string]any

// RowSet is an ordered sequence of records. Headers fixes the key order of
// every record; consumers must tolerate the header list changing between
// two extractions of the same table.
type RowSet struct {
	Headers []string
	Rows    []Record
}

// Coerce trims text and returns it as a float64 when it parses as a finite
// decimal, otherwise the trimmed string (possibly empty).
func Coerce(text string) any {
	s := strings.TrimSpace(text)
	if n, ok := ParseNumber(s); ok {
		return n
	}
	return s
}

// ParseNumber reports whether s is a non-empty finite decimal.
func ParseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// ParseLeading reads the longest decimal prefix of s after leading
// whitespace, so "12px" reads as 12. Prefixes out of float64 range do not
// parse.
func ParseLeading(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders a cell value the way it is written back into a table cell.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Number returns v as a float64 when it holds a numeric value.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

// Len returns the number of records.
func (rs RowSet) Len() int {
	return len(rs.Rows)
}

// IsEmpty reports whether the row-set has no records.
func (rs RowSet) IsEmpty() bool {
	return len(rs.Rows) == 0
}

// Has reports whether key is one of the headers.
func (rs RowSet) Has(key string) bool {
	for _, h := range rs.Headers {
		if h == key {
			return true
		}
	}
	return false
}

// Head returns the first n records, keeping their order.
func (rs RowSet) Head(n int) RowSet {
	if n < 0 {
		n = 0
	}
	if n > len(rs.Rows) {
		n = len(rs.Rows)
	}
	return RowSet{Headers: rs.Headers, Rows: rs.Rows[:n]}
}

// Numbers collects the numeric values stored under key, skipping the rest.
func (rs RowSet) Numbers(key string) []float64 {
	var out []float64
	for _, row := range rs.Rows {
		if n, ok := Number(row[key]); ok {
			out = append(out, n)
		}
	}
	return out
}

// WithRowIDs returns a copy where each record carries its zero-based
// position under IDKey, listed as the first header.
func (rs RowSet) WithRowIDs() RowSet {
	out := RowSet{
		Headers: append([]string{IDKey}, rs.Headers...),
		Rows:    make([]Record, len(rs.Rows)),
	}
	for i, row := range rs.Rows {
		rec := make(Record, len(row)+1)
		for k, v := range row {
			rec[k] = v
		}
		rec[IDKey] = i
		out.Rows[i] = rec
	}
	return out
}

// MarshalJSON encodes the records as an array of objects whose keys follow
// the header order.
func (rs RowSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rs.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		first := true
		for _, h := range rs.Headers {
			v, ok := row[h]
			if !ok {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(h)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an array of objects, deriving the header order from
// the first appearance of every key.
func (rs *RowSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*rs = RowSet{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return errNotArray
	}

	out := RowSet{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return errNotArray
		}
		rec := Record{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			var v any
			if err := dec.Decode(&v); err != nil {
				return err
			}
			rec[key] = normalize(v)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				out.Headers = append(out.Headers, key)
			}
		}
		// closing '}'
		if _, err := dec.Token(); err != nil {
			return err
		}
		out.Rows = append(out.Rows, rec)
	}

	*rs = out
	return nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case float64, string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
