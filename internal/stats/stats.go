// Package stats computes the live column statistics shown by summary
// blocks.
package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/table"
)

// AwaitingData is shown in place of statistics when a summary has nothing
// to compute over.
const AwaitingData = "Awaiting valid numeric data..."

// Stats describes one numeric column.
type Stats struct {
	Count             int     `json:"count"`
	Sum               float64 `json:"sum"`
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	Mode              float64 `json:"mode"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	StandardDeviation float64 `json:"standardDeviation"`
}

// Binding names the column a summary block reads.
type Binding struct {
	TableID    string `json:"tableId"`
	TableName  string `json:"tableName"`
	ColumnName string `json:"columnName"`
}

// BindingFromAttrs reads a summary block's attributes.
func BindingFromAttrs(attrs doc.Attrs) Binding {
	return Binding{
		TableID:    attrs.String("tableId"),
		TableName:  attrs.String("tableName"),
		ColumnName: attrs.String("columnName"),
	}
}

// Attrs encodes the binding as summary block attributes.
func (b Binding) Attrs() doc.Attrs {
	return doc.Attrs{
		"tableId":    b.TableID,
		"tableName":  b.TableName,
		"columnName": b.ColumnName,
	}
}

// NewNode builds a summary block node.
func NewNode(b Binding) *doc.Node {
	return doc.New(doc.TypeSmartSummary, b.Attrs())
}

// Compute returns the statistics of numbers, or nil when there are none.
// The standard deviation is the sample deviation; a single value divides
// by one. Inputs whose statistics do not fit a float64 also yield nil.
func Compute(numbers []float64) *Stats {
	if len(numbers) == 0 {
		return nil
	}

	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	s := &Stats{
		Count: len(numbers),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	// mean and variance run over values scaled by a power of two below the
	// largest magnitude, so no intermediate can overflow
	_, exp := math.Frexp(max(math.Abs(s.Min), math.Abs(s.Max)))
	scale := math.Ldexp(1, exp-1)
	var mean, m2 float64
	for i, n := range numbers {
		x := n / scale
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean * scale

	for _, n := range numbers {
		s.Sum += n
	}
	if math.IsInf(s.Sum, 0) {
		s.Sum = s.Mean * float64(s.Count)
	}

	mid := s.Count / 2
	if s.Count%2 != 0 {
		s.Median = sorted[mid]
	} else {
		s.Median = sorted[mid-1]/2 + sorted[mid]/2
	}

	// ties go to the smallest value
	freq := make(map[float64]int, len(sorted))
	best := 0
	s.Mode = sorted[0]
	for _, n := range sorted {
		freq[n]++
		if freq[n] > best {
			best = freq[n]
			s.Mode = n
		}
	}

	divisor := 1.0
	if s.Count > 1 {
		divisor = float64(s.Count - 1)
	}
	s.StandardDeviation = math.Sqrt(max(m2, 0)/divisor) * scale

	if !s.finite() {
		return nil
	}
	return s
}

func (s *Stats) finite() bool {
	for _, v := range []float64{s.Sum, s.Mean, s.Median, s.Mode, s.Min, s.Max, s.StandardDeviation} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// LocateColumn rescans the whole document for the table carrying tableID
// and returns the numeric values of column. A missing table, a table with
// fewer than two rows or an unknown column yields no values.
func LocateColumn(root *doc.Node, tableID, column string) []float64 {
	ref, ok := table.Find(root, tableID)
	if !ok {
		return nil
	}
	rs := table.Extract(ref.Node)
	if !rs.Has(column) {
		return nil
	}
	return rs.Numbers(column)
}

// Summarize computes the statistics a summary block shows.
func Summarize(root *doc.Node, b Binding) *Stats {
	return Compute(LocateColumn(root, b.TableID, b.ColumnName))
}

// Format renders the statistics the way summary blocks display them.
func (s *Stats) Format() string {
	if s == nil {
		return AwaitingData
	}
	return fmt.Sprintf("Mean: %.2f | Median: %.2f | Mode: %s\nMin: %.2f | Max: %.2f | Std Dev: %.2f (n=%d)",
		s.Mean, s.Median, rowset.Format(s.Mode), s.Min, s.Max, s.StandardDeviation, s.Count)
}
