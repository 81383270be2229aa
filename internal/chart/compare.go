package chart

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
)

// CompareXKey is the x key of merged comparison data.
const CompareXKey = "name"

// UnnamedTable names comparison series of tables without a name.
const UnnamedTable = "Unnamed Table"

// Source is one table taking part in a comparison. Index is the table's
// zero-based position in the selection, counting selected tables that no
// longer resolve.
type Source struct {
	Name  string
	Index int
	Table *doc.Node
}

// Comparison is the merged data of several tables.
type Comparison struct {
	Data       rowset.RowSet
	SeriesKeys []string
}

// Compare merges tables on their first column. The first column of every
// data row is the x value and the second, when numeric, becomes the value
// of that table's series. Rows are merged by x value in first-seen order.
// A series name already taken, or equal to CompareXKey, is suffixed with
// the table's one-based position in the selection.
func Compare(sources []Source) (Comparison, error) {
	if len(sources) < 2 {
		return Comparison{}, ErrTooFewTables
	}

	out := Comparison{Data: rowset.RowSet{Headers: []string{CompareXKey}}}
	taken := mapset.NewThreadUnsafeSet(CompareXKey)
	byX := make(map[string]rowset.Record)

	for _, src := range sources {
		base := src.Name
		if base == "" {
			base = UnnamedTable
		}
		series := base
		for n := src.Index + 1; taken.Contains(series); n++ {
			series = fmt.Sprintf("%s (%d)", base, n)
		}
		taken.Add(series)
		out.SeriesKeys = append(out.SeriesKeys, series)
		out.Data.Headers = append(out.Data.Headers, series)

		if src.Table == nil || len(src.Table.Content) < 2 {
			continue
		}
		for _, row := range src.Table.Content[1:] {
			if len(row.Content) < 2 {
				continue
			}
			x := strings.TrimSpace(row.Content[0].TextContent())
			y, ok := rowset.ParseNumber(strings.TrimSpace(row.Content[1].TextContent()))
			if x == "" || !ok {
				continue
			}
			rec, seen := byX[x]
			if !seen {
				rec = rowset.Record{CompareXKey: x}
				byX[x] = rec
				out.Data.Rows = append(out.Data.Rows, rec)
			}
			rec[series] = y
		}
	}

	if out.Data.IsEmpty() {
		return Comparison{}, ErrNoComparableData
	}
	return out, nil
}
