package chart

import (
	"encoding/json"
	"testing"

	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenRows() rowset.RowSet {
	rs := rowset.RowSet{Headers: []string{"time", "temp", "pressure"}}
	for i := 0; i < 10; i++ {
		rs.Rows = append(rs.Rows, rowset.Record{"time": float64(i), "temp": float64(20 + i), "pressure": 100.0})
	}
	return rs
}

func TestResolve(t *testing.T) {
	rs := tenRows()

	tests := []struct {
		name    string
		rs      rowset.RowSet
		binding Binding
		rows    int
		xKey    string
		series  []string
		empty   bool
		missing []string
	}{
		{
			name:    "limit keeps order",
			rs:      rs,
			binding: Binding{XAxisKey: "time", SeriesKeys: []string{"temp"}, RowLimit: 3},
			rows:    3,
			xKey:    "time",
			series:  []string{"temp"},
		},
		{
			name:    "defaults x to first header",
			rs:      rs,
			binding: Binding{SeriesKeys: []string{"temp"}, RowLimit: 100},
			rows:    10,
			xKey:    "time",
			series:  []string{"temp"},
		},
		{
			name:    "series from legends",
			rs:      rs,
			binding: Binding{XAxisKey: "time", Legends: []string{"pressure"}, RowLimit: 5},
			rows:    5,
			xKey:    "time",
			series:  []string{"pressure"},
		},
		{
			name:    "no series",
			rs:      rs,
			binding: Binding{XAxisKey: "time", RowLimit: 5},
			rows:    5,
			xKey:    "time",
			series:  []string{},
			empty:   true,
		},
		{
			name:    "empty row-set",
			rs:      rowset.RowSet{},
			binding: Binding{XAxisKey: "time", SeriesKeys: []string{"temp"}, RowLimit: 5},
			rows:    0,
			xKey:    "time",
			series:  []string{"temp"},
			empty:   true,
		},
		{
			name:    "zero limit",
			rs:      rs,
			binding: Binding{XAxisKey: "time", SeriesKeys: []string{"temp"}},
			rows:    0,
			xKey:    "time",
			series:  []string{"temp"},
			empty:   true,
		},
		{
			name:    "stale series key",
			rs:      rs,
			binding: Binding{XAxisKey: "time", SeriesKeys: []string{"temp", "humidity"}, RowLimit: 5},
			rows:    5,
			xKey:    "time",
			series:  []string{"temp", "humidity"},
			empty:   true,
			missing: []string{"humidity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.rs, tt.binding)
			assert.Len(t, res.PlottedRows, tt.rows)
			assert.Equal(t, tt.xKey, res.EffectiveXKey)
			assert.Equal(t, tt.series, res.EffectiveSeriesKeys)
			assert.Equal(t, tt.empty, res.IsEmpty)
			assert.Equal(t, tt.missing, res.Missing)
		})
	}
}

func TestResolve_PreservesRowOrder(t *testing.T) {
	rs := tenRows()
	res := Resolve(rs, Binding{XAxisKey: "time", SeriesKeys: []string{"temp"}, RowLimit: 3})
	for i, row := range res.PlottedRows {
		assert.Equal(t, float64(i), row["time"])
	}

	res.PlottedRows = append(res.PlottedRows, rowset.Record{"time": -1.0})
	assert.Equal(t, 3.0, rs.Rows[3]["time"])
}

func TestBlock_AttrsRoundTrip(t *testing.T) {
	b := Block{
		ChartType:  Bar,
		TableID:    "t1",
		XAxisKey:   "time",
		SeriesKeys: []string{"temp"},
		XAxisLabel: "Time",
		YAxisLabel: "Temp",
		RowLimit:   25,
		Data:       tenRows(),
	}
	assert.Equal(t, b, BlockFromAttrs(NewNode(b).Attrs))

	node := NewNode(b)
	markup, err := doc.RenderHTML(doc.New(doc.TypeDoc, nil, node))
	require.NoError(t, err)
	parsed, err := doc.ParseHTML(markup)
	require.NoError(t, err)
	assert.Equal(t, b, BlockFromAttrs(parsed.Content[0].Attrs))
}

func TestBlockFromAttrs_JSONShapes(t *testing.T) {
	var attrs doc.Attrs
	require.NoError(t, json.Unmarshal([]byte(`{
		"chartType": "Scatter",
		"xAxisKey": "x",
		"seriesKeys": ["a", 3, "b"],
		"rowLimit": 7,
		"legends": ["l"],
		"data": [{"x": 1, "a": 2}]
	}`), &attrs))

	b := BlockFromAttrs(attrs)
	assert.Equal(t, Scatter, b.ChartType)
	assert.Equal(t, []string{"a", "b"}, b.SeriesKeys)
	assert.Equal(t, 7, b.RowLimit)
	assert.Equal(t, []string{"l"}, b.Legends)
	assert.Equal(t, 1, b.Data.Len())
	assert.Equal(t, 2.0, b.Data.Rows[0]["a"])
}

func TestBlockFromAttrs_Defaults(t *testing.T) {
	b := BlockFromAttrs(doc.Attrs{"chartType": "pie"})
	assert.Equal(t, Line, b.ChartType)
	assert.Equal(t, DefaultRowLimit, b.RowLimit)
	assert.True(t, b.Data.IsEmpty())

	attrs := Block{}.Attrs()
	assert.Equal(t, "line", attrs["chartType"])
	assert.Equal(t, DefaultRowLimit, attrs["rowLimit"])
	assert.Equal(t, []string{}, attrs["seriesKeys"])
	assert.NotContains(t, attrs, "tableId")
	assert.NotContains(t, attrs, "data")
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"line", "bar", "area", "scatter", "stacked-bar", " BAR "} {
		_, ok := ParseType(name)
		assert.True(t, ok, name)
	}
	_, ok := ParseType("pie")
	assert.False(t, ok)
}
