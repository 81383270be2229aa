// Package chart binds chart blocks to row-sets: it decodes graph block
// attributes, resolves which rows and keys a chart plots and merges tables
// for comparison charts.
package chart

import (
	"encoding/json"
	"strings"

	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/rowset"
)

// Type is a chart kind.
type Type string

const (
	Line       Type = "line"
	Bar        Type = "bar"
	Area       Type = "area"
	Scatter    Type = "scatter"
	StackedBar Type = "stacked-bar"
)

// DefaultRowLimit is the number of rows a chart plots unless told otherwise.
const DefaultRowLimit = 100

var types = []Type{Line, Bar, Area, Scatter, StackedBar}

// ParseType maps a chart type name to a Type. Unknown names return false.
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Block is the decoded form of a graph block node.
type Block struct {
	ChartType  Type          `json:"chartType"`
	TableID    string        `json:"tableId,omitempty"`
	XAxisKey   string        `json:"xAxisKey"`
	SeriesKeys []string      `json:"seriesKeys"`
	XAxisLabel string        `json:"xAxisLabel"`
	YAxisLabel string        `json:"yAxisLabel"`
	RowLimit   int           `json:"rowLimit"`
	Legends    []string      `json:"legends,omitempty"`
	Data       rowset.RowSet `json:"data"`
}

// Binding returns the resolver input for the block.
func (b Block) Binding() Binding {
	return Binding{
		XAxisKey:   b.XAxisKey,
		SeriesKeys: b.SeriesKeys,
		Legends:    b.Legends,
		RowLimit:   b.RowLimit,
	}
}

// Attrs encodes the block as node attributes. Empty optional fields are
// left out.
func (b Block) Attrs() doc.Attrs {
	chartType := b.ChartType
	if chartType == "" {
		chartType = Line
	}
	rowLimit := b.RowLimit
	if rowLimit < 1 {
		rowLimit = DefaultRowLimit
	}
	attrs := doc.Attrs{
		"chartType":  string(chartType),
		"xAxisKey":   b.XAxisKey,
		"seriesKeys": nonNil(b.SeriesKeys),
		"xAxisLabel": b.XAxisLabel,
		"yAxisLabel": b.YAxisLabel,
		"rowLimit":   rowLimit,
	}
	if b.TableID != "" {
		attrs["tableId"] = b.TableID
	}
	if len(b.Legends) > 0 {
		attrs["legends"] = b.Legends
	}
	if !b.Data.IsEmpty() {
		attrs["data"] = b.Data
	}
	return attrs
}

// NewNode builds a graph block node for b.
func NewNode(b Block) *doc.Node {
	return doc.New(doc.TypeGraphBlock, b.Attrs())
}

// BlockFromAttrs decodes graph block attributes. Values decoded from JSON
// ([]any, float64) are accepted as well as the native forms; anything
// unusable falls back to the defaults.
func BlockFromAttrs(attrs doc.Attrs) Block {
	b := Block{
		ChartType:  Line,
		TableID:    attrs.String("tableId"),
		XAxisKey:   attrs.String("xAxisKey"),
		SeriesKeys: stringList(attrs["seriesKeys"]),
		XAxisLabel: attrs.String("xAxisLabel"),
		YAxisLabel: attrs.String("yAxisLabel"),
		RowLimit:   DefaultRowLimit,
		Legends:    stringList(attrs["legends"]),
		Data:       rows(attrs["data"]),
	}
	if t, ok := ParseType(attrs.String("chartType")); ok {
		b.ChartType = t
	}
	switch v := attrs["rowLimit"].(type) {
	case int:
		b.RowLimit = v
	case float64:
		b.RowLimit = int(v)
	}
	return b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func rows(v any) rowset.RowSet {
	switch t := v.(type) {
	case rowset.RowSet:
		return t
	case nil:
		return rowset.RowSet{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return rowset.RowSet{}
	}
	var rs rowset.RowSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return rowset.RowSet{}
	}
	return rs
}
